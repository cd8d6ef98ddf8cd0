package hylla

import (
	"errors"
	"fmt"
)

// StoreError represents a domain error from library operations.
//
// These are business logic errors (section not found, shelf already exists,
// reserved name, ...) as opposed to infrastructure errors (disk failure).
// Callers branch on the Code with errors.As; the store never retries
// internally because local filesystem operations either succeed or fail
// deterministically.
type StoreError struct {
	// Code is the error category.
	Code ErrorCode

	// Message is a human-readable error description.
	Message string

	// Path is the logical path related to the error (if applicable).
	Path string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ErrorCode represents the category of a store error.
type ErrorCode int

const (
	// ErrInvalidPath indicates a malformed logical path (empty, empty
	// segment, or a segment the filesystem would reject).
	ErrInvalidPath ErrorCode = iota

	// ErrNotFound indicates the operation targets a container or section
	// that is untracked or physically absent.
	ErrNotFound

	// ErrAlreadyExists indicates a create targets a path that is already
	// tracked or already present on disk. The latter signals possible
	// out-of-band interference with the library tree.
	ErrAlreadyExists

	// ErrReservedName indicates an attempt to name a shelf "metadata".
	ErrReservedName

	// ErrInvalidMetadata indicates the metadata argument is not a plain
	// serializable key-value structure.
	ErrInvalidMetadata

	// ErrNotEmpty indicates a section removal was attempted while the
	// section still holds shelves or subsections.
	ErrNotEmpty

	// ErrIOError indicates an underlying filesystem or container failure.
	ErrIOError
)

func (c ErrorCode) String() string {
	switch c {
	case ErrInvalidPath:
		return "invalid path"
	case ErrNotFound:
		return "not found"
	case ErrAlreadyExists:
		return "already exists"
	case ErrReservedName:
		return "reserved name"
	case ErrInvalidMetadata:
		return "invalid metadata"
	case ErrNotEmpty:
		return "not empty"
	case ErrIOError:
		return "io error"
	default:
		return "unknown"
	}
}

// CodeOf extracts the ErrorCode from err. The second return value is false
// when err is not a StoreError.
func CodeOf(err error) (ErrorCode, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

func invalidPath(path string, cause error) *StoreError {
	return &StoreError{Code: ErrInvalidPath, Message: "invalid logical path", Path: path, Err: cause}
}

func notFound(kind, path string) *StoreError {
	return &StoreError{Code: ErrNotFound, Message: kind + " not found", Path: path}
}

func alreadyExists(kind, path string) *StoreError {
	return &StoreError{Code: ErrAlreadyExists, Message: kind + " already exists", Path: path}
}

func reservedName(name string) *StoreError {
	return &StoreError{
		Code:    ErrReservedName,
		Message: fmt.Sprintf("the shelf name %q is reserved", name),
	}
}

func invalidMetadata(path string, cause error) *StoreError {
	return &StoreError{Code: ErrInvalidMetadata, Message: "metadata is not a plain key-value structure", Path: path, Err: cause}
}

func notEmpty(path string) *StoreError {
	return &StoreError{Code: ErrNotEmpty, Message: "section is not empty", Path: path}
}

func ioError(msg, path string, cause error) *StoreError {
	return &StoreError{Code: ErrIOError, Message: msg, Path: path, Err: cause}
}
