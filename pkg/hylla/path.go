package hylla

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// Separator separates segments of a logical path ("parent.child.shelf").
	Separator = "."

	// ShelfExt is the filename extension of shelf container files.
	ShelfExt = ".db"

	// MetadataName is the reserved name of the per-section metadata
	// container. Creating a user shelf with this name is rejected.
	MetadataName = "metadata"
)

// Logical paths address sections and shelves relative to the library root
// using Separator between segments. The resolver is pure: it validates and
// translates paths, and optionally checks existence, but holds no state.

// normalizePath converts a dotted logical path into a filesystem-relative
// path. It fails with ErrInvalidPath when the path is empty, a segment is
// empty ("a..b", ".a", "a."), or a segment cannot be a single filesystem
// path component.
func normalizePath(logical string) (string, error) {
	if logical == "" {
		return "", invalidPath(logical, nil)
	}

	segments := strings.Split(logical, Separator)
	for _, segment := range segments {
		if err := checkSegment(segment); err != nil {
			return "", invalidPath(logical, err)
		}
	}

	return filepath.Join(segments...), nil
}

// checkSegment validates one logical path segment as a filesystem name.
func checkSegment(segment string) error {
	switch segment {
	case "", ".", "..":
		return errSegment(segment)
	}
	if strings.ContainsAny(segment, "/\x00") || strings.ContainsRune(segment, os.PathSeparator) {
		return errSegment(segment)
	}
	return nil
}

type segmentError string

func (e segmentError) Error() string {
	return "segment " + string(e) + " is not a valid path component"
}

func errSegment(segment string) error {
	return segmentError("\"" + segment + "\"")
}

// resolveNew normalizes logical and joins it to root without requiring the
// result to exist. Create operations use this and perform their own
// existence checks to distinguish "already exists" from "safe to create".
func resolveNew(root, logical string) (string, error) {
	rel, err := normalizePath(logical)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, rel), nil
}

// resolveExisting normalizes logical, joins it to root, and fails with
// ErrNotFound when the resulting path is absent on disk. Read, update, and
// delete operations must target only already-materialized paths.
func resolveExisting(root, logical, kind string) (string, error) {
	abs, err := resolveNew(root, logical)
	if err != nil {
		return "", err
	}
	if !pathExists(abs) {
		return "", notFound(kind, logical)
	}
	return abs, nil
}

// resolveShelfNew is resolveNew with the shelf extension appended to the
// final segment, mapping logical "a.b.c" to <root>/a/b/c.db.
func resolveShelfNew(root, logical string) (string, error) {
	abs, err := resolveNew(root, logical)
	if err != nil {
		return "", err
	}
	return abs + ShelfExt, nil
}

func pathExists(abs string) bool {
	_, err := os.Stat(abs)
	return err == nil
}
