// Package shelf implements the durable single-file key-value container that
// backs every shelf in a HyllaDB library.
//
// A container is one bbolt database file holding a single root bucket. Keys
// are strings; values are arbitrary structured data encoded with msgpack.
// The package exposes whole-container semantics only (read-all, replace,
// clear) plus a single-key Put, matching what the store layer needs: the
// hylla layer serializes access per container with its own locks, so the
// container itself does no locking beyond what bbolt provides.
package shelf

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v4"
	bolt "go.etcd.io/bbolt"
)

// bucketName is the single root bucket inside every container file.
var bucketName = []byte("shelf")

// FileMode is the permission mode for newly created container files.
const FileMode = 0o644

// Container is an open handle to one shelf file.
//
// A Container is not safe for concurrent use; callers must serialize access
// (the hylla layer does this with per-path locks).
type Container struct {
	path string
	db   *bolt.DB
}

// Open opens the container file at path, creating the file and its root
// bucket if they do not exist yet.
func Open(path string) (*Container, error) {
	db, err := bolt.Open(path, FileMode, nil)
	if err != nil {
		return nil, fmt.Errorf("could not open container %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ensure root bucket in %s: %w", path, err)
	}

	return &Container{path: path, db: db}, nil
}

// Path returns the filesystem path of the container file.
func (c *Container) Path() string {
	return c.path
}

// Close releases the underlying database handle.
func (c *Container) Close() error {
	return c.db.Close()
}

// ReadAll decodes the full contents of the container into a fresh map.
// The result shares no state with the container; callers may mutate it
// freely.
func (c *Container) ReadAll() (map[string]any, error) {
	out := make(map[string]any)

	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			var value any
			if err := msgpack.Unmarshal(v, &value); err != nil {
				return &CodecError{Key: string(k), Err: err}
			}
			out[string(k)] = value
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("could not read container %s: %w", c.path, err)
	}

	return out, nil
}

// Replace overwrites the container contents wholesale with data. All values
// are encoded before any mutation happens, so an unserializable value aborts
// the operation with a CodecError and leaves the container untouched.
func (c *Container) Replace(data map[string]any) error {
	encoded, err := encodeAll(data)
	if err != nil {
		return err
	}

	err = c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketName); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket(bucketName)
		if err != nil {
			return err
		}
		for k, v := range encoded {
			if err := bucket.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not replace contents of %s: %w", c.path, err)
	}

	return nil
}

// Put writes a single key, leaving the rest of the container untouched.
func (c *Container) Put(key string, value any) error {
	buf, err := msgpack.Marshal(value)
	if err != nil {
		return &CodecError{Key: key, Err: err}
	}

	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), buf)
	})
	if err != nil {
		return fmt.Errorf("could not write key %q in %s: %w", key, c.path, err)
	}

	return nil
}

// Clear removes every key-value pair, leaving the container file in place.
func (c *Container) Clear() error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketName); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketName)
		return err
	})
	if err != nil {
		return fmt.Errorf("could not clear container %s: %w", c.path, err)
	}

	return nil
}

// encodeAll msgpack-encodes every value in data up front.
func encodeAll(data map[string]any) (map[string][]byte, error) {
	encoded := make(map[string][]byte, len(data))
	for k, v := range data {
		buf, err := msgpack.Marshal(v)
		if err != nil {
			return nil, &CodecError{Key: k, Err: err}
		}
		encoded[k] = buf
	}
	return encoded, nil
}

// ValidateValues reports whether every value in data can be stored in a
// container. Used by callers that must reject bad input before touching
// the filesystem.
func ValidateValues(data map[string]any) error {
	_, err := encodeAll(data)
	return err
}

// CodecError marks a value that could not be encoded or decoded.
type CodecError struct {
	Key string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("value for key %q is not serializable: %v", e.Key, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// IsCodecError reports whether err is (or wraps) a CodecError.
func IsCodecError(err error) bool {
	var ce *CodecError
	return errors.As(err, &ce)
}
