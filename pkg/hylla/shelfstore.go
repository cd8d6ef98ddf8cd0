package hylla

import (
	"os"
	"path/filepath"

	"github.com/hylladb/hylla/internal/logger"
	"github.com/hylladb/hylla/pkg/shelf"
)

// ShelfStore manages individual persisted key-value containers. Each shelf
// is one container file living inside a section (or directly in the library
// root), addressed by a dotted logical path whose last segment is the shelf
// name.
//
// Existence rule, applied uniformly: read, update, and delete operations
// require the target to be both tracked in the library index AND present on
// disk; create operations require it to be neither. The original store mixed
// the two checks per operation; the uniform rule is a deliberate tightening
// (see DESIGN.md). Disagreement between index and disk is reported, never
// silently reconciled.
type ShelfStore struct {
	lib *Library
}

// requireShelf resolves logical and enforces the tracked-AND-present rule,
// returning the physical container path.
func (s *ShelfStore) requireShelf(logical string) (string, error) {
	abs, err := resolveShelfNew(s.lib.root, logical)
	if err != nil {
		return "", err
	}

	present := pathExists(abs)
	known := s.lib.paths.has(abs)
	if present && known {
		return abs, nil
	}
	if present != known {
		logger.Warn("index and disk disagree for shelf %q (on disk: %v, tracked: %v)", logical, present, known)
	}
	return "", notFound("shelf", logical)
}

// create makes a new shelf named name inside the section at sectionPath
// (empty sectionPath targets the library root), durably writing seed as its
// initial contents. The shelf name "metadata" is reserved. The target must
// be neither tracked nor present on disk.
func (s *ShelfStore) create(name, sectionPath string, seed map[string]any) error {
	if name == MetadataName {
		return reservedName(name)
	}
	if err := checkSegment(name); err != nil {
		return invalidPath(name, err)
	}

	parent := s.lib.root
	if sectionPath != "" {
		var err error
		parent, err = s.lib.sections.requireSection(sectionPath)
		if err != nil {
			return err
		}
	}

	abs := filepath.Join(parent, name+ShelfExt)
	if s.lib.paths.has(abs) || pathExists(abs) {
		return alreadyExists("shelf", name)
	}

	if err := shelf.ValidateValues(seed); err != nil {
		return invalidMetadata(name, err)
	}

	s.lib.paths.add(abs)

	lock := s.lib.locks.lockFor(abs)
	lock.Lock()
	defer lock.Unlock()

	container, err := shelf.Open(abs)
	if err != nil {
		s.lib.paths.remove(abs)
		return ioError("could not create shelf container", abs, err)
	}
	defer container.Close()

	if err := container.Replace(seed); err != nil {
		return ioError("could not write shelf seed data", abs, err)
	}

	logger.Debug("created shelf %s", abs)
	return nil
}

// checkout returns a snapshot copy of the shelf's full contents.
func (s *ShelfStore) checkout(logical string) (ShelfData, error) {
	abs, err := s.requireShelf(logical)
	if err != nil {
		return nil, err
	}
	return s.lib.readShelf(abs)
}

// rewriteMetadata replaces the value of the reserved "metadata" key
// wholesale, leaving all other keys untouched.
func (s *ShelfStore) rewriteMetadata(logical string, metadata map[string]any) error {
	abs, err := s.requireShelf(logical)
	if err != nil {
		return err
	}
	if err := shelf.ValidateValues(metadata); err != nil {
		return invalidMetadata(logical, err)
	}

	return s.lib.withContainer(abs, func(container *shelf.Container) error {
		if err := container.Put(MetadataName, metadata); err != nil {
			return ioError("could not write shelf metadata", abs, err)
		}
		return nil
	})
}

// rename moves the container file to newName within its containing
// directory and updates the index bookkeeping. Renaming to the reserved
// metadata name or onto an existing shelf is rejected.
func (s *ShelfStore) rename(logical, newName string) error {
	if newName == MetadataName {
		return reservedName(newName)
	}
	if err := checkSegment(newName); err != nil {
		return invalidPath(newName, err)
	}

	abs, err := s.requireShelf(logical)
	if err != nil {
		return err
	}

	newAbs := filepath.Join(filepath.Dir(abs), newName+ShelfExt)
	if s.lib.paths.has(newAbs) || pathExists(newAbs) {
		return alreadyExists("shelf", newName)
	}

	lock := s.lib.locks.lockFor(abs)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Rename(abs, newAbs); err != nil {
		return ioError("could not rename shelf container", abs, err)
	}
	s.lib.paths.remove(abs)
	s.lib.paths.add(newAbs)

	logger.Debug("renamed shelf %s -> %s", abs, newAbs)
	return nil
}

// remove deletes the container file and untracks its path. The path's lock
// survives in the registry; the name may be reused by a brand-new shelf.
func (s *ShelfStore) remove(logical string) error {
	abs, err := s.requireShelf(logical)
	if err != nil {
		return err
	}

	lock := s.lib.locks.lockFor(abs)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(abs); err != nil {
		return ioError("could not remove shelf container", abs, err)
	}
	s.lib.paths.remove(abs)

	logger.Debug("removed shelf %s", abs)
	return nil
}

// clear empties every key-value pair, keeping the container file in place.
func (s *ShelfStore) clear(logical string) error {
	abs, err := s.requireShelf(logical)
	if err != nil {
		return err
	}

	return s.lib.withContainer(abs, func(container *shelf.Container) error {
		if err := container.Clear(); err != nil {
			return ioError("could not clear shelf container", abs, err)
		}
		return nil
	})
}
