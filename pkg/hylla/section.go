package hylla

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hylladb/hylla/internal/logger"
	"github.com/hylladb/hylla/pkg/shelf"
)

// SectionManager manages the directories that organize shelves into a
// hierarchy. Every section carries exactly one reserved metadata container
// (metadata.db) which is created with the section and tracked like any other
// container; its lock is keyed to the container's own physical path, not the
// section's.
//
// The same uniform existence rule as ShelfStore applies: read, update, and
// delete operations require the section to be tracked AND present; create
// requires neither.
type SectionManager struct {
	lib *Library
}

// requireSection resolves logical and enforces the tracked-AND-present rule,
// returning the physical directory path.
func (m *SectionManager) requireSection(logical string) (string, error) {
	abs, err := resolveNew(m.lib.root, logical)
	if err != nil {
		return "", err
	}

	present := pathExists(abs)
	known := m.lib.paths.has(abs)
	if present && known {
		return abs, nil
	}
	if present != known {
		logger.Warn("index and disk disagree for section %q (on disk: %v, tracked: %v)", logical, present, known)
	}
	return "", notFound("section", logical)
}

// metadataPath returns the physical path of a section's reserved metadata
// container.
func metadataPath(sectionAbs string) string {
	return filepath.Join(sectionAbs, MetadataName+ShelfExt)
}

// create makes the section directory, tracks it, and durably writes metadata
// into the reserved metadata container inside it. The parent section must
// already be materialized; the target must be neither tracked nor on disk.
// Metadata is validated before the filesystem is touched, so a bad argument
// leaves no partial state behind.
func (m *SectionManager) create(logical string, metadata map[string]any) error {
	if err := shelf.ValidateValues(metadata); err != nil {
		return invalidMetadata(logical, err)
	}

	abs, err := resolveNew(m.lib.root, logical)
	if err != nil {
		return err
	}
	if m.lib.paths.has(abs) || pathExists(abs) {
		return alreadyExists("section", logical)
	}

	m.lib.paths.add(abs)
	if err := os.Mkdir(abs, 0o755); err != nil {
		m.lib.paths.remove(abs)
		if os.IsNotExist(err) {
			return notFound("parent section of", logical)
		}
		return ioError("could not create section directory", abs, err)
	}

	mdAbs := metadataPath(abs)
	m.lib.paths.add(mdAbs)

	lock := m.lib.locks.lockFor(mdAbs)
	lock.Lock()
	defer lock.Unlock()

	container, err := shelf.Open(mdAbs)
	if err != nil {
		m.lib.paths.remove(mdAbs)
		return ioError("could not create section metadata container", mdAbs, err)
	}
	defer container.Close()

	if err := container.Replace(metadata); err != nil {
		return ioError("could not write section metadata", mdAbs, err)
	}

	logger.Info("created section %s", abs)
	return nil
}

// checkout recursively materializes the section into a nested SectionData
// snapshot: each shelf file becomes a leaf with its checked-out contents,
// each subdirectory a nested mapping built the same way. This is a full
// in-memory snapshot and is expensive for large trees; callers needing
// partial reads should check out individual shelves instead.
func (m *SectionManager) checkout(logical string) (SectionData, error) {
	abs, err := m.requireSection(logical)
	if err != nil {
		return nil, err
	}
	return m.lib.buildTree(abs)
}

// rename renames the section directory in place, within its parent, and
// rewrites the index entry of the section and of every tracked descendant.
// The on-disk rename moves the subtree atomically; the index update must
// visit each descendant explicitly. A failure partway can leave index and
// filesystem diverged; there is no rollback.
func (m *SectionManager) rename(logical, newName string) error {
	if err := checkSegment(newName); err != nil {
		return invalidPath(newName, err)
	}

	abs, err := m.requireSection(logical)
	if err != nil {
		return err
	}

	newAbs := filepath.Join(filepath.Dir(abs), newName)
	if m.lib.paths.has(newAbs) || pathExists(newAbs) {
		return alreadyExists("section", newName)
	}

	if err := os.Rename(abs, newAbs); err != nil {
		return ioError("could not rename section directory", abs, err)
	}
	m.lib.paths.rewritePrefix(abs, newAbs, string(os.PathSeparator))

	logger.Info("renamed section %s -> %s", abs, newAbs)
	return nil
}

// rewriteMetadata replaces the section's reserved metadata container
// contents wholesale (not merged). The container is recreated if a
// section-wide clear removed it.
func (m *SectionManager) rewriteMetadata(logical string, metadata map[string]any) error {
	if err := shelf.ValidateValues(metadata); err != nil {
		return invalidMetadata(logical, err)
	}

	abs, err := m.requireSection(logical)
	if err != nil {
		return err
	}

	mdAbs := metadataPath(abs)
	err = m.lib.withContainer(mdAbs, func(container *shelf.Container) error {
		if err := container.Replace(metadata); err != nil {
			return ioError("could not write section metadata", mdAbs, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.lib.paths.add(mdAbs)

	return nil
}

// remove deletes the section directory and untracks it. The section must be
// empty apart from its own metadata container, which is removed with it;
// anything else fails with ErrNotEmpty, matching directory-removal
// semantics.
func (m *SectionManager) remove(logical string) error {
	abs, err := m.requireSection(logical)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return ioError("could not list section directory", abs, err)
	}
	for _, entry := range entries {
		if entry.Name() != MetadataName+ShelfExt {
			return notEmpty(logical)
		}
	}

	mdAbs := metadataPath(abs)
	if pathExists(mdAbs) {
		lock := m.lib.locks.lockFor(mdAbs)
		lock.Lock()
		err = os.Remove(mdAbs)
		lock.Unlock()
		if err != nil {
			return ioError("could not remove section metadata container", mdAbs, err)
		}
	}
	m.lib.paths.remove(mdAbs)

	if err := os.Remove(abs); err != nil {
		return ioError("could not remove section directory", abs, err)
	}
	m.lib.paths.remove(abs)

	logger.Info("removed section %s", abs)
	return nil
}

// clear deletes every shelf container file transitively beneath the section
// (matched by extension, metadata containers included), leaving the
// directory structure and subsections intact. Containers are removed one at
// a time under their own locks, so a concurrent checkout may observe a
// partially cleared subtree.
func (m *SectionManager) clear(logical string) error {
	abs, err := m.requireSection(logical)
	if err != nil {
		return err
	}

	var shelves []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ShelfExt) {
			shelves = append(shelves, path)
		}
		return nil
	})
	if err != nil {
		return ioError("could not walk section directory", abs, err)
	}

	for _, shelfAbs := range shelves {
		lock := m.lib.locks.lockFor(shelfAbs)
		lock.Lock()
		err := os.Remove(shelfAbs)
		lock.Unlock()
		if err != nil {
			return ioError("could not remove shelf container", shelfAbs, err)
		}
		m.lib.paths.remove(shelfAbs)
	}

	logger.Info("cleared section %s (%d containers removed)", abs, len(shelves))
	return nil
}
