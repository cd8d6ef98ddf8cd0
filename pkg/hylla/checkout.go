package hylla

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hylladb/hylla/internal/logger"
	"github.com/hylladb/hylla/pkg/shelf"
)

// Checkout operations materialize on-disk state into in-memory snapshots.
// The result is a tagged-variant tree: a shelf becomes a ShelfData leaf with
// its full contents, a section becomes a SectionData branch mapping child
// names to nested entries. Building the tree acquires and releases one
// container's lock at a time, so a concurrent structural mutation may be
// observed partially; cross-container atomicity is out of scope by design.

// Entry is one node of a checked-out tree: either ShelfData or SectionData.
type Entry interface {
	entry()
}

// ShelfData is the full contents of a single shelf. It is a snapshot copy;
// mutating it never affects the stored container.
type ShelfData map[string]any

func (ShelfData) entry() {}

// SectionData maps child names (shelf names without extension, or section
// names) to their checked-out entries.
type SectionData map[string]Entry

func (SectionData) entry() {}

// buildTree recursively materializes the directory at dir. Shelf files
// (including metadata containers) become ShelfData leaves keyed by their
// name without the extension; subdirectories become nested SectionData.
// Every container and subdirectory must be tracked in the index: an
// untracked one was planted out of band, and the walk refuses it the same
// way a direct checkout would instead of adopting it into the snapshot.
// Files without the shelf extension are outside the container namespace
// and ignored.
func (l *Library) buildTree(dir string) (SectionData, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioError("could not list section directory", dir, err)
	}

	out := make(SectionData, len(entries))
	for _, entry := range entries {
		abs := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			if !l.paths.has(abs) {
				logger.Warn("index and disk disagree for section %s (on disk: true, tracked: false)", abs)
				return nil, notFound("section", abs)
			}
			child, err := l.buildTree(abs)
			if err != nil {
				return nil, err
			}
			out[entry.Name()] = child
		case strings.HasSuffix(entry.Name(), ShelfExt):
			if !l.paths.has(abs) {
				logger.Warn("index and disk disagree for shelf %s (on disk: true, tracked: false)", abs)
				return nil, notFound("shelf", abs)
			}
			data, err := l.readShelf(abs)
			if err != nil {
				return nil, err
			}
			out[strings.TrimSuffix(entry.Name(), ShelfExt)] = data
		}
	}

	return out, nil
}

// readShelf opens the container at abs under its lock and returns a snapshot
// of its contents. No shared mutable state leaks out of the critical section.
func (l *Library) readShelf(abs string) (ShelfData, error) {
	var data map[string]any
	err := l.withContainer(abs, func(container *shelf.Container) error {
		var err error
		data, err = container.ReadAll()
		if err != nil {
			return ioError("could not read shelf container", abs, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ShelfData(data), nil
}
