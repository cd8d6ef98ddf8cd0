// Package hylla implements an embedded hierarchical key-value store backed by
// the local filesystem. A Library maps a directory tree onto a namespace of
// sections (directories) and shelves (single-file key-value containers),
// addressed with dotted logical paths: "inventory.books" names the shelf file
// inventory/books.db under the library root.
//
// The library tracks every path it creates in an in-memory index and hands
// out one lock per container, so concurrent use from multiple goroutines is
// safe at the granularity of a single container. There is no cross-container
// atomicity: section-wide operations touch one container at a time.
package hylla

import (
	"os"
	"path/filepath"
	"time"

	"github.com/hylladb/hylla/internal/logger"
	"github.com/hylladb/hylla/pkg/metrics"
	"github.com/hylladb/hylla/pkg/shelf"
)

// testHookContainerSpan, when non-nil, is invoked with (path, true) on
// entering and (path, false) on leaving a container critical section.
// Set only by tests.
var testHookContainerSpan func(abs string, enter bool)

// Library is the root handle of a store. All operations are safe for
// concurrent use.
type Library struct {
	root     string
	paths    *pathSet
	locks    *lockTable
	shelves  *ShelfStore
	sections *SectionManager
	metrics  metrics.StoreMetrics

	// initial holds sections declared via WithInitialSections until New has
	// created them; cleared afterwards.
	initial []InitialSection
}

// InitialSection declares a section to create when the library opens.
type InitialSection struct {
	// Path is the dotted logical path of the section. Parents must be
	// declared before children.
	Path string

	// Metadata seeds the section's reserved metadata container. May be nil.
	Metadata map[string]any
}

// Option configures a Library during New.
type Option func(*Library)

// WithMetrics attaches a metrics sink to the library. Without it, a no-op
// sink is used.
func WithMetrics(m metrics.StoreMetrics) Option {
	return func(l *Library) {
		if m != nil {
			l.metrics = m
		}
	}
}

// WithInitialSections declares sections to create immediately after the
// library opens, in order. Creation is fail-fast: the first error aborts New,
// and sections already created are left in place.
func WithInitialSections(sections ...InitialSection) Option {
	return func(l *Library) {
		l.initial = append(l.initial, sections...)
	}
}

// New opens (or creates) a library rooted at root. The root directory is
// created if absent. Paths materialized by a previous process are not
// rediscovered: the index only tracks what this instance creates.
func New(root string, opts ...Option) (*Library, error) {
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return nil, invalidPath(root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, ioError("could not create library root", abs, err)
	}

	l := &Library{
		root:    abs,
		paths:   newPathSet(),
		locks:   newLockTable(),
		metrics: metrics.Noop(),
	}
	l.shelves = &ShelfStore{lib: l}
	l.sections = &SectionManager{lib: l}

	for _, opt := range opts {
		opt(l)
	}

	for _, section := range l.initial {
		if err := l.CreateSection(section.Path, section.Metadata); err != nil {
			return nil, err
		}
	}
	l.initial = nil

	logger.Info("opened library at %s", abs)
	return l, nil
}

// Root returns the absolute physical path of the library root.
func (l *Library) Root() string {
	return l.root
}

// Knows reports whether the physical path abs was created through this
// library instance. Used by external observers to classify filesystem
// activity under the root.
func (l *Library) Knows(abs string) bool {
	return l.paths.has(abs)
}

// withContainer opens the container at abs under its lock and runs fn on it.
// The lock is held for the duration of the container I/O only; fn must not
// call back into operations that take another container's lock.
func (l *Library) withContainer(abs string, fn func(*shelf.Container) error) error {
	lock := l.locks.lockFor(abs)
	lock.Lock()
	defer lock.Unlock()

	if hook := testHookContainerSpan; hook != nil {
		hook(abs, true)
		defer hook(abs, false)
	}

	container, err := shelf.Open(abs)
	if err != nil {
		return ioError("could not open shelf container", abs, err)
	}
	defer container.Close()

	return fn(container)
}

// observe runs fn and records its duration and outcome, then refreshes the
// index and lock gauges.
func (l *Library) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	l.metrics.RecordOperation(op, time.Since(start), err)
	l.metrics.SetKnownPaths(l.paths.size())
	l.metrics.SetLocks(l.locks.size())
	return err
}

// CreateSection creates the section at the dotted logical path, seeding its
// reserved metadata container with metadata (which may be nil). The parent
// section must exist; the target must not.
func (l *Library) CreateSection(path string, metadata map[string]any) error {
	return l.observe("create_section", func() error {
		return l.sections.create(path, metadata)
	})
}

// CheckoutSection materializes the section and everything beneath it into a
// nested in-memory snapshot. Metadata containers appear as regular entries
// named "metadata".
func (l *Library) CheckoutSection(path string) (SectionData, error) {
	var data SectionData
	err := l.observe("checkout_section", func() error {
		var err error
		data, err = l.sections.checkout(path)
		return err
	})
	return data, err
}

// RenameSection renames the section to newName within its parent, carrying
// every tracked descendant along.
func (l *Library) RenameSection(path, newName string) error {
	return l.observe("rename_section", func() error {
		return l.sections.rename(path, newName)
	})
}

// RewriteSectionMetadata replaces the section's metadata container contents
// wholesale.
func (l *Library) RewriteSectionMetadata(path string, metadata map[string]any) error {
	return l.observe("rewrite_section_metadata", func() error {
		return l.sections.rewriteMetadata(path, metadata)
	})
}

// RemoveSection deletes the section and its metadata container. Fails with
// ErrNotEmpty when the section still holds shelves or subsections.
func (l *Library) RemoveSection(path string) error {
	return l.observe("remove_section", func() error {
		return l.sections.remove(path)
	})
}

// ClearSection deletes every shelf container beneath the section, metadata
// containers included, leaving the directory structure intact.
func (l *Library) ClearSection(path string) error {
	return l.observe("clear_section", func() error {
		return l.sections.clear(path)
	})
}

// CreateShelf creates a shelf named name inside the section at sectionPath,
// seeding it with the given contents (which may be nil). An empty sectionPath
// places the shelf directly under the library root.
func (l *Library) CreateShelf(name, sectionPath string, seed map[string]any) error {
	return l.observe("create_shelf", func() error {
		return l.shelves.create(name, sectionPath, seed)
	})
}

// CheckoutShelf returns a snapshot of the shelf's full contents.
func (l *Library) CheckoutShelf(path string) (ShelfData, error) {
	var data ShelfData
	err := l.observe("checkout_shelf", func() error {
		var err error
		data, err = l.shelves.checkout(path)
		return err
	})
	return data, err
}

// RewriteShelfMetadata replaces the shelf's "metadata" key wholesale, leaving
// other keys untouched.
func (l *Library) RewriteShelfMetadata(path string, metadata map[string]any) error {
	return l.observe("rewrite_shelf_metadata", func() error {
		return l.shelves.rewriteMetadata(path, metadata)
	})
}

// RenameShelf renames the shelf to newName within its section.
func (l *Library) RenameShelf(path, newName string) error {
	return l.observe("rename_shelf", func() error {
		return l.shelves.rename(path, newName)
	})
}

// RemoveShelf deletes the shelf's container file.
func (l *Library) RemoveShelf(path string) error {
	return l.observe("remove_shelf", func() error {
		return l.shelves.remove(path)
	})
}

// ClearShelf empties the shelf, keeping its container file in place.
func (l *Library) ClearShelf(path string) error {
	return l.observe("clear_shelf", func() error {
		return l.shelves.clear(path)
	})
}

// CheckoutLibrary materializes the whole library into a nested snapshot.
func (l *Library) CheckoutLibrary() (SectionData, error) {
	var data SectionData
	err := l.observe("checkout_library", func() error {
		var err error
		data, err = l.buildTree(l.root)
		return err
	})
	return data, err
}
