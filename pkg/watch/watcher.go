// Package watch provides an advisory filesystem sentinel for a library root.
//
// The sentinel observes the directory tree under the root and reports paths
// that appear without going through the library API, along with removals or
// renames of paths the library believes it owns. Reports are advisory only:
// the sentinel never reconciles the index with the disk, it just surfaces the
// divergence so an operator can act on it.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/hylladb/hylla/internal/logger"
	"github.com/hylladb/hylla/pkg/hylla"
)

// Event describes one observed out-of-band filesystem change.
type Event struct {
	// Path is the absolute physical path the event refers to.
	Path string

	// Op is the raw filesystem operation.
	Op fsnotify.Op

	// Foreign is true when the path was created outside the library API,
	// false when a library-owned path was removed or renamed out from under
	// the index.
	Foreign bool
}

// Sentinel watches a library root for out-of-band changes.
//
// Events caused by the library itself are filtered using the library's own
// path index: a created path the library already tracks is its own write and
// is ignored. Renames report the old name only (fsnotify surfaces the new
// name as a separate create), so a directory rename of a tracked path shows
// up as one rename event plus one foreign create; callers should treat the
// pairing as best effort.
type Sentinel struct {
	lib     *hylla.Library
	watcher *fsnotify.Watcher
	report  func(Event)

	closeOnce sync.Once
	done      chan struct{}
}

// New starts a sentinel over lib's root. The report callback is invoked from
// the sentinel's own goroutine for every out-of-band event; it must not
// block for long. A nil callback keeps log-only behavior.
func New(lib *hylla.Library, report func(Event)) (*Sentinel, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	s := &Sentinel{
		lib:     lib,
		watcher: watcher,
		report:  report,
		done:    make(chan struct{}),
	}

	// Watch every existing directory; fsnotify does not recurse on its own.
	err = filepath.WalkDir(lib.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, err
	}

	go s.loop()
	return s, nil
}

// Close stops the sentinel and waits for its loop to exit.
func (s *Sentinel) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.watcher.Close()
		<-s.done
	})
	return err
}

func (s *Sentinel) loop() {
	defer close(s.done)

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handle(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

func (s *Sentinel) handle(event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Create):
		// New directories need their own watch before anything inside them
		// can be observed. Best effort: the directory may already be gone.
		if isDir(event.Name) {
			if err := s.watcher.Add(event.Name); err != nil {
				logger.Warn("could not watch new directory %s: %v", event.Name, err)
			}
		}
		if s.lib.Knows(event.Name) {
			return // the library's own write
		}
		if !isDir(event.Name) && !strings.HasSuffix(event.Name, hylla.ShelfExt) {
			return // foreign files outside the container namespace are not our concern
		}
		s.emit(Event{Path: event.Name, Op: event.Op, Foreign: true})
		logger.Warn("foreign path appeared under library root: %s", event.Name)

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		if !s.lib.Knows(event.Name) {
			return
		}
		s.emit(Event{Path: event.Name, Op: event.Op, Foreign: false})
		logger.Warn("tracked path changed outside the library: %s (%s)", event.Name, event.Op)
	}
}

func (s *Sentinel) emit(e Event) {
	if s.report != nil {
		s.report(e)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
