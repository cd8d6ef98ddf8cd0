package hylla

import "sync"

// lockTable hands out one mutex per distinct physical container path.
//
// The lookup-or-insert step is itself a race when called from multiple
// goroutines, so the table serializes it with its own guard, held only for
// the map access and never for the critical section that follows. Locks are
// created lazily on first access and never evicted; the table's cardinality
// is bounded by the number of distinct containers ever touched during the
// library's lifetime, which is an accepted tradeoff for simplicity.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

// lockFor returns the cached lock for the exact physical path, creating and
// inserting one if absent. The same path always maps to the same mutex
// instance once created.
func (t *lockTable) lockFor(abs string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[abs]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[abs] = lock
	}
	return lock
}

// size returns the number of locks ever created.
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}

// pathSet tracks the physical paths that were created through the library
// API, as opposed to paths found on disk unexpectedly. It is shared mutable
// state, so every access goes through its own mutex; this guard is scoped to
// the set mutation only and is independent of the per-container locks.
type pathSet struct {
	mu sync.Mutex
	m  map[string]struct{}
}

func newPathSet() *pathSet {
	return &pathSet{m: make(map[string]struct{})}
}

func (s *pathSet) add(abs string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[abs] = struct{}{}
}

func (s *pathSet) remove(abs string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, abs)
}

func (s *pathSet) has(abs string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[abs]
	return ok
}

func (s *pathSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// rewritePrefix rewrites oldAbs and every tracked descendant of oldAbs to
// live under newAbs. The directory rename on disk moves the whole subtree
// atomically, but the index must visit every descendant entry explicitly.
func (s *pathSet) rewritePrefix(oldAbs, newAbs string, sep string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := oldAbs + sep
	moves := make(map[string]string)
	for path := range s.m {
		switch {
		case path == oldAbs:
			moves[path] = newAbs
		case len(path) > len(prefix) && path[:len(prefix)] == prefix:
			moves[path] = newAbs + sep + path[len(prefix):]
		}
	}
	for old, renamed := range moves {
		delete(s.m, old)
		s.m[renamed] = struct{}{}
	}
}
