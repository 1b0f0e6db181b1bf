// Package history keeps the latest translation and a bounded, newest-first
// log of past ones for the current session.
package history

import (
	"sync"

	"zoolingo/translator"
)

const Capacity = 20

type Store struct {
	mu        sync.RWMutex
	latest    translator.Result
	hasLatest bool
	entries   []translator.Result
}

func New() *Store {
	return &Store{entries: make([]translator.Result, 0, Capacity)}
}

// Record makes r the latest result and prepends it to the log, dropping the
// oldest entry once Capacity is exceeded.
func (s *Store) Record(r translator.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = r
	s.hasLatest = true

	n := min(len(s.entries)+1, Capacity)
	next := make([]translator.Result, n, Capacity)
	next[0] = r
	copy(next[1:], s.entries)
	s.entries = next
}

// Clear empties the log. The latest result stays visible.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = s.entries[:0:0]
	s.mu.Unlock()
}

func (s *Store) Latest() (translator.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.hasLatest
}

// Entries returns a copy of the log, newest first.
func (s *Store) Entries() []translator.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]translator.Result(nil), s.entries...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
