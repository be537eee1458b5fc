// Package stats counts usage events such as conflicted merges that were
// later completed or abandoned.
package stats

import (
	"sort"
	"sync"
)

// Store holds named counters. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{counts: make(map[string]int)}
}

// Increment adds one to the named counter. Empty names are ignored.
func (s *Store) Increment(metric string) {
	if metric == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[metric]++
}

// Get returns the value of a counter.
func (s *Store) Get(metric string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[metric]
}

// Snapshot returns a copy of all counters.
func (s *Store) Snapshot() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Names returns the counters that have been incremented, sorted.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.counts))
	for k := range s.counts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
