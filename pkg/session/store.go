// Package session owns the reconciled changes state of each repository and
// commits refresh results one at a time.
package session

import (
	"errors"
	"sync"

	"github.com/tierone/deckhand/pkg/changes"
	"github.com/tierone/deckhand/pkg/logging"
	"github.com/tierone/deckhand/pkg/stats"
)

var (
	// ErrUnknownRepository is returned for a repository name that is not configured.
	ErrUnknownRepository = errors.New("unknown repository")

	// ErrStaleVersion is returned when a refresh was computed against a state
	// that has since been replaced.
	ErrStaleVersion = errors.New("state version is stale")
)

// Result is the outcome of one committed refresh.
type Result struct {
	Repository string
	Path       string
	Version    uint64
	Status     *changes.StatusResult
	State      changes.State
	Signal     changes.Signal
	Err        error
}

// Store holds the changes state of one repository. Every refresh is applied
// under a lock, so concurrent refreshes never lose each other's updates.
type Store struct {
	mu           sync.Mutex
	name         string
	state        changes.State
	version      uint64
	clearPartial bool
	stats        *stats.Store
	logger       logging.Logger
}

// StoreOption configures a store.
type StoreOption func(*Store)

// WithStats records conflict signals in st.
func WithStats(st *stats.Store) StoreOption {
	return func(s *Store) {
		s.stats = st
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClearPartialSelection resets partially selected files on refresh.
func WithClearPartialSelection(enabled bool) StoreOption {
	return func(s *Store) {
		s.clearPartial = enabled
	}
}

// WithState sets the initial state, for example one loaded from a snapshot.
func WithState(state changes.State) StoreOption {
	return func(s *Store) {
		s.state = state
	}
}

// NewStore creates a store for the named repository.
func NewStore(name string, opts ...StoreOption) *Store {
	s := &Store{
		name:   name,
		state:  changes.NewState(),
		logger: logging.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the repository name.
func (s *Store) Name() string {
	return s.name
}

// State returns the current state and its version.
func (s *Store) State() (changes.State, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.version
}

// Apply reconciles a fresh status sample with the current state and commits
// the result.
func (s *Store) Apply(status *changes.StatusResult) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(status)
}

// ApplyIfVersion is Apply, but fails with ErrStaleVersion unless the state
// is still at version.
func (s *Store) ApplyIfVersion(version uint64, status *changes.StatusResult) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != version {
		return Result{Repository: s.name, Version: s.version}, ErrStaleVersion
	}
	return s.applyLocked(status), nil
}

// Update replaces the state with fn's result, for changes that do not come
// from a refresh such as selecting files or picking a conflict resolution.
func (s *Store) Update(fn func(changes.State) changes.State) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = fn(s.state)
	s.version++
	return s.version
}

func (s *Store) applyLocked(status *changes.StatusResult) Result {
	if status.HasConflictingMarkers() {
		s.logger.Warn("merge and rebase markers both present, treating as merge",
			"repository", s.name)
	}

	files := changes.UpdateChangedFiles(s.state, status.Files, s.clearPartial)
	conflict, signal := changes.UpdateConflictState(s.state.Conflict, status)

	s.state = changes.State{
		WorkingDirectory: files.WorkingDirectory,
		Selection:        files.Selection,
		Conflict:         conflict,
	}
	s.version++

	s.logger.Debug("refreshed",
		"repository", s.name,
		"version", s.version,
		"files", s.state.WorkingDirectory.Len())

	if signal != changes.SignalNone {
		if s.stats != nil {
			s.stats.Increment(signal.Metric())
		}
		s.logger.Info("conflicted operation finished",
			"repository", s.name,
			"signal", signal.String())
	}

	return Result{
		Repository: s.name,
		Version:    s.version,
		Status:     status,
		State:      s.state,
		Signal:     signal,
	}
}
