package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/tierone/deckhand/pkg/changes"
	"github.com/tierone/deckhand/pkg/config"
	"github.com/tierone/deckhand/pkg/logging"
	"github.com/tierone/deckhand/pkg/stats"
)

// maxRefreshAttempts bounds how often Refresh resamples after losing a race
// with another refresh of the same repository.
const maxRefreshAttempts = 3

// Sampler reads the status of the repository at path.
type Sampler interface {
	Sample(ctx context.Context, path string) (*changes.StatusResult, error)
}

// Manager coordinates refreshes of all configured repositories.
type Manager struct {
	config     *config.Config
	sampler    Sampler
	stats      *stats.Store
	logger     logging.Logger
	concurrent int

	mu     sync.Mutex
	stores map[string]*Store
}

// ManagerOption configures the manager.
type ManagerOption func(*Manager)

// WithConcurrency sets max concurrent refreshes.
func WithConcurrency(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.concurrent = n
		}
	}
}

// WithManagerStats shares a stats store across all repositories.
func WithManagerStats(st *stats.Store) ManagerOption {
	return func(m *Manager) {
		if st != nil {
			m.stats = st
		}
	}
}

// WithManagerLogger sets the logger.
func WithManagerLogger(l logging.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a manager sampling repositories with sampler.
func NewManager(cfg *config.Config, sampler Sampler, opts ...ManagerOption) *Manager {
	m := &Manager{
		config:     cfg,
		sampler:    sampler,
		stats:      stats.NewStore(),
		logger:     logging.Nop(),
		concurrent: cfg.General.Concurrency,
		stores:     make(map[string]*Store),
	}
	if m.concurrent < 1 {
		m.concurrent = config.DefaultConcurrency
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Filter defines which repositories to operate on.
type Filter struct {
	Names []string // Specific repository names
	Tags  []string // Filter by tags
	All   bool     // All repositories
}

// Stats returns the counters shared by all repositories.
func (m *Manager) Stats() *stats.Store {
	return m.stats
}

// Store returns the store of a configured repository, creating it on first
// use.
func (m *Manager) Store(name string) (*Store, error) {
	if _, ok := m.config.GetRepository(name); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRepository, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.stores[name]
	if !ok {
		s = NewStore(name,
			WithStats(m.stats),
			WithLogger(m.logger),
			WithClearPartialSelection(m.config.General.ClearPartialSelection),
		)
		m.stores[name] = s
	}
	return s, nil
}

// Refresh samples one repository and commits the reconciled state. If
// another refresh commits while this one is sampling, the repository is
// sampled again.
func (m *Manager) Refresh(ctx context.Context, name string) (Result, error) {
	repo, ok := m.config.GetRepository(name)
	if !ok {
		return Result{Repository: name}, fmt.Errorf("%w: %s", ErrUnknownRepository, name)
	}

	path, err := m.config.ResolvePath(repo)
	if err != nil {
		return Result{Repository: name}, err
	}

	store, err := m.Store(name)
	if err != nil {
		return Result{Repository: name}, err
	}

	for attempt := 1; ; attempt++ {
		_, version := store.State()

		status, err := m.sampler.Sample(ctx, path)
		if err != nil {
			return Result{Repository: name, Path: path}, fmt.Errorf("failed to sample %s: %w", name, err)
		}

		result, err := store.ApplyIfVersion(version, status)
		if err == nil {
			result.Path = path
			return result, nil
		}
		if attempt >= maxRefreshAttempts {
			return Result{Repository: name, Path: path}, fmt.Errorf("failed to refresh %s: %w", name, err)
		}
		m.logger.Debug("refresh raced, resampling", "repository", name, "attempt", attempt)
	}
}

// RefreshAll refreshes the repositories matching filter concurrently.
// Per-repository failures are reported in Result.Err.
func (m *Manager) RefreshAll(ctx context.Context, filter Filter) ([]Result, error) {
	repos, err := m.getRepositories(filter)
	if err != nil {
		return nil, err
	}

	sem := newSemaphore(m.concurrent)
	var wg sync.WaitGroup
	results := make([]Result, len(repos))

	for i, repo := range repos {
		wg.Add(1)
		go func(idx int, name string) {
			defer wg.Done()
			if err := sem.acquire(ctx); err != nil {
				results[idx] = Result{Repository: name, Err: err}
				return
			}
			defer sem.release()

			result, err := m.Refresh(ctx, name)
			result.Err = err
			results[idx] = result
		}(i, repo.Name)
	}

	wg.Wait()
	return results, nil
}

// getRepositories returns the repositories matching the filter, in config
// order.
func (m *Manager) getRepositories(filter Filter) ([]config.Repository, error) {
	if filter.All || (len(filter.Names) == 0 && len(filter.Tags) == 0) {
		return m.config.Repositories, nil
	}

	selected := make(map[string]bool)

	for _, name := range filter.Names {
		if _, ok := m.config.GetRepository(name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRepository, name)
		}
		selected[name] = true
	}

	for _, tag := range filter.Tags {
		for _, repo := range m.config.GetRepositoriesByTag(tag) {
			selected[repo.Name] = true
		}
	}

	var result []config.Repository
	for _, repo := range m.config.Repositories {
		if selected[repo.Name] {
			result = append(result, repo)
		}
	}
	return result, nil
}

// semaphore for limiting concurrent operations
type semaphore chan struct{}

func newSemaphore(n int) semaphore {
	return make(chan struct{}, n)
}

func (s semaphore) acquire(ctx context.Context) error {
	select {
	case s <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s semaphore) release() {
	<-s
}
