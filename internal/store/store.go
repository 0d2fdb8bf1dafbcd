// Package store holds the ordered list of tasks shown to the user.
package store

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist-go/internal/task"
)

// Fetcher reads every task from the backend.
type Fetcher interface {
	ListTasks(ctx context.Context) ([]task.Task, error)
}

// Snapshot is a consistent view of the store's observable state.
type Snapshot struct {
	Items     []task.Task
	IsLoading bool
	LastError error
}

// Store is the in-memory, insertion-ordered task list.
// It is populated by Load and grown by Append; it never reorders or deletes.
type Store struct {
	fetcher Fetcher
	logger  *log.Logger

	mu      sync.RWMutex
	items   []task.Task
	loading bool
	lastErr error
}

// New creates a store in the loading state, as it is before the first Load completes.
func New(fetcher Fetcher, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{
		fetcher: fetcher,
		logger:  logger,
		loading: true,
	}
}

// Load issues one read request. On success the contents are replaced; on
// failure LastError is set and the contents are left alone. The loading
// flag is cleared on every exit path.
func (s *Store) Load(ctx context.Context) (err error) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("load tasks: panic: %v", r)
		}
		s.mu.Lock()
		s.loading = false
		if err != nil {
			s.lastErr = err
		}
		s.mu.Unlock()
	}()

	if s.fetcher == nil {
		return fmt.Errorf("load tasks: no backend configured")
	}

	tasks, err := s.fetcher.ListTasks(ctx)
	if err != nil {
		s.logger.Error("load tasks failed", "err", err)
		return fmt.Errorf("load tasks: %w", err)
	}

	items := make([]task.Task, len(tasks))
	copy(items, tasks)

	s.mu.Lock()
	s.items = items
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Debug("tasks loaded", "count", len(items))
	return nil
}

// Append adds t to the end of the list. No validation, no deduplication.
func (s *Store) Append(t task.Task) {
	s.mu.Lock()
	s.items = append(s.items, t)
	n := len(s.items)
	s.mu.Unlock()

	s.logger.Debug("task appended", "title", t.Title, "count", n)
}

// Items returns a copy of the tasks in insertion order.
func (s *Store) Items() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]task.Task, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// IsLoading reports whether a Load is in progress or has not yet run.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError returns the error of the most recent failed Load, cleared by a
// successful one.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Snapshot returns items, loading flag and last error together.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]task.Task, len(s.items))
	copy(items, s.items)
	return Snapshot{
		Items:     items,
		IsLoading: s.loading,
		LastError: s.lastErr,
	}
}
