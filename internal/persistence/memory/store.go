// Package memory provides an in-process SnapshotStore. It backs tests and
// can run the application without a database file.
package memory

import (
	"context"
	"sync"

	"github.com/example/workshop-scheduler/internal/persistence"
)

// Store holds a single snapshot behind a mutex. Load and Save both deep-copy
// so callers can never mutate the stored state through a shared slice.
type Store struct {
	mu       sync.Mutex
	snapshot persistence.Snapshot

	// saveErr, when set, makes the next SaveSnapshot fail. Tests use this
	// to verify callers roll back on persistence failure.
	saveErr error
}

// NewStore returns a store seeded with the given snapshot.
func NewStore(seed persistence.Snapshot) *Store {
	return &Store{snapshot: seed.Clone()}
}

// LoadSnapshot returns a deep copy of the stored state.
func (s *Store) LoadSnapshot(ctx context.Context) (persistence.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return persistence.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone(), nil
}

// SaveSnapshot replaces the stored state with a deep copy of snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot persistence.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		err := s.saveErr
		s.saveErr = nil
		return err
	}
	s.snapshot = snapshot.Clone()
	return nil
}

// FailNextSave arranges for the next SaveSnapshot call to return err.
func (s *Store) FailNextSave(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}
