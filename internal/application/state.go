package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/workshop-scheduler/internal/persistence"
)

// State owns the committed snapshot and serializes every read-validate-write
// sequence. Reads observe the last committed snapshot without blocking
// writers and may be at most one write stale; a command's mutation becomes
// visible only after the snapshot store accepted the whole new snapshot.
type State struct {
	store persistence.SnapshotStore

	mu         sync.RWMutex
	snapshot   persistence.Snapshot
	generation uint64

	writeMu sync.Mutex

	lockMu        sync.Mutex
	resourceLocks map[int64]*sync.Mutex
}

// LoadState reads the full snapshot from the store and returns the committed
// state commands operate against.
func LoadState(ctx context.Context, store persistence.SnapshotStore) (*State, error) {
	if store == nil {
		return nil, fmt.Errorf("snapshot store not configured")
	}
	snapshot, err := store.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return &State{
		store:         store,
		snapshot:      snapshot,
		resourceLocks: make(map[int64]*sync.Mutex),
	}, nil
}

// View returns the committed snapshot. Callers must treat it as read-only;
// the backing slices are shared with the committed state.
func (s *State) View() persistence.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Generation returns a counter that advances on every committed write, used
// to key caches derived from the snapshot.
func (s *State) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Update applies exactly one command: fn receives the current committed
// snapshot and returns the complete successor. The successor is saved
// atomically before it replaces the committed snapshot; when the save fails
// the prior snapshot remains the system of record and the error wraps
// ErrPersistence.
func (s *State) Update(ctx context.Context, fn func(current persistence.Snapshot) (persistence.Snapshot, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next, err := fn(s.View())
	if err != nil {
		return err
	}

	if err := s.store.SaveSnapshot(ctx, next); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.mu.Lock()
	s.snapshot = next
	s.generation++
	s.mu.Unlock()
	return nil
}

// LockResources acquires the critical section of every listed resource in
// ascending id order, so a reschedule spanning two resources can never
// deadlock against another. The returned release func unlocks in reverse
// order.
func (s *State) LockResources(ids ...int64) (release func()) {
	ordered := dedupeSorted(ids)
	locks := make([]*sync.Mutex, 0, len(ordered))
	for _, id := range ordered {
		locks = append(locks, s.resourceLock(id))
	}
	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

func (s *State) resourceLock(id int64) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.resourceLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.resourceLocks[id] = lock
	}
	return lock
}

func dedupeSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
