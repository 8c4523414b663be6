package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Snapshot),
	}
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	// Deep copy to ensure isolation, similar to serialization
	snap.State = snap.State.Clone()
	snap.Sealed = append([]byte(nil), snap.Sealed...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[snap.RequestID] = snap
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, requestID string) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[requestID]
	if !ok {
		return domain.Snapshot{}, domain.ErrRunNotFound
	}

	// Copy on read so callers can't mutate stored slices.
	snap.State = snap.State.Clone()
	snap.Sealed = append([]byte(nil), snap.Sealed...)
	return snap, nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, requestID)
	return nil
}

// List returns stored request IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
