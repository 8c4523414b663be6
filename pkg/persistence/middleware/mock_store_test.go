package middleware_test

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]domain.Snapshot
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.Snapshot),
	}
}

func (s *MockStore) Save(ctx context.Context, snap domain.Snapshot) error {
	s.data[snap.RequestID] = snap
	return nil
}

func (s *MockStore) Load(ctx context.Context, requestID string) (domain.Snapshot, error) {
	snap, ok := s.data[requestID]
	if !ok {
		return domain.Snapshot{}, domain.ErrRunNotFound
	}
	return snap, nil
}

func (s *MockStore) Delete(ctx context.Context, requestID string) error {
	delete(s.data, requestID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.SnapshotStore = (*MockStore)(nil)
