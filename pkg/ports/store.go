package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// SnapshotStore defines the interface for persisting run snapshots.
// This allows for inspection of past runs and resumption of failed ones.
type SnapshotStore interface {
	// Save persists the snapshot under snapshot.RequestID, replacing any previous one.
	Save(ctx context.Context, snapshot domain.Snapshot) error

	// Load retrieves the snapshot of a run.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, requestID string) (domain.Snapshot, error)

	// Delete removes the snapshot of a run. Deleting a missing run is not an error.
	Delete(ctx context.Context, requestID string) error

	// List returns the request IDs of all stored runs.
	List(ctx context.Context) ([]string, error)
}
