package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	requestID := "contract-test-run-" + time.Now().Format("20060102150405")

	sample := func(id string) domain.Snapshot {
		s := domain.NewState("quantum computing")
		s.SearchQueries = []string{"qubits", "error correction"}
		s.SearchResults = []domain.SearchResult{
			{Title: "Qubits", URL: "https://example.com/q", Content: "about qubits", Score: 0.5},
		}
		s.KeyFindings = []string{"finding"}
		s.Summary = "summary"
		s.CurrentStep = "generate_summary"
		return domain.NewSnapshot(id, s, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := sample(requestID)

		err := store.Save(ctx, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, requestID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, requestID, loaded.RequestID)
		assert.Equal(t, domain.StatusCompleted, loaded.Status)
		assert.True(t, snap.Timestamp.Equal(loaded.Timestamp))
		assert.Equal(t, snap.State.Topic, loaded.State.Topic)
		assert.Equal(t, snap.State.SearchQueries, loaded.State.SearchQueries)
		assert.Equal(t, snap.State.KeyFindings, loaded.State.KeyFindings)
		assert.Equal(t, "generate_summary", loaded.State.CurrentStep)
		require.Len(t, loaded.State.SearchResults, 1)
		assert.Equal(t, "about qubits", loaded.State.SearchResults[0].Content)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		snap := sample(requestID)
		snap.State.Summary = "second version"
		require.NoError(t, store.Save(ctx, snap))

		loaded, err := store.Load(ctx, requestID)
		require.NoError(t, err)
		assert.Equal(t, "second version", loaded.State.Summary)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+requestID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sample(requestID))
		require.NoError(t, err)

		err = store.Delete(ctx, requestID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, requestID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")

		assert.NoError(t, store.Delete(ctx, requestID), "Deleting a missing run is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := requestID + "-1"
		id2 := requestID + "-2"
		require.NoError(t, store.Save(ctx, sample(id1)))
		require.NoError(t, store.Save(ctx, sample(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
