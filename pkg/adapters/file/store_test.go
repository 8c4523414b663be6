package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/adapters/file"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	snap := domain.NewSnapshot("run-1", domain.NewState("go"), time.Now())
	require.NoError(t, store.Save(ctx, snap))

	data, err := os.ReadFile(filepath.Join(dir, "run-1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"request_id": "run-1"`)
	assert.Contains(t, string(data), `"current_step": "init"`)

	// Leftover temp files are not runs.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-run-2-123.json"), []byte("{}"), 0o644))
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1"}, ids)
}

func TestFileStore_ListsTmpLikeIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSnapshot("tmp-report", domain.NewState("go"), time.Now())))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tmp-report"}, ids)
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, file.ErrInvalidRequestID, id)
	}
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "missing"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
