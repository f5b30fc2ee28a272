package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glucose-dashboard/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewFileStore(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store)
}

func TestSetAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Set(ctx, "history", []byte(`[{"value":110}]`))
	require.NoError(t, err)

	value, err := store.Get(ctx, "history")
	require.NoError(t, err)
	assert.Equal(t, `[{"value":110}]`, string(value))
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nonexistent")
	assert.True(t, storage.IsNotFound(err))
}

func TestLastWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.Set(ctx, "danger", []byte("v1"))
	_ = store.Set(ctx, "danger", []byte("v2"))

	value, err := store.Get(ctx, "danger")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(value))
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.Set(ctx, "danger", []byte("v1"))
	require.NoError(t, store.Delete(ctx, "danger"))

	_, err := store.Get(ctx, "danger")
	assert.True(t, storage.IsNotFound(err))
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	first, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "history", []byte("[1]")))
	require.NoError(t, first.Close())

	second, err := NewFileStore(path)
	require.NoError(t, err)
	defer second.Close()

	value, err := second.Get(ctx, "history")
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(value))
}

func TestClosedStoreErrors(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Get(context.Background(), "history")
	assert.Error(t, err)
	assert.False(t, storage.IsNotFound(err))
}
