package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileStore_SetGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	store, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()

	_, err = store.Get(ctx, KeyCart)
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, KeyCart, []byte(`[{"id":1}]`)))

	value, err := store.Get(ctx, KeyCart)
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":1}]`, string(value))

	require.NoError(t, store.Delete(ctx, KeyCart))
	_, err = store.Get(ctx, KeyCart)
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Delete(ctx, KeyCart), "deleting a missing key is a no-op")
}

func TestFileStore_RejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	store, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)

	err = store.Set(context.Background(), KeyCart, []byte("{broken"))
	require.Error(t, err)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	ctx := context.Background()

	store, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyWishlist, []byte(`[{"id":12}]`)))

	reopened, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)

	value, err := reopened.Get(ctx, KeyWishlist)
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":12}]`, string(value))
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("this is not json"), 0o644))

	store, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err, "corruption recovers, never crashes")

	ctx := context.Background()
	_, err = store.Get(ctx, KeyCart)
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, KeyCart, []byte(`[]`)))
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	value := []byte(`{"a":1}`)
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'X'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"a":1}`), got, "stored value must not alias the caller's slice")

	got[0] = 'Y'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"a":1}`), again)
}
