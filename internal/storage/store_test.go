package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "data", "travelapp.db"))
	require.NoError(t, err, "open sqlite store")
	boltStore, err := NewBoltStore(filepath.Join(dir, "data", "travelapp.bolt"))
	require.NoError(t, err, "open bolt store")

	stores := map[string]Store{
		"sqlite": sqliteStore,
		"bolt":   boltStore,
		"memory": NewMemoryStore(),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "profile")
			assert.True(t, errors.Is(err, ErrNotFound), "missing key should be ErrNotFound, got %v", err)

			require.NoError(t, s.Set(ctx, "profile", []byte(`{"id":"1"}`)))
			got, err := s.Get(ctx, "profile")
			require.NoError(t, err)
			assert.Equal(t, `{"id":"1"}`, string(got))

			// Overwrite
			require.NoError(t, s.Set(ctx, "profile", []byte(`{"id":"2"}`)))
			got, err = s.Get(ctx, "profile")
			require.NoError(t, err)
			assert.Equal(t, `{"id":"2"}`, string(got))

			require.NoError(t, s.Delete(ctx, "profile"))
			_, err = s.Get(ctx, "profile")
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting a missing key is not an error
			assert.NoError(t, s.Delete(ctx, "profile"))
		})
	}
}

func TestStoreKeysByPrefix(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"budget:t2", "budget:", "budget:unassigned", "token", "budget:t1", "budget_x"} {
				require.NoError(t, s.Set(ctx, k, []byte("1")))
			}
			keys, err := s.Keys(ctx, "budget:")
			require.NoError(t, err)
			assert.Equal(t, []string{"budget:", "budget:t1", "budget:t2", "budget:unassigned"}, keys)

			none, err := s.Keys(ctx, "zzz")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	type profile struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, SetJSON(ctx, s, "profile", profile{ID: "1", Email: "a@example.com"}))

	var got profile
	require.NoError(t, GetJSON(ctx, s, "profile", &got))
	assert.Equal(t, "a@example.com", got.Email)

	require.NoError(t, s.Set(ctx, "broken", []byte("{")))
	assert.Error(t, GetJSON(ctx, s, "broken", &got))
	assert.ErrorIs(t, GetJSON(ctx, s, "missing", &got), ErrNotFound)
}

func TestSQLiteStoreReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "travelapp.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "token", []byte("abc")))
	require.NoError(t, s.Close())

	// Migrations are idempotent on reopen
	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestSQLiteStoreRejectsMemoryPath(t *testing.T) {
	_, err := NewSQLiteStore(":memory:")
	assert.Error(t, err)
}
