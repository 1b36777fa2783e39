// Package recordtest holds the behavior shared by every record.Store.
package recordtest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/record"
)

const kind = "contract_record"

// RunStoreContract verifies that store adheres to the record.Store contract.
// Values are compared as strings and bools, which every backend round-trips unchanged.
func RunStoreContract(t *testing.T, store record.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		id := uuid.NewString()
		err := store.Save(ctx, kind, id, map[string]any{"status": "open", "title": "first", "archived": false})
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, kind, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "open", loaded["status"])
		assert.Equal(t, "first", loaded["title"])
		assert.Equal(t, false, loaded["archived"])
	})

	t.Run("Save replaces attributes", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, store.Save(ctx, kind, id, map[string]any{"status": "open", "note": "x"}))
		require.NoError(t, store.Save(ctx, kind, id, map[string]any{"status": "closed"}))

		loaded, err := store.Load(ctx, kind, id)
		require.NoError(t, err)
		assert.Equal(t, "closed", loaded["status"])
		assert.NotContains(t, loaded, "note")
	})

	t.Run("UpdateFields changes only the given keys", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, store.Save(ctx, kind, id, map[string]any{"status": "open", "title": "first"}))

		require.NoError(t, store.UpdateFields(ctx, kind, id, map[string]any{"status": "closed"}))

		loaded, err := store.Load(ctx, kind, id)
		require.NoError(t, err)
		assert.Equal(t, "closed", loaded["status"])
		assert.Equal(t, "first", loaded["title"], "untouched attributes keep their persisted value")
	})

	t.Run("UpdateFields on missing record", func(t *testing.T) {
		err := store.UpdateFields(ctx, kind, "missing-"+uuid.NewString(), map[string]any{"status": "closed"})
		assert.ErrorIs(t, err, record.ErrNotFound)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, kind, "missing-"+uuid.NewString())
		assert.ErrorIs(t, err, record.ErrNotFound)
	})

	t.Run("Kinds are isolated", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, store.Save(ctx, kind, id, map[string]any{"status": "open"}))

		_, err := store.Load(ctx, kind+"_other", id)
		assert.ErrorIs(t, err, record.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, store.Save(ctx, kind, id, map[string]any{"status": "open"}))

		require.NoError(t, store.Delete(ctx, kind, id), "Delete should not return error")

		_, err := store.Load(ctx, kind, id)
		assert.ErrorIs(t, err, record.ErrNotFound, "Load after Delete should return ErrNotFound")
		assert.ErrorIs(t, store.Delete(ctx, kind, id), record.ErrNotFound)
	})

	t.Run("Canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := store.Save(cctx, kind, uuid.NewString(), map[string]any{"status": "open"})
		assert.Error(t, err)
	})
}
