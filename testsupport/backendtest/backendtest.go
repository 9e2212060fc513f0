// Package backendtest holds the behavior every storage backend must show.
//
//nolint:funlen // ok for test code
package backendtest

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/swimprotocol/pkg/storage"
)

// Run exercises b. The backend must be empty.
func Run(t *testing.T, b storage.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("get unknown", func(t *testing.T) {
		_, err := b.Get(ctx, "unknown")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("put and get", func(t *testing.T) {
		require.NoError(t, b.Put(ctx, "c-1", []byte(`{"v":1}`)))
		got, err := b.Get(ctx, "c-1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":1}`, string(got))
	})

	t.Run("put replaces", func(t *testing.T) {
		require.NoError(t, b.Put(ctx, "c-1", []byte(`{"v":2}`)))
		got, err := b.Get(ctx, "c-1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(got))
	})

	t.Run("keys", func(t *testing.T) {
		require.NoError(t, b.Put(ctx, "c-2", []byte(`{"v":3}`)))
		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		sort.Strings(keys)
		assert.Equal(t, []string{"c-1", "c-2"}, keys)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, b.Delete(ctx, "c-1"))
		_, err := b.Get(ctx, "c-1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		require.NoError(t, b.Delete(ctx, "c-1"), "delete must be idempotent")

		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"c-2"}, keys)
	})

	t.Run("delete all", func(t *testing.T) {
		require.NoError(t, b.Delete(ctx, "c-2"))
		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}
