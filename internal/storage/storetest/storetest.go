// Package storetest holds the behaviour every storage.Store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	ctx := context.Background()

	t.Run("create then read", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, "things", "a", record{Name: "a", Count: 1}))

		var got record
		require.NoError(t, s.Read(ctx, "things", "a", &got))
		assert.Equal(t, record{Name: "a", Count: 1}, got)
	})

	t.Run("create existing fails", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, "things", "a", record{Name: "a"}))
		assert.ErrorIs(t, s.Create(ctx, "things", "a", record{Name: "b"}), storage.ErrExists)

		var got record
		require.NoError(t, s.Read(ctx, "things", "a", &got))
		assert.Equal(t, "a", got.Name)
	})

	t.Run("read missing", func(t *testing.T) {
		s := newStore(t)
		var got record
		assert.ErrorIs(t, s.Read(ctx, "things", "nope", &got), storage.ErrNotFound)
	})

	t.Run("update replaces whole record", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, "things", "a", record{Name: "a long original name", Count: 7}))
		require.NoError(t, s.Update(ctx, "things", "a", record{Name: "b"}))

		var got record
		require.NoError(t, s.Read(ctx, "things", "a", &got))
		assert.Equal(t, record{Name: "b"}, got)
	})

	t.Run("update missing", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.Update(ctx, "things", "nope", record{}), storage.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, "things", "a", record{}))
		require.NoError(t, s.Delete(ctx, "things", "a"))
		assert.ErrorIs(t, s.Delete(ctx, "things", "a"), storage.ErrNotFound)

		var got record
		assert.ErrorIs(t, s.Read(ctx, "things", "a", &got), storage.ErrNotFound)
	})

	t.Run("list is sorted and scoped to collection", func(t *testing.T) {
		s := newStore(t)
		ids, err := s.List(ctx, "things")
		require.NoError(t, err)
		assert.Empty(t, ids)

		for _, id := range []string{"c@x.com", "a@x.com", "b@x.com"} {
			require.NoError(t, s.Create(ctx, "things", id, record{Name: id}))
		}
		require.NoError(t, s.Create(ctx, "others", "z", record{}))

		ids, err = s.List(ctx, "things")
		require.NoError(t, err)
		assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com"}, ids)
	})

	t.Run("invalid keys", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.Create(ctx, "things", "../escape", record{}), storage.ErrInvalidKey)
		var got record
		assert.ErrorIs(t, s.Read(ctx, "things", "", &got), storage.ErrInvalidKey)
	})
}
