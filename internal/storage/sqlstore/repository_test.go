package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage/sqlite"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := sqlite.OpenDatabase(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewRepository(context.Background(), db, SQLite)
	require.NoError(t, err)
	return repo
}

func TestSQLiteRepositoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		return newSQLiteRepo(t)
	})
}

func TestNewRepositoryIsIdempotent(t *testing.T) {
	repo := newSQLiteRepo(t)
	_, err := NewRepository(context.Background(), repo.DB, SQLite)
	require.NoError(t, err)
}

func TestNewRepositoryRequiresDB(t *testing.T) {
	_, err := NewRepository(context.Background(), nil, SQLite)
	require.Error(t, err)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$3", Postgres.Placeholder(3))
	assert.Equal(t, "?", SQLite.Placeholder(3))
}
