// Package backend opens the record store selected by configuration.
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/config"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage/filestore"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage/postgres"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage/sqlite"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage/sqlstore"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the store and a closer for any underlying connection pool.
func Open(ctx context.Context, cfg config.StoreConfig, logger *log.Logger) (storage.Store, io.Closer, error) {
	switch cfg.Driver {
	case "", config.DriverFile:
		s, err := filestore.New(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Printf("[Store] using JSON files under %s", s.BaseDir())
		return s, nopCloser{}, nil
	case config.DriverPostgres:
		logger.Printf("[Store] connecting to PostgreSQL database %s@%s:%d", cfg.Database.Database, cfg.Database.Host, cfg.Database.Port)
		db, err := postgres.OpenDatabase(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return withRepository(ctx, db, sqlstore.Postgres)
	case config.DriverSQLite:
		logger.Printf("[Store] using SQLite database %s", cfg.SQLitePath)
		db, err := sqlite.OpenDatabase(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return withRepository(ctx, db, sqlstore.SQLite)
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func withRepository(ctx context.Context, db *sql.DB, d sqlstore.Dialect) (storage.Store, io.Closer, error) {
	repo, err := sqlstore.NewRepository(ctx, db, d)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repo, db, nil
}
