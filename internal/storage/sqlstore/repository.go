// Package sqlstore implements storage.Store on a single records table, for
// PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite).
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
)

// Dialect captures the SQL differences between backends.
type Dialect struct {
	Name        string
	Placeholder func(n int) string
	Schema      string
}

var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	Schema: `
        CREATE TABLE IF NOT EXISTS records (
            collection TEXT NOT NULL,
            id         TEXT NOT NULL,
            data       JSONB NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (collection, id)
        )`,
}

var SQLite = Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	Schema: `
        CREATE TABLE IF NOT EXISTS records (
            collection TEXT NOT NULL,
            id         TEXT NOT NULL,
            data       TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (collection, id)
        )`,
}

// Repository is a thin wrapper around *sql.DB intended for dependency injection.
type Repository struct {
	DB      *sql.DB
	dialect Dialect

	insertQ string
	selectQ string
	updateQ string
	deleteQ string
	listQ   string
}

var _ storage.Store = (*Repository)(nil)

// NewRepository creates the records table if needed and prepares the queries.
func NewRepository(ctx context.Context, db *sql.DB, d Dialect) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if _, err := db.ExecContext(ctx, d.Schema); err != nil {
		return nil, fmt.Errorf("create records table (%s): %w", d.Name, err)
	}
	p := d.Placeholder
	return &Repository{
		DB:      db,
		dialect: d,
		insertQ: fmt.Sprintf(`INSERT INTO records (collection, id, data) VALUES (%s, %s, %s)
            ON CONFLICT (collection, id) DO NOTHING`, p(1), p(2), p(3)),
		selectQ: fmt.Sprintf(`SELECT data FROM records WHERE collection = %s AND id = %s`, p(1), p(2)),
		updateQ: fmt.Sprintf(`UPDATE records SET data = %s, updated_at = CURRENT_TIMESTAMP
            WHERE collection = %s AND id = %s`, p(1), p(2), p(3)),
		deleteQ: fmt.Sprintf(`DELETE FROM records WHERE collection = %s AND id = %s`, p(1), p(2)),
		listQ:   fmt.Sprintf(`SELECT id FROM records WHERE collection = %s`, p(1)),
	}, nil
}

func (r *Repository) Create(ctx context.Context, collection, id string, v any) error {
	if err := storage.ValidateKey(collection, id); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	res, err := r.DB.ExecContext(ctx, r.insertQ, collection, id, string(data))
	if err != nil {
		return fmt.Errorf("failed to insert %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrExists
	}
	return nil
}

func (r *Repository) Read(ctx context.Context, collection, id string, v any) error {
	if err := storage.ValidateKey(collection, id); err != nil {
		return err
	}
	var data []byte
	err := r.DB.QueryRowContext(ctx, r.selectQ, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s/%s: %w", collection, id, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, collection, id string, v any) error {
	if err := storage.ValidateKey(collection, id); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	res, err := r.DB.ExecContext(ctx, r.updateQ, string(data), collection, id)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, collection, id string) error {
	if err := storage.ValidateKey(collection, id); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, r.deleteQ, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, collection string) ([]string, error) {
	if err := storage.ValidateKey(collection, "list"); err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, r.listQ, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", collection, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", collection, err)
	}
	// collations differ between backends; keep byte order like the file store
	sort.Strings(ids)
	return ids, nil
}
