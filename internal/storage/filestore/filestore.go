// Package filestore keeps every record as <base>/<collection>/<id>.json.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
)

const ext = ".json"

type Store struct {
	baseDir string
}

var _ storage.Store = (*Store)(nil)

// New returns a store rooted at baseDir, creating the directory if needed.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", baseDir, err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) BaseDir() string { return s.baseDir }

func (s *Store) path(collection, id string) (string, error) {
	if err := storage.ValidateKey(collection, id); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, collection, id+ext), nil
}

// Create writes a new record and fails with storage.ErrExists if it is present.
func (s *Store) Create(_ context.Context, collection, id string, v any) error {
	p, err := s.path(collection, id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create collection %s: %w", collection, err)
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return storage.ErrExists
		}
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s/%s: %w", collection, id, err)
	}
	return f.Close()
}

func (s *Store) Read(_ context.Context, collection, id string, v any) error {
	p, err := s.path(collection, id)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("read %s/%s: %w", collection, id, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update truncates and rewrites an existing record.
func (s *Store) Update(_ context.Context, collection, id string, v any) error {
	p, err := s.path(collection, id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("open %s/%s: %w", collection, id, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s/%s: %w", collection, id, err)
	}
	return f.Close()
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	p, err := s.path(collection, id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// List returns the ids in a collection. A missing collection is empty.
func (s *Store) List(_ context.Context, collection string) ([]string, error) {
	if err := storage.ValidateKey(collection, "list"); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.baseDir, collection))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(ids)
	return ids, nil
}
