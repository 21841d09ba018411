// Package menu serves the read-only pizza menu stored as a single record.
package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/apperr"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/authz"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
)

// RecordID is the id of the shared menu record.
const RecordID = "items"

type Item struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ErrNoMenu is returned when the menu record has not been provisioned.
var ErrNoMenu = errors.New("menu not provisioned")

type Service struct {
	store    storage.Store
	verifier authz.Verifier
	logger   *log.Logger
}

func NewService(store storage.Store, verifier authz.Verifier, logger *log.Logger) *Service {
	return &Service{store: store, verifier: verifier, logger: logger}
}

// List returns the menu to an authenticated user.
func (s *Service) List(ctx context.Context, token, email string) ([]Item, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.BadRequest("Missing required fields")
	}
	if err := authz.Check(ctx, s.verifier, s.logger, token, email); err != nil {
		return nil, err
	}
	items, err := s.Items(ctx)
	if err != nil {
		if errors.Is(err, ErrNoMenu) {
			return nil, apperr.BadRequest("The menu doesn't exist")
		}
		return nil, apperr.Internal("Could not read the menu", err)
	}
	return items, nil
}

// Items reads the whole menu without authorization.
func (s *Service) Items(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := s.store.Read(ctx, storage.Menu, RecordID, &items); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoMenu
		}
		return nil, err
	}
	return items, nil
}

// Find looks an item up by id.
func (s *Service) Find(ctx context.Context, id string) (Item, bool, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return Item{}, false, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, true, nil
		}
	}
	return Item{}, false, nil
}

// Seed provisions the menu from a JSON file when no menu exists yet.
func (s *Service) Seed(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read menu seed %s: %w", path, err)
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decode menu seed %s: %w", path, err)
	}
	if err := s.store.Create(ctx, storage.Menu, RecordID, items); err != nil {
		if errors.Is(err, storage.ErrExists) {
			s.logger.Printf("[Menu] menu already provisioned; seed %s skipped", path)
			return nil
		}
		return fmt.Errorf("store menu: %w", err)
	}
	s.logger.Printf("[Menu] seeded %d items from %s", len(items), path)
	return nil
}
