// Package cart keeps one shopping cart per user: an ordered list of menu
// items where duplicates represent quantity.
package cart

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/apperr"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/authz"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/menu"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
)

// Line groups identical cart items.
type Line struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
}

// Summary is a grouped view of a cart.
type Summary struct {
	Lines         []Line  `json:"lines"`
	TotalQuantity int     `json:"totalQuantity"`
	TotalAmount   float64 `json:"totalAmount"`
}

type Service struct {
	store    storage.Store
	menu     *menu.Service
	verifier authz.Verifier
	logger   *log.Logger
	locks    *storage.KeyedMutex
}

func NewService(store storage.Store, menuSvc *menu.Service, verifier authz.Verifier, logger *log.Logger) *Service {
	return &Service{
		store:    store,
		menu:     menuSvc,
		verifier: verifier,
		logger:   logger,
		locks:    storage.NewKeyedMutex(),
	}
}

// Get returns the caller's cart.
func (s *Service) Get(ctx context.Context, token, email string) ([]menu.Item, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.BadRequest("Missing required fields")
	}
	if err := authz.Check(ctx, s.verifier, s.logger, token, email); err != nil {
		return nil, err
	}
	items, err := s.Items(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.BadRequest("The cart doesn't exist")
		}
		return nil, apperr.Internal("Could not read the cart", err)
	}
	return items, nil
}

// Items reads a cart without authorization. A missing cart is
// storage.ErrNotFound.
func (s *Service) Items(ctx context.Context, email string) ([]menu.Item, error) {
	var items []menu.Item
	if err := s.store.Read(ctx, storage.Carts, email, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []menu.Item{}
	}
	return items, nil
}

// Add appends a menu item to the caller's cart, creating the cart on first use.
func (s *Service) Add(ctx context.Context, token, email, itemID string) (menu.Item, error) {
	email = strings.TrimSpace(email)
	itemID = strings.TrimSpace(itemID)
	if email == "" || itemID == "" {
		return menu.Item{}, apperr.BadRequest("Missing required fields")
	}
	if err := authz.Check(ctx, s.verifier, s.logger, token, email); err != nil {
		return menu.Item{}, err
	}

	item, ok, err := s.menu.Find(ctx, itemID)
	if err != nil && !errors.Is(err, menu.ErrNoMenu) {
		return menu.Item{}, apperr.Internal("Could not read the menu", err)
	}
	if !ok {
		return menu.Item{}, apperr.BadRequest("The item doesn't exist")
	}

	unlock := s.locks.Lock(email)
	defer unlock()

	items, err := s.Items(ctx, email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if err := s.store.Create(ctx, storage.Carts, email, []menu.Item{item}); err != nil {
			return menu.Item{}, apperr.Internal("Could not add the item to the cart", err)
		}
	case err != nil:
		return menu.Item{}, apperr.Internal("Could not read the cart", err)
	default:
		items = append(items, item)
		if err := s.store.Update(ctx, storage.Carts, email, items); err != nil {
			return menu.Item{}, apperr.Internal("Could not update the cart with the new item", err)
		}
	}
	s.logger.Printf("[Cart %s] added item %s (%s, %.2f)", email, item.ID, item.Name, item.Price)
	return item, nil
}

// Remove drops the first cart entry with itemID.
func (s *Service) Remove(ctx context.Context, token, email, itemID string) (menu.Item, error) {
	email = strings.TrimSpace(email)
	itemID = strings.TrimSpace(itemID)
	if email == "" || itemID == "" {
		return menu.Item{}, apperr.BadRequest("Missing required fields")
	}
	if err := authz.Check(ctx, s.verifier, s.logger, token, email); err != nil {
		return menu.Item{}, err
	}

	unlock := s.locks.Lock(email)
	defer unlock()

	items, err := s.Items(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return menu.Item{}, apperr.BadRequest("The user doesn't have a shopping cart yet")
		}
		return menu.Item{}, apperr.Internal("Could not read the cart", err)
	}

	idx := -1
	for i, it := range items {
		if it.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return menu.Item{}, apperr.BadRequest("The user doesn't have the item in their cart yet")
	}
	removed := items[idx]
	items = append(items[:idx], items[idx+1:]...)

	if err := s.store.Update(ctx, storage.Carts, email, items); err != nil {
		return menu.Item{}, apperr.Internal("Could not delete the item", err)
	}
	s.logger.Printf("[Cart %s] removed item %s", email, removed.ID)
	return removed, nil
}

// TotalCents is the cart total in the smallest currency unit.
func TotalCents(items []menu.Item) int64 {
	var total int64
	for _, it := range items {
		total += int64(math.Round(it.Price * 100))
	}
	return total
}

// Summarize groups a cart by item id, ordered by first appearance.
func Summarize(items []menu.Item) Summary {
	var sum Summary
	index := map[string]int{}
	for _, it := range items {
		i, ok := index[it.ID]
		if !ok {
			i = len(sum.Lines)
			index[it.ID] = i
			sum.Lines = append(sum.Lines, Line{ItemID: it.ID, Name: it.Name, Price: it.Price})
		}
		sum.Lines[i].Quantity++
		sum.TotalQuantity++
	}
	var cents int64
	for i := range sum.Lines {
		lineCents := int64(math.Round(sum.Lines[i].Price*100)) * int64(sum.Lines[i].Quantity)
		sum.Lines[i].Total = float64(lineCents) / 100
		cents += lineCents
	}
	sum.TotalAmount = float64(cents) / 100
	return sum
}
