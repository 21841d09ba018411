// Package storage defines the record store shared by every resource: one JSON
// document per (collection, id) pair.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrExists     = errors.New("record already exists")
	ErrInvalidKey = errors.New("invalid record key")
)

// Collections used by the service.
const (
	Users  = "users"
	Tokens = "tokens"
	Menu   = "menu"
	Carts  = "carts"
	Orders = "orders"
)

// Store persists whole JSON documents. Values passed to Create and Update are
// marshalled with encoding/json; Read unmarshals into v.
type Store interface {
	Create(ctx context.Context, collection, id string, v any) error
	Read(ctx context.Context, collection, id string, v any) error
	Update(ctx context.Context, collection, id string, v any) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]string, error)
}

// ValidateKey rejects empty keys and keys that could escape a collection.
func ValidateKey(collection, id string) error {
	for _, part := range []string{collection, id} {
		if part == "" || part == "." || part == ".." ||
			strings.ContainsAny(part, `/\`) || strings.ContainsRune(part, 0) {
			return fmt.Errorf("%w: %q/%q", ErrInvalidKey, collection, id)
		}
	}
	return nil
}

// KeyedMutex serializes read-modify-write cycles on a single record within
// this process. Entries are reference counted and dropped when unused.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the lock for key and returns its release function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
