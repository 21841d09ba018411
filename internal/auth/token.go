package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/apperr"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
)

// TokenIDLength is the length of every token id.
const TokenIDLength = 20

// Token is a bearer credential bound to one email. Expires is in epoch
// milliseconds.
type Token struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Expires int64  `json:"expires"`
}

// credentials is the slice of the user record the token service needs.
type credentials struct {
	HashedPassword string `json:"hashedPassword"`
}

// TokenService creates, reads, extends and deletes session tokens.
type TokenService struct {
	store  storage.Store
	hasher Hasher
	ttl    time.Duration
	logger *log.Logger
	locks  *storage.KeyedMutex

	// Now is the clock used for expiry; tests replace it.
	Now func() time.Time
}

func NewTokenService(store storage.Store, hasher Hasher, ttl time.Duration, logger *log.Logger) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = log.Default()
	}
	return &TokenService{
		store:  store,
		hasher: hasher,
		ttl:    ttl,
		logger: logger,
		locks:  storage.NewKeyedMutex(),
		Now:    time.Now,
	}
}

func (s *TokenService) expiry() int64 {
	return s.Now().Add(s.ttl).UnixMilli()
}

// NormalizeID trims id and reports whether it has the token id length.
func NormalizeID(id string) (string, bool) {
	id = strings.TrimSpace(id)
	return id, len(id) == TokenIDLength
}

// Create logs a user in and stores a new token for them.
func (s *TokenService) Create(ctx context.Context, email, password string) (Token, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return Token{}, apperr.BadRequest("Missing required fields")
	}

	var creds credentials
	if err := s.store.Read(ctx, storage.Users, email, &creds); err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return Token{}, apperr.BadRequest("Could not find the specified user")
		}
		return Token{}, apperr.Internal("Could not find the specified user", err)
	}
	if !s.hasher.Matches(password, creds.HashedPassword) {
		return Token{}, apperr.BadRequest("Password did not match the specified user's stored password")
	}

	id, err := RandomString(TokenIDLength)
	if err != nil {
		return Token{}, apperr.Internal("Could not create the new token", err)
	}
	tok := Token{ID: id, Email: email, Expires: s.expiry()}
	if err := s.store.Create(ctx, storage.Tokens, id, tok); err != nil {
		return Token{}, apperr.Internal("Could not create the new token", err)
	}
	s.logger.Printf("[Tokens] issued token for %s", email)
	return tok, nil
}

// Get returns a stored token, expired or not.
func (s *TokenService) Get(ctx context.Context, id string) (Token, error) {
	id, ok := NormalizeID(id)
	if !ok {
		return Token{}, apperr.BadRequest("Missing required field")
	}
	var tok Token
	if err := s.store.Read(ctx, storage.Tokens, id, &tok); err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return Token{}, apperr.NotFound("")
		}
		return Token{}, apperr.Internal("Could not read the token", err)
	}
	return tok, nil
}

// Extend pushes a live token's expiry to one TTL from now.
func (s *TokenService) Extend(ctx context.Context, id string, extend bool) (Token, error) {
	id, ok := NormalizeID(id)
	if !ok || !extend {
		return Token{}, apperr.BadRequest("Missing required field(s) or field(s) are invalid")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var tok Token
	if err := s.store.Read(ctx, storage.Tokens, id, &tok); err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return Token{}, apperr.BadRequest("Specified token does not exist")
		}
		return Token{}, apperr.Internal("Could not read the token", err)
	}
	if tok.Expires <= s.Now().UnixMilli() {
		return Token{}, apperr.BadRequest("The token has already expired, and cannot be extended")
	}

	tok.Expires = s.expiry()
	if err := s.store.Update(ctx, storage.Tokens, id, tok); err != nil {
		return Token{}, apperr.Internal("Could not update the token's expiration", err)
	}
	return tok, nil
}

// Delete removes a token (log out).
func (s *TokenService) Delete(ctx context.Context, id string) error {
	id, ok := NormalizeID(id)
	if !ok {
		return apperr.BadRequest("Missing required field")
	}
	if err := s.store.Delete(ctx, storage.Tokens, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return apperr.BadRequest("Could not find the specified token")
		}
		return apperr.Internal("Could not delete the specified token", err)
	}
	return nil
}

// Verify reports whether id names a live token issued to email.
func (s *TokenService) Verify(ctx context.Context, id, email string) (bool, error) {
	if id == "" || email == "" {
		return false, nil
	}
	var tok Token
	if err := s.store.Read(ctx, storage.Tokens, id, &tok); err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return false, nil
		}
		return false, err
	}
	return tok.Email == email && tok.Expires > s.Now().UnixMilli(), nil
}
