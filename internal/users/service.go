// Package users manages customer accounts keyed by email.
package users

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/apperr"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/auth"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/authz"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/events"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
)

// User is the stored account record.
type User struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	HashedPassword string `json:"hashedPassword"`
	StreetAddress  string `json:"streetAddress"`
}

// Profile is a user without the password hash.
type Profile struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	StreetAddress string `json:"streetAddress"`
}

func (u User) Profile() Profile {
	return Profile{
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		StreetAddress: u.StreetAddress,
	}
}

// Fields carries the account fields of a create or update request.
// Empty strings mean "not provided".
type Fields struct {
	FirstName     string
	LastName      string
	Email         string
	Password      string
	StreetAddress string
}

func (f Fields) trimmed() Fields {
	return Fields{
		FirstName:     strings.TrimSpace(f.FirstName),
		LastName:      strings.TrimSpace(f.LastName),
		Email:         strings.TrimSpace(f.Email),
		Password:      strings.TrimSpace(f.Password),
		StreetAddress: strings.TrimSpace(f.StreetAddress),
	}
}

type Service struct {
	store     storage.Store
	hasher    auth.Hasher
	tokens    *auth.TokenService
	publisher events.Publisher
	topic     string
	logger    *log.Logger
	locks     *storage.KeyedMutex
}

func NewService(store storage.Store, hasher auth.Hasher, tokens *auth.TokenService, publisher events.Publisher, topic string, logger *log.Logger) *Service {
	if publisher == nil {
		publisher = events.LogPublisher{Logger: logger}
	}
	return &Service{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		publisher: publisher,
		topic:     topic,
		logger:    logger,
		locks:     storage.NewKeyedMutex(),
	}
}

// Create registers a new account. All fields are required.
func (s *Service) Create(ctx context.Context, in Fields) error {
	in = in.trimmed()
	if in.FirstName == "" || in.LastName == "" || in.Password == "" || in.Email == "" || in.StreetAddress == "" {
		return apperr.BadRequest("Missing required fields")
	}
	if err := storage.ValidateKey(storage.Users, in.Email); err != nil {
		return apperr.BadRequest("Missing required fields")
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return apperr.Internal("Could not hash the user's password", err)
	}
	user := User{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		HashedPassword: hashed,
		StreetAddress:  in.StreetAddress,
	}
	if err := s.store.Create(ctx, storage.Users, in.Email, user); err != nil {
		if errors.Is(err, storage.ErrExists) {
			return apperr.BadRequest("A user with that email already exists")
		}
		return apperr.Internal("Could not create new user", err)
	}
	s.logger.Printf("[Users] created %s", in.Email)

	evt := events.NewEnvelope(events.UserCreated, in.Email, user.Profile())
	if err := s.publisher.Publish(ctx, s.topic, in.Email, evt); err != nil {
		s.logger.Printf("[Users] warning: publish %s for %s: %v", events.UserCreated, in.Email, err)
	}
	return nil
}

// Get returns the caller's own profile.
func (s *Service) Get(ctx context.Context, token, email string) (Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Profile{}, apperr.BadRequest("Missing required field")
	}
	if err := authz.Check(ctx, s.tokens, s.logger, token, email); err != nil {
		return Profile{}, err
	}
	user, err := s.read(ctx, email)
	if err != nil {
		return Profile{}, err
	}
	return user.Profile(), nil
}

// Update changes any provided optional field of the caller's account.
func (s *Service) Update(ctx context.Context, token string, in Fields) error {
	in = in.trimmed()
	if in.Email == "" {
		return apperr.BadRequest("Missing required fields")
	}
	if in.FirstName == "" && in.LastName == "" && in.Password == "" && in.StreetAddress == "" {
		return apperr.BadRequest("Missing fields to update")
	}
	if err := authz.Check(ctx, s.tokens, s.logger, token, in.Email); err != nil {
		return err
	}

	unlock := s.locks.Lock(in.Email)
	defer unlock()

	user, err := s.read(ctx, in.Email)
	if err != nil {
		return err
	}
	if in.FirstName != "" {
		user.FirstName = in.FirstName
	}
	if in.LastName != "" {
		user.LastName = in.LastName
	}
	if in.Password != "" {
		hashed, err := s.hasher.Hash(in.Password)
		if err != nil {
			return apperr.Internal("Could not hash the user's password", err)
		}
		user.HashedPassword = hashed
	}
	if in.StreetAddress != "" {
		user.StreetAddress = in.StreetAddress
	}

	if err := s.store.Update(ctx, storage.Users, in.Email, user); err != nil {
		return apperr.Internal("Could not update the user", err)
	}
	return nil
}

// Delete removes the account, the token used for the call and any cart.
func (s *Service) Delete(ctx context.Context, token, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.BadRequest("Missing required field")
	}
	if err := authz.Check(ctx, s.tokens, s.logger, token, email); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, storage.Users, email); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.BadRequest("Could not find the specified user")
		}
		return apperr.Internal("Could not delete the specified user", err)
	}
	if err := s.store.Delete(ctx, storage.Carts, email); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Printf("[Users] warning: could not delete cart of %s: %v", email, err)
	}
	s.logger.Printf("[Users] deleted %s", email)
	return s.tokens.Delete(ctx, token)
}

func (s *Service) read(ctx context.Context, email string) (User, error) {
	var user User
	if err := s.store.Read(ctx, storage.Users, email, &user); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, apperr.BadRequest("The specified user does not exist")
		}
		return User{}, apperr.Internal("Could not read the user", err)
	}
	return user, nil
}
