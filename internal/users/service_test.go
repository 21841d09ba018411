package users

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/apperr"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/auth"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/authz"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/events"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, topic, key string, evt events.Envelope) error {
	return m.Called(topic, key, evt.EventType).Error(0)
}

type fixture struct {
	store  storage.Store
	tokens *auth.TokenService
	pub    *mockPublisher
	svc    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	logger := log.New(io.Discard, "", 0)
	hasher := auth.NewHasher("secret")
	tokens := auth.NewTokenService(store, hasher, time.Hour, logger)
	pub := &mockPublisher{}
	return &fixture{
		store:  store,
		tokens: tokens,
		pub:    pub,
		svc:    NewService(store, hasher, tokens, pub, "users.v1", logger),
	}
}

func validFields() Fields {
	return Fields{
		FirstName:     "Ann",
		LastName:      "Lee",
		Email:         "ann@x.com",
		Password:      "pw",
		StreetAddress: "1 Main St",
	}
}

func (f *fixture) signUp(t *testing.T) string {
	t.Helper()
	f.pub.On("Publish", "users.v1", "ann@x.com", events.UserCreated).Return(nil).Once()
	require.NoError(t, f.svc.Create(context.Background(), validFields()))
	tok, err := f.tokens.Create(context.Background(), "ann@x.com", "pw")
	require.NoError(t, err)
	return tok.ID
}

func TestCreateStoresHashedUser(t *testing.T) {
	f := newFixture(t)
	f.pub.On("Publish", "users.v1", "ann@x.com", events.UserCreated).Return(nil).Once()

	in := validFields()
	in.FirstName = "  Ann  "
	require.NoError(t, f.svc.Create(context.Background(), in))

	var stored User
	require.NoError(t, f.store.Read(context.Background(), storage.Users, "ann@x.com", &stored))
	assert.Equal(t, "Ann", stored.FirstName)
	assert.NotEqual(t, "pw", stored.HashedPassword)
	assert.True(t, auth.NewHasher("secret").Matches("pw", stored.HashedPassword))
	f.pub.AssertExpectations(t)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, mutate := range []func(*Fields){
		func(in *Fields) { in.FirstName = " " },
		func(in *Fields) { in.LastName = "" },
		func(in *Fields) { in.Password = "" },
		func(in *Fields) { in.Email = "" },
		func(in *Fields) { in.StreetAddress = "" },
	} {
		in := validFields()
		mutate(&in)
		assert.EqualError(t, f.svc.Create(ctx, in), "Missing required fields")
	}
}

func TestCreateDuplicate(t *testing.T) {
	f := newFixture(t)
	f.signUp(t)
	assert.EqualError(t, f.svc.Create(context.Background(), validFields()), "A user with that email already exists")
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t)
	f.pub.On("Publish", "users.v1", "ann@x.com", events.UserCreated).Return(errors.New("kafka down")).Once()
	assert.NoError(t, f.svc.Create(context.Background(), validFields()))
}

func TestGetOmitsHash(t *testing.T) {
	f := newFixture(t)
	token := f.signUp(t)

	p, err := f.svc.Get(context.Background(), token, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, Profile{FirstName: "Ann", LastName: "Lee", Email: "ann@x.com", StreetAddress: "1 Main St"}, p)

	_, err = f.svc.Get(context.Background(), "", "ann@x.com")
	code, msg := apperr.StatusAndMessage(err)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, authz.ForbiddenMessage, msg)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	token := f.signUp(t)
	ctx := context.Background()

	assert.EqualError(t, f.svc.Update(ctx, token, Fields{}), "Missing required fields")
	assert.EqualError(t, f.svc.Update(ctx, token, Fields{Email: "ann@x.com"}), "Missing fields to update")

	err := f.svc.Update(ctx, "wrongtokenwrongtoken", Fields{Email: "ann@x.com", LastName: "Kim"})
	code, _ := apperr.StatusAndMessage(err)
	assert.Equal(t, http.StatusForbidden, code)

	require.NoError(t, f.svc.Update(ctx, token, Fields{Email: "ann@x.com", StreetAddress: "2 Side St", Password: "new"}))

	var stored User
	require.NoError(t, f.store.Read(ctx, storage.Users, "ann@x.com", &stored))
	assert.Equal(t, "2 Side St", stored.StreetAddress)
	assert.Equal(t, "Lee", stored.LastName)

	_, err = f.tokens.Create(ctx, "ann@x.com", "new")
	assert.NoError(t, err)
}

func TestDeleteRemovesUserTokenAndCart(t *testing.T) {
	f := newFixture(t)
	token := f.signUp(t)
	ctx := context.Background()
	require.NoError(t, f.store.Create(ctx, storage.Carts, "ann@x.com", []any{}))

	require.NoError(t, f.svc.Delete(ctx, token, "ann@x.com"))

	var u User
	assert.ErrorIs(t, f.store.Read(ctx, storage.Users, "ann@x.com", &u), storage.ErrNotFound)
	var cart []any
	assert.ErrorIs(t, f.store.Read(ctx, storage.Carts, "ann@x.com", &cart), storage.ErrNotFound)
	_, err := f.tokens.Get(ctx, token)
	code, _ := apperr.StatusAndMessage(err)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeleteRequiresEmailAndToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.EqualError(t, f.svc.Delete(ctx, "x", " "), "Missing required field")

	err := f.svc.Delete(ctx, "", "ann@x.com")
	code, _ := apperr.StatusAndMessage(err)
	assert.Equal(t, http.StatusForbidden, code)
}
