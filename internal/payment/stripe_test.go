package payment

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIntentSendsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "sk_test", user)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "1950", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "card", r.PostForm.Get("payment_method_types[]"))
		assert.Equal(t, "ann@x.com", r.PostForm.Get("receipt_email"))
		assert.Equal(t, "true", r.PostForm.Get("confirm"))
		assert.Equal(t, "pm_card_visa", r.PostForm.Get("payment_method"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","status":"succeeded","amount":1950,"currency":"usd","object":"payment_intent"}`))
	}))
	defer srv.Close()

	c := NewStripeClient(srv.URL+"/", "sk_test", "", log.New(io.Discard, "", 0))
	res, err := c.CreateIntent(context.Background(), 1950, "ann@x.com")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "pi_1", res.Intent.ID)
	assert.Equal(t, "succeeded", res.Intent.Status)
	assert.Equal(t, int64(1950), res.Intent.Amount)
	assert.Contains(t, string(res.Intent.Raw), `"object":"payment_intent"`)
}

func TestCreateIntentProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	c := NewStripeClient(srv.URL, "sk_test", "usd", log.New(io.Discard, "", 0))
	res, err := c.CreateIntent(context.Background(), 100, "ann@x.com")
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, http.StatusPaymentRequired, res.StatusCode)
	assert.Equal(t, "Your card was declined.", res.ErrorMessage)
}

func TestCreateIntentProviderErrorWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewStripeClient(srv.URL, "", "usd", log.New(io.Discard, "", 0))
	res, err := c.CreateIntent(context.Background(), 100, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Payment provider returned status 502", res.ErrorMessage)
}

func TestCreateIntentTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewStripeClient(srv.URL, "", "usd", log.New(io.Discard, "", 0))
	_, err := c.CreateIntent(context.Background(), 100, "ann@x.com")
	assert.Error(t, err)
}
