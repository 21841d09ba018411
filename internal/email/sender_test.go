package email

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/config"
)

func TestNewMessage(t *testing.T) {
	m, err := NewMessage(" ann@x.com ", " Incoming payment ", "Payment received successfully")
	require.NoError(t, err)
	assert.Equal(t, Message{To: "ann@x.com", Subject: "Incoming payment", Text: "Payment received successfully"}, m)

	for _, tc := range []struct{ to, subject, text string }{
		{"", "s", "t"},
		{"a@x.com", "  ", "t"},
		{"a@x.com", "s", ""},
		{"a@x.com", strings.Repeat("s", MaxFieldLength+1), "t"},
		{"a@x.com", "s", strings.Repeat("t", MaxFieldLength+1)},
	} {
		_, err := NewMessage(tc.to, tc.subject, tc.text)
		assert.ErrorIs(t, err, ErrInvalidMessage)
	}

	_, err = NewMessage("a@x.com", strings.Repeat("é", MaxFieldLength), "t")
	assert.NoError(t, err)
}

func TestMailgunSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mg.example.com/messages", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "api", user)
		assert.Equal(t, "key-1", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Pizza Delivery <mailgun@mg.example.com>", r.PostForm.Get("from"))
		assert.Equal(t, "ann@x.com", r.PostForm.Get("to"))
		assert.Equal(t, "Incoming payment", r.PostForm.Get("subject"))
		assert.Equal(t, "Payment received successfully", r.PostForm.Get("text"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewMailgunSender(srv.URL, "v3", "mg.example.com", "key-1")
	require.NoError(t, s.Send(context.Background(), "ann@x.com", "Incoming payment", "Payment received successfully"))
}

func TestMailgunStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewMailgunSender(srv.URL, "/v3/", "mg.example.com", "bad")
	err := s.Send(context.Background(), "ann@x.com", "s", "t")
	assert.EqualError(t, err, "Status code returned was 401")
}

func TestMailgunValidatesBeforeSending(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	s := NewMailgunSender(srv.URL, "", "d", "k")
	assert.ErrorIs(t, s.Send(context.Background(), "ann@x.com", "", "t"), ErrInvalidMessage)
	assert.False(t, called)
}

func TestBuildMIME(t *testing.T) {
	raw, err := buildMIME("no-reply@pizza.local", Message{To: "ann@x.com", Subject: "Incoming payment", Text: "Payment received successfully"})
	require.NoError(t, err)

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Incoming payment", env.GetHeader("Subject"))
	assert.Contains(t, env.GetHeader("To"), "ann@x.com")
	assert.Equal(t, "Payment received successfully", strings.TrimSpace(env.Text))
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := LogSender{Logger: log.New(&buf, "", 0)}
	require.NoError(t, s.Send(context.Background(), "ann@x.com", "s", "t"))
	assert.Contains(t, buf.String(), "to=ann@x.com")

	assert.ErrorIs(t, LogSender{Logger: log.New(io.Discard, "", 0)}.Send(context.Background(), "", "s", "t"), ErrInvalidMessage)
}

func TestNewSender(t *testing.T) {
	logger := log.New(io.Discard, "", 0)

	s, err := NewSender(config.MailConfig{Provider: "mailgun", MailgunDomain: "d", MailgunAPIKey: "k"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MailgunSender{}, s)

	s, err = NewSender(config.MailConfig{Provider: "mailgun"}, logger)
	require.NoError(t, err)
	assert.IsType(t, LogSender{}, s)

	s, err = NewSender(config.MailConfig{Provider: "SMTP", SMTPHost: "localhost", SMTPPort: "1025"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = NewSender(config.MailConfig{Provider: "pigeon"}, logger)
	assert.Error(t, err)
}
