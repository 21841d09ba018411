package authz

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"testing"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/apperr"
	"github.com/stretchr/testify/assert"
)

type fakeVerifier struct {
	allow bool
	err   error
	seen  string
}

func (f *fakeVerifier) Verify(ctx context.Context, tokenID, email string) (bool, error) {
	f.seen = tokenID
	return f.allow, f.err
}

var discard = log.New(io.Discard, "", 0)

func headers(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set(TokenHeader, token)
	}
	return h
}

func TestCheckAllowed(t *testing.T) {
	v := &fakeVerifier{allow: true}
	err := Check(context.Background(), v, discard, TokenFromHeaders(headers(" abc ")), "ann@x.com")
	assert.NoError(t, err)
	assert.Equal(t, "abc", v.seen)
}

func TestCheckDenied(t *testing.T) {
	v := &fakeVerifier{allow: false}
	err := Check(context.Background(), v, discard, TokenFromHeaders(headers("")), "ann@x.com")
	code, msg := apperr.StatusAndMessage(err)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, ForbiddenMessage, msg)
}

func TestCheckErrorDenies(t *testing.T) {
	v := &fakeVerifier{allow: true, err: errors.New("store down")}
	var out bytes.Buffer
	err := Check(context.Background(), v, log.New(&out, "", 0), "abc", "ann@x.com")
	code, _ := apperr.StatusAndMessage(err)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "[Authz] token check error email=ann@x.com: store down\n", out.String())
}
