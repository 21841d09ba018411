package authz

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/apperr"
)

// TokenHeader carries the bearer token id.
const TokenHeader = "token"

// ForbiddenMessage is returned whenever the token check fails.
const ForbiddenMessage = "Missing required token in header, or token is invalid"

// Verifier checks that a token id is live and belongs to email.
type Verifier interface {
	Verify(ctx context.Context, tokenID, email string) (bool, error)
}

// TokenFromHeaders extracts the token id; a missing header yields "".
func TokenFromHeaders(h http.Header) string {
	return strings.TrimSpace(h.Get(TokenHeader))
}

// Check verifies token against email and returns a 403 error when it is
// missing, expired or issued to someone else. Verifier failures deny and are
// logged.
func Check(ctx context.Context, v Verifier, logger *log.Logger, token, email string) error {
	ok, err := v.Verify(ctx, token, email)
	if err != nil {
		logger.Printf("[Authz] token check error email=%s: %v", email, err)
		return apperr.Wrap(http.StatusForbidden, ForbiddenMessage, err)
	}
	if !ok {
		return apperr.Forbidden(ForbiddenMessage)
	}
	return nil
}
