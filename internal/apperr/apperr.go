// Package apperr carries an HTTP status and a user-facing message alongside
// an optional cause.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is returned by the services; the API layer renders it as
// {"Error": Message} with status Code.
type HTTPError struct {
	cause   error
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.cause }

func New(code int, message string) *HTTPError {
	return &HTTPError{Code: code, Message: message}
}

// Wrap attaches a cause that is logged but never shown to the client.
func Wrap(code int, message string, cause error) *HTTPError {
	return &HTTPError{Code: code, Message: message, cause: cause}
}

func BadRequest(message string) *HTTPError { return New(http.StatusBadRequest, message) }

func NotFound(message string) *HTTPError { return New(http.StatusNotFound, message) }

func Forbidden(message string) *HTTPError { return New(http.StatusForbidden, message) }

func Internal(message string, cause error) *HTTPError {
	return Wrap(http.StatusInternalServerError, message, cause)
}

// StatusAndMessage maps any error to the status and message sent to clients.
func StatusAndMessage(err error) (int, string) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, httpErr.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}
