package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/authz"
)

const maxBodyBytes = 1 << 20

// Request is the parsed form of an incoming HTTP request that every route
// handler receives.
type Request struct {
	Method  string // lower-cased
	Path    string // without leading and trailing slashes
	Query   url.Values
	Headers http.Header
	Payload map[string]any
}

// ParseRequest decodes the body as a JSON object. Anything else yields an
// empty payload.
func ParseRequest(r *http.Request) Request {
	req := Request{
		Method:  strings.ToLower(r.Method),
		Path:    strings.Trim(r.URL.Path, "/"),
		Query:   r.URL.Query(),
		Headers: r.Header,
		Payload: map[string]any{},
	}
	if r.Body == nil {
		return req
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return req
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil && payload != nil {
		req.Payload = payload
	}
	return req
}

// String returns a payload field when it is a string.
func (r Request) String(key string) string {
	s, _ := r.Payload[key].(string)
	return s
}

// Bool returns a payload field when it is a boolean.
func (r Request) Bool(key string) bool {
	b, _ := r.Payload[key].(bool)
	return b
}

func (r Request) QueryString(key string) string {
	return r.Query.Get(key)
}

func (r Request) Token() string {
	return authz.TokenFromHeaders(r.Headers)
}
