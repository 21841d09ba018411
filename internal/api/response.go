package api

import (
	"encoding/json"
	"log"
	"net/http"
	"reflect"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/apperr"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/web"
)

const (
	TypeJSON = "json"
	TypeHTML = "html"
)

var contentTypes = map[string]string{
	TypeJSON:        "application/json",
	TypeHTML:        "text/html",
	web.TypeFavicon: "image/x-icon",
	web.TypeCSS:     "text/css",
	web.TypePNG:     "image/png",
	web.TypeJPG:     "image/jpeg",
	web.TypeJS:      "application/javascript",
	web.TypePlain:   "text/plain",
}

// Response is what a route handler returns. Body is marshalled for JSON
// responses and written as is otherwise.
type Response struct {
	Status int
	Type   string
	Body   any
}

func JSON(status int, body any) Response {
	return Response{Status: status, Type: TypeJSON, Body: body}
}

func OK(body any) Response { return JSON(http.StatusOK, body) }

func Status(status int) Response { return JSON(status, nil) }

// Error renders err as {"Error": message}, or {} when the message is empty.
// Causes of server errors are logged, never sent.
func Error(logger *log.Logger, err error) Response {
	code, msg := apperr.StatusAndMessage(err)
	if code >= http.StatusInternalServerError && logger != nil {
		logger.Printf("[API] %s: %v", msg, err)
	}
	if msg == "" {
		return Status(code)
	}
	return JSON(code, map[string]string{"Error": msg})
}

func write(w http.ResponseWriter, resp Response) int {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	typ := resp.Type
	if _, ok := contentTypes[typ]; !ok {
		typ = TypeJSON
	}

	var body []byte
	if typ == TypeJSON {
		body = jsonBody(resp.Body)
	} else {
		switch b := resp.Body.(type) {
		case []byte:
			body = b
		case string:
			body = []byte(b)
		}
	}

	w.Header().Set("Content-Type", contentTypes[typ])
	w.WriteHeader(status)
	_, _ = w.Write(body)
	return status
}

// jsonBody encodes objects, arrays and raw JSON; anything else becomes {}.
func jsonBody(v any) []byte {
	if raw, ok := v.(json.RawMessage); ok && json.Valid(raw) {
		return raw
	}
	if v != nil {
		switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
		case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
			if b, err := json.Marshal(v); err == nil {
				return b
			}
		}
	}
	return []byte("{}")
}
