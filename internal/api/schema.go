package api

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// payloadSchema rejects payloads whose known fields have the wrong JSON type.
// Presence is checked by the services so they keep their own messages.
type payloadSchema struct {
	schema  *gojsonschema.Schema
	message string
}

func objectSchema(props map[string]string) string {
	parts := make([]string, 0, len(props))
	for name, typ := range props {
		parts = append(parts, fmt.Sprintf(`%q:{"type":%q}`, name, typ))
	}
	return `{"type":"object","properties":{` + strings.Join(parts, ",") + `}}`
}

func mustSchema(props map[string]string, message string) payloadSchema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(objectSchema(props)))
	if err != nil {
		panic(fmt.Sprintf("api: invalid payload schema: %v", err))
	}
	return payloadSchema{schema: s, message: message}
}

var userFields = map[string]string{
	"firstName":     "string",
	"lastName":      "string",
	"email":         "string",
	"password":      "string",
	"streetAddress": "string",
}

// schemas is keyed by "<method> <path>".
var schemas = map[string]payloadSchema{
	"post api/users":   mustSchema(userFields, "Missing required fields"),
	"put api/users":    mustSchema(userFields, "Missing required fields"),
	"delete api/users": mustSchema(map[string]string{"email": "string"}, "Missing required field"),
	"post api/tokens":  mustSchema(map[string]string{"email": "string", "password": "string"}, "Missing required fields"),
	"put api/tokens":   mustSchema(map[string]string{"id": "string", "extend": "boolean"}, "Missing required field(s) or field(s) are invalid"),
	"post api/carts":   mustSchema(map[string]string{"email": "string", "itemId": "string"}, "Missing required fields"),
	"delete api/carts": mustSchema(map[string]string{"email": "string", "itemId": "string"}, "Missing required fields"),
	"post api/order":   mustSchema(map[string]string{"email": "string"}, "Missing required fields"),
}

// validatePayload returns the route's message when the payload does not match.
func validatePayload(req Request) (string, bool) {
	s, ok := schemas[req.Method+" "+req.Path]
	if !ok {
		return "", true
	}
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(req.Payload))
	if err != nil || !result.Valid() {
		return s.message, false
	}
	return "", true
}
