// Package web renders the HTML pages and serves files from the public
// directory.
package web

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ErrTemplateNotFound is returned when a page or one of its wrappers is missing.
var ErrTemplateNotFound = errors.New("No template could be found")

const (
	headerTemplate = "_header"
	footerTemplate = "_footer"
)

// Page describes one HTML route.
type Page struct {
	Template string
	Data     map[string]string
}

// Pages maps trimmed request paths to the page they render.
var Pages = map[string]Page{
	"": {Template: "index", Data: map[string]string{
		"head.title":       "Pizza delivery",
		"head.description": "Pizza delivery site to buy your favorite pizzas without leave your home",
		"body.class":       "index",
	}},
	"account/create": {Template: "accountCreate", Data: map[string]string{
		"head.title":       "Create an account",
		"head.description": "Sign up is easy and only takes a few seconds",
		"body.class":       "accountCreate",
	}},
	"session/create": {Template: "sessionCreate", Data: map[string]string{
		"head.title":       "Login to your account",
		"head.description": "Please enter your email and password to access to your account",
		"body.class":       "sessionCreate",
	}},
	"session/deleted": {Template: "sessionDeleted", Data: map[string]string{
		"head.title":       "Logged out",
		"head.description": "You have been logged out of your account",
		"body.class":       "sessionDeleted",
	}},
	"dashboard": {Template: "dashboard", Data: map[string]string{
		"head.title": "Dashboard",
		"body.class": "dashboard",
	}},
}

type Renderer struct {
	dir     string
	globals map[string]string
	policy  *bluemonday.Policy
}

func NewRenderer(dir string, globals map[string]string) *Renderer {
	return &Renderer{dir: dir, globals: globals, policy: bluemonday.StrictPolicy()}
}

// Interpolate replaces every {key} placeholder with its sanitized value.
// Template globals are addressed as {global.name}.
func (r *Renderer) Interpolate(s string, data map[string]string) string {
	values := make(map[string]string, len(data)+len(r.globals))
	for k, v := range r.globals {
		values["global."+k] = v
	}
	for k, v := range data {
		values[k] = v
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", r.policy.Sanitize(values[k]))
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// Template reads and interpolates a single template file.
func (r *Renderer) Template(name string, data map[string]string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	raw, err := os.ReadFile(filepath.Join(r.dir, name+".html"))
	if err != nil || len(raw) == 0 {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return r.Interpolate(string(raw), data), nil
}

// Page renders a template wrapped in the shared header and footer.
func (r *Renderer) Page(name string, data map[string]string) (string, error) {
	body, err := r.Template(name, data)
	if err != nil {
		return "", err
	}
	header, err := r.Template(headerTemplate, data)
	if err != nil {
		return "", err
	}
	footer, err := r.Template(footerTemplate, data)
	if err != nil {
		return "", err
	}
	return header + body + footer, nil
}
