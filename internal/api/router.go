// Package api exposes the JSON API, the HTML pages and the public assets
// behind a single path-to-handler map.
package api

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/auth"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/cart"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/menu"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/order"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/users"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/web"
)

// HandlerFunc serves one route.
type HandlerFunc func(ctx context.Context, req Request) Response

type Deps struct {
	Users    *users.Service
	Tokens   *auth.TokenService
	Menu     *menu.Service
	Carts    *cart.Service
	Orders   *order.Service
	Renderer *web.Renderer
	Assets   *web.Assets
	Logger   *log.Logger
}

type Router struct {
	Deps
	routes map[string]HandlerFunc
}

func NewRouter(d Deps) *Router {
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	rt := &Router{Deps: d}
	rt.routes = map[string]HandlerFunc{
		"api/users":   rt.users,
		"api/tokens":  rt.tokens,
		"api/menu":    rt.menu,
		"api/carts":   rt.carts,
		"api/order":   rt.order,
		"favicon.ico": rt.favicon,
		"public":      rt.public,
	}
	for path, page := range web.Pages {
		rt.routes[path] = rt.page(page)
	}
	return rt
}

// Lookup picks the handler for a trimmed path.
func (rt *Router) Lookup(path string) HandlerFunc {
	if strings.Contains(path, "public/") {
		return rt.public
	}
	if h, ok := rt.routes[path]; ok {
		return h
	}
	return notFound
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := ParseRequest(r)
	handler := rt.Lookup(req.Path)

	var resp Response
	if msg, ok := validatePayload(req); !ok {
		resp = JSON(http.StatusBadRequest, map[string]string{"Error": msg})
	} else {
		resp = handler(r.Context(), req)
	}

	status := write(w, resp)
	rt.Logger.Printf("%s /%s %d", strings.ToUpper(req.Method), req.Path, status)
}

func notFound(context.Context, Request) Response {
	return Status(http.StatusNotFound)
}
