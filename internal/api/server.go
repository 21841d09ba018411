package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/authz"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/config"
)

// NewHandler mounts the router behind the shared middleware stack.
func NewHandler(rt *Router, httpCfg config.HTTPConfig, limits config.RateLimitConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: httpCfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", authz.TokenHeader},
		MaxAge:         300,
	}))
	if limits.RequestsPerSecond > 0 {
		r.Use(newIPRateLimiter(limits.RequestsPerSecond, limits.Burst).Middleware)
	}

	r.Handle("/", rt)
	r.Handle("/*", rt)

	return otelhttp.NewHandler(r, "pizza-delivery",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}
