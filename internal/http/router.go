// Package http arma el router y el servidor del control plane.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/syncgate/internal/http/errors"
	"github.com/dropDatabas3/syncgate/internal/http/handlers"
	"github.com/dropDatabas3/syncgate/internal/http/middlewares"
	"github.com/dropDatabas3/syncgate/internal/rate"
)

// RouterDeps contiene las dependencias del router.
type RouterDeps struct {
	Auth      *handlers.Auth
	Licenses  *handlers.Licenses
	Admin     *handlers.Admin
	Telemetry *handlers.Telemetry
	Health    *handlers.Health

	// AuthMW valida bearer tokens y resuelve el principal.
	AuthMW middlewares.Middleware
	// LoginLimiter opcional, aplica solo a /v1/auth/login.
	LoginLimiter rate.Limiter
	// MetricsHandler opcional, sirve /metrics.
	MetricsHandler http.Handler
	// CORSOrigins orígenes permitidos.
	CORSOrigins []string
}

// NewRouter construye el router chi con la cadena de middlewares ambient y
// todas las rutas del control plane.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithRecover())
	r.Use(middlewares.WithLogging())
	r.Use(WithMetrics())
	r.Use(middlewares.WithSecurityHeaders())
	r.Use(middlewares.WithCORS(deps.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		errors.WriteError(w, errors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		errors.WriteError(w, errors.ErrMethodNotAllowed)
	})

	// Infra
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// Auth (público)
	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", deps.Auth.Register)
		r.With(middlewares.WithRateLimit(deps.LoginLimiter, middlewares.IPOnlyRateKey)).
			Post("/login", deps.Auth.Login)
		r.Post("/refresh", deps.Auth.Refresh)
		r.Post("/logout", deps.Auth.Logout)
		r.With(deps.AuthMW).Get("/me", deps.Auth.Me)
		r.With(deps.AuthMW).Post("/password", deps.Auth.ChangePassword)
	})

	// Engine (credencial = license key en el body)
	r.Post("/v1/license/validate", deps.Licenses.Validate)
	r.Post("/v1/license/activate", deps.Licenses.Activate)
	r.Post("/telemetry/receive", deps.Telemetry.Receive)

	// Dashboard (bearer)
	r.Group(func(r chi.Router) {
		r.Use(deps.AuthMW)

		r.Get("/telemetry/stats", deps.Telemetry.Stats)
		r.Get("/telemetry/usage", deps.Telemetry.Usage)
		r.Get("/telemetry/instances", deps.Telemetry.Instances)

		r.Get("/v1/licenses", deps.Licenses.List)
		r.Get("/v1/licenses/{id}", deps.Licenses.Get)
		r.Post("/v1/licenses/{id}/deactivate", deps.Licenses.Deactivate)

		// Admin (segunda compuerta)
		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireAdmin())
			r.Post("/v1/admin/licenses", deps.Admin.Issue)
			r.Post("/v1/admin/licenses/{id}/revoke", deps.Admin.Revoke)
		})
	})

	return r
}
