// AngelaMos | 2026
// routes.go

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/admin"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/auth"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/health"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/middleware"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/user"
)

type routeDeps struct {
	Auth          *auth.Handler
	Users         *user.Handler
	Admin         *admin.Handler
	Health        *health.Handler
	Index         http.HandlerFunc
	Authenticator func(http.Handler) http.Handler
	AuthLimiter   func(http.Handler) http.Handler
	Metrics       http.Handler
	MetricsPath   string
}

// mountRoutes serves the API both at the root and under /api, the prefix
// older clients still call.
func mountRoutes(router chi.Router, d routeDeps) {
	if d.Health != nil {
		d.Health.RegisterRoutes(router)
	}

	if d.Metrics != nil && d.MetricsPath != "" {
		router.Method(http.MethodGet, d.MetricsPath, d.Metrics)
	}

	adminOnly := middleware.RequireAdmin

	api := func(r chi.Router) {
		d.Auth.RegisterRoutes(r, d.Authenticator, d.AuthLimiter)
		d.Users.RegisterRoutes(r, d.Authenticator, adminOnly)
		if d.Admin != nil {
			d.Admin.RegisterRoutes(r, d.Authenticator, adminOnly)
		}
	}

	api(router)

	router.Route("/api", func(r chi.Router) {
		if d.Index != nil {
			r.Get("/", d.Index)
		}
		api(r)
	})
}
