// AngelaMos | 2026
// server.go

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/config"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/health"
)

const (
	MsgAPIRunning    = "API de Usuarios funcionando"
	msgRouteNotFound = "Ruta no encontrada: %s %s"
	msgNotAllowed    = "Método %s no permitido para %s"
)

type Config struct {
	ServerConfig  config.ServerConfig
	HealthHandler *health.Handler
	Logger        *slog.Logger
	Version       string
}

type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	health     *health.Handler
	logger     *slog.Logger
	version    string
}

func New(cfg Config) *Server {
	router := chi.NewRouter()
	router.NotFound(notFound)
	router.MethodNotAllowed(methodNotAllowed)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.ServerConfig.Address(),
			Handler:           router,
			ReadTimeout:       cfg.ServerConfig.ReadTimeout,
			ReadHeaderTimeout: cfg.ServerConfig.ReadTimeout,
			WriteTimeout:      cfg.ServerConfig.WriteTimeout,
			IdleTimeout:       cfg.ServerConfig.IdleTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
		router:  router,
		health:  cfg.HealthHandler,
		logger:  logger,
		version: cfg.Version,
	}
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler exposes the mounted router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Index answers GET /api with a liveness banner and the route map.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	core.OK(w, MsgAPIRunning, IndexResponse{
		Version: s.version,
		Endpoints: map[string]string{
			"registro":  "POST /api/auth/registro",
			"login":     "POST /api/auth/login",
			"refresh":   "POST /api/auth/refresh",
			"logout":    "POST /api/auth/logout",
			"logoutAll": "POST /api/auth/logout-all",
			"perfil":    "GET /api/usuarios/perfil",
			"usuarios":  "GET /api/usuarios",
			"usuario":   "GET|PUT|DELETE /api/usuarios/{id}",
		},
	})
}

func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}

// Shutdown flips readiness off, waits drainDelay so load balancers stop
// routing here, then drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context, drainDelay time.Duration) error {
	if s.health != nil {
		s.health.SetShutdown(true)
	}

	s.logger.Info("draining connections", "delay", drainDelay)

	select {
	case <-time.After(drainDelay):
	case <-ctx.Done():
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

type IndexResponse struct {
	Version   string            `json:"version,omitempty"`
	Endpoints map[string]string `json:"endpoints"`
}

func notFound(w http.ResponseWriter, r *http.Request) {
	core.NotFound(w, fmt.Sprintf(msgRouteNotFound, r.Method, r.URL.Path))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	core.Fail(
		w,
		http.StatusMethodNotAllowed,
		fmt.Sprintf(msgNotAllowed, r.Method, r.URL.Path),
	)
}
