// Package server is the loopback HTTP server that hosts the login entry
// point, the OAuth2 callback and the session-guarded dashboard routes.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/loghealer-client/api"
	"github.com/jrsteele09/loghealer-client/auth"
	"github.com/jrsteele09/loghealer-client/internal/config"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env            string // Environment (e.g., "DEV", "PROD")
	router         chi.Router
	routes         []string
	sessions       *auth.SessionManager
	api            *api.Client
	metricsHandler http.Handler
	onCallback     func(ok bool)
}

type Option func(*Server)

// WithMetricsHandler serves h on RouteMetrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// WithCallbackHook is called with the outcome of every handled callback.
func WithCallbackHook(fn func(ok bool)) Option {
	return func(s *Server) {
		s.onCallback = fn
	}
}

func New(cfg config.EnvConfig, sessions *auth.SessionManager, apiClient *api.Client, options ...Option) (*Server, error) {
	if sessions == nil {
		return nil, errors.New("[Server New] session manager is required")
	}
	if apiClient == nil {
		return nil, errors.New("[Server New] api client is required")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		router:   chi.NewRouter(),
		sessions: sessions,
		api:      apiClient,
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(method, pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, method+" "+pattern)
	s.router.Method(method, pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, _ := strings.Cut(route, " ")
		log.Info().Msg(formatRoute(method, path))
	}
}

func formatRoute(method, path string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	return fmt.Sprintf("[%s%s%s] %s", color, paddedMethod, ResetColor, path)
}
