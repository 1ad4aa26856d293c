package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	// LOGIN
	s.RegisterRouteFunc(http.MethodGet, RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteFunc(http.MethodGet, RouteAuthLogin, ChainMiddleware(s.InitiateLoginHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteFunc(http.MethodGet, RouteCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteFunc(http.MethodGet, RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteFunc(http.MethodPost, RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleware()...))

	// Dashboard routes (require a resolved, authenticated session)
	s.RegisterRouteFunc(http.MethodGet, RouteDashboard, ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleware(s.RequireSession)...))
	s.RegisterRouteFunc(http.MethodGet, RouteExceptions, ChainMiddleware(s.ExceptionsHandler(), s.HTMLMiddleware(s.RequireSession)...))
	s.RegisterRouteFunc(http.MethodGet, RouteException, ChainMiddleware(s.ExceptionHandler(), s.HTMLMiddleware(s.RequireSession)...))
	s.RegisterRouteFunc(http.MethodGet, RouteMe, ChainMiddleware(s.MeHandler(), s.HTMLMiddleware(s.RequireSession)...))

	s.RegisterRouteFunc(http.MethodGet, RouteHealth, s.HealthHandler())
	if s.metricsHandler != nil {
		s.RegisterRouteFunc(http.MethodGet, RouteMetrics, s.metricsHandler.ServeHTTP)
	}
	s.RegisterRouteFunc(http.MethodGet, "/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteDashboard, http.StatusFound)
	})
}
