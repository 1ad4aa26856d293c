package server

// Route path constants
const (
	// Auth Routes - Login & Logout
	RouteLogin     = "/login"
	RouteAuthLogin = "/auth/login"
	RouteLogout    = "/logout"
	RouteCallback  = "/auth/callback"

	// Dashboard Routes (require a session)
	RouteDashboard  = "/dashboard"
	RouteExceptions = "/exceptions"
	RouteException  = "/exceptions/{id}"
	RouteMe         = "/me"

	// Operational Routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
)
