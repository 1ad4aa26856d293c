package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/loghealer-client/api"
	"github.com/jrsteele09/loghealer-client/users"
	"github.com/rs/zerolog/log"
)

type dashboardResponse struct {
	User  *users.User         `json:"user"`
	Stats *api.DashboardStats `json:"stats"`
}

func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		stats, err := s.api.DashboardStats(r.Context(), q.Get("projectId"), q.Get("timeRange"))
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, dashboardResponse{User: s.sessions.CurrentUser(), Stats: stats})
	}
}

func (s *Server) ExceptionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		size, _ := strconv.Atoi(q.Get("size"))

		groups, err := s.api.Exceptions(r.Context(), api.ExceptionQuery{
			ProjectID: q.Get("projectId"),
			Status:    api.ExceptionStatus(q.Get("status")),
			Page:      page,
			Size:      size,
		})
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, groups)
	}
}

func (s *Server) ExceptionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, err := s.api.Exception(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, group)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.sessions.CurrentUser())
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Session string `json:"session"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Session: s.sessions.State().String()})
	}
}

// apiFailure maps an API error onto the response. A 401 has already ended
// the session in the transport, so the user is sent to sign in again.
func (s *Server) apiFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case api.IsUnauthorized(err):
		redirectWithError(w, r, s.sessions.LoginEntry(), "session_expired")
	case api.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
	default:
		log.Err(err).Str("path", r.URL.Path).Msg("LogHealer API call failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "upstream_error", Message: err.Error()})
	}
}
