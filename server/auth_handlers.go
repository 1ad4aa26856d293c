package server

import (
	"html/template"
	"net/http"

	"github.com/jrsteele09/loghealer-client/users"
	"github.com/rs/zerolog/log"
)

var loginTmpl = template.Must(template.New("login").Parse(`<!doctype html>
<html>
<head><title>LogHealer - Sign in</title></head>
<body>
{{if .User}}<p>Signed in as {{.User.DisplayName}}. <a href="/dashboard">Open the dashboard</a> or <a href="/logout">sign out</a>.</p>
{{else}}{{if .Error}}<p role="alert">Sign in failed: {{.Error}}</p>{{end}}
<p><a href="{{.LoginPath}}">Sign in to LogHealer</a></p>{{end}}
</body>
</html>
`))

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	Error     string
	LoginPath string
	User      *users.User
}

// LoginPageHandler shows the sign-in link and any error from a previous
// attempt. It never starts a login on its own, so a failing provider cannot
// cause a redirect loop.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := LoginPageData{
			Error:     r.URL.Query().Get("error"),
			LoginPath: RouteAuthLogin,
		}
		if s.sessions.IsAuthenticated() {
			data.User = s.sessions.CurrentUser()
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := loginTmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render login template")
		}
	}
}

// InitiateLoginHandler starts a PKCE login and redirects to the provider.
func (s *Server) InitiateLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authURL, err := s.sessions.InitiateLogin(r.Context())
		if err != nil {
			log.Err(err).Msg("Failed to initiate login")
			redirectWithError(w, r, RouteLogin, "login_unavailable")
			return
		}
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// CallbackHandler receives the authorization redirect. Missing parameters go
// back to the login page; a completed login lands on the dashboard.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errorParam := q.Get("error"); errorParam != "" {
			log.Warn().Str("error", errorParam).Str("description", q.Get("error_description")).Msg("Authorization failed")
			s.callbackDone(false)
			redirectWithError(w, r, RouteLogin, errorParam)
			return
		}

		code, state := q.Get("code"), q.Get("state")
		if code == "" || state == "" {
			s.callbackDone(false)
			redirectSuccess(w, r, RouteLogin)
			return
		}

		ok, err := s.sessions.HandleCallback(r.Context(), code, state)
		s.callbackDone(ok)
		if !ok {
			log.Err(err).Msg("Callback rejected")
			redirectWithError(w, r, RouteLogin, "login_failed")
			return
		}
		redirectSuccess(w, r, RouteDashboard)
	}
}

func (s *Server) callbackDone(ok bool) {
	if s.onCallback != nil {
		s.onCallback(ok)
	}
}

// LogoutHandler ends the session and returns to the login page.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.sessions.Logout(r.Context())
		redirectSuccess(w, r, RouteLogin)
	}
}
