package config

import (
	"fmt"
	"net/url"
)

type ServerConfig interface {
	GetPort() string
}

type Server struct{ source }

var _ ServerConfig = Server{}

// GetPort defaults to the port of the redirect URI so the callback lands on
// the local server.
func (s Server) GetPort() string {
	port := s.get("PORT", "")
	if port == "" {
		if u, err := url.Parse(s.get("REDIRECT_URI", "http://localhost:4206/auth/callback")); err == nil {
			port = u.Port()
		}
	}
	if port == "" {
		port = "4206"
	}
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}
