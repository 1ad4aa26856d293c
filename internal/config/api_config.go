package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIURL() string
	GetAgentPollInterval() time.Duration
}

type API struct{ source }

var _ APIConfig = API{}

func (a API) GetAPIURL() string {
	return strings.TrimRight(a.get("API_URL", "http://localhost:8080/api/v1"), "/")
}

func (a API) GetAgentPollInterval() time.Duration {
	return a.duration("AGENT_POLL_INTERVAL", 5*time.Second)
}
