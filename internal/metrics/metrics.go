// Package metrics holds the Prometheus collectors for the session lifecycle.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultSuccess          = "success"
	ResultInvalidState     = "invalid_state"
	ResultFailed           = "failed"
	ResultNoRefresh        = "no_refresh_token"
	OutcomeAuthenticated   = "authenticated"
	OutcomeUnauthenticated = "unauthenticated"
)

// Auth groups the session lifecycle collectors. A nil *Auth is valid and
// records nothing.
type Auth struct {
	Logins        *prometheus.CounterVec
	Refreshes     *prometheus.CounterVec
	Bootstraps    *prometheus.CounterVec
	Invalidations prometheus.Counter
	Logouts       prometheus.Counter
}

// NewAuth creates the collectors and registers them on reg (default registerer
// when nil). Collectors already registered are reused.
func NewAuth(reg prometheus.Registerer) (*Auth, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Auth{
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loghealer_auth_logins_total",
			Help: "Authorization code callbacks handled, by result",
		}, []string{"result"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loghealer_auth_refreshes_total",
			Help: "Refresh token grants attempted, by result",
		}, []string{"result"}),
		Bootstraps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loghealer_auth_bootstraps_total",
			Help: "Initial session resolutions, by outcome",
		}, []string{"outcome"}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loghealer_auth_invalidations_total",
			Help: "Sessions invalidated after a 401 from a protected endpoint",
		}),
		Logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loghealer_auth_logouts_total",
			Help: "Explicit logouts",
		}),
	}

	var err error
	if m.Logins, err = register(reg, m.Logins); err != nil {
		return nil, err
	}
	if m.Refreshes, err = register(reg, m.Refreshes); err != nil {
		return nil, err
	}
	if m.Bootstraps, err = register(reg, m.Bootstraps); err != nil {
		return nil, err
	}
	if m.Invalidations, err = register(reg, m.Invalidations); err != nil {
		return nil, err
	}
	if m.Logouts, err = register(reg, m.Logouts); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, returning the existing collector when an
// identical one is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("[metrics register] %w", err)
}

func (m *Auth) Login(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

func (m *Auth) Refresh(result string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(result).Inc()
}

func (m *Auth) Bootstrap(authenticated bool) {
	if m == nil {
		return
	}
	outcome := OutcomeUnauthenticated
	if authenticated {
		outcome = OutcomeAuthenticated
	}
	m.Bootstraps.WithLabelValues(outcome).Inc()
}

func (m *Auth) Invalidation() {
	if m == nil {
		return
	}
	m.Invalidations.Inc()
}

func (m *Auth) Logout() {
	if m == nil {
		return
	}
	m.Logouts.Inc()
}
