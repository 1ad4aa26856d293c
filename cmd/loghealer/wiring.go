package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/loghealer-client/api"
	"github.com/jrsteele09/loghealer-client/auth"
	"github.com/jrsteele09/loghealer-client/authflow"
	"github.com/jrsteele09/loghealer-client/idp"
	"github.com/jrsteele09/loghealer-client/internal/config"
	apperrors "github.com/jrsteele09/loghealer-client/internal/errors"
	"github.com/jrsteele09/loghealer-client/internal/metrics"
	"github.com/jrsteele09/loghealer-client/token"
	tokenfakerepo "github.com/jrsteele09/loghealer-client/token/repofake"
	"github.com/jrsteele09/loghealer-client/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// app holds the long-lived collaborators shared by every command.
type app struct {
	cfg      config.Config
	tokens   token.Store
	sessions *auth.SessionManager
	api      *api.Client
	registry *prometheus.Registry
	closers  []func() error
}

func newApp(cfg config.Config, navigator auth.Navigator) (*app, error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}

	tokens, closeTokens, err := newTokenStore(cfg)
	if err != nil {
		return nil, err
	}
	a.tokens = tokens
	if closeTokens != nil {
		a.closers = append(a.closers, closeTokens)
	}

	provider, err := idp.New(idp.Config{
		AuthServer:  cfg.GetAuthServer(),
		LoginURL:    cfg.GetLoginURL(),
		ClientID:    cfg.GetClientID(),
		RedirectURI: cfg.GetRedirectURI(),
		Scopes:      cfg.GetScopes(),
		OIDCIssuer:  cfg.GetOIDCIssuer(),
	}, idp.WithHTTPClient(&http.Client{Timeout: cfg.GetRequestTimeout()}))
	if err != nil {
		a.Close()
		return nil, err
	}

	authMetrics, err := metrics.NewAuth(a.registry)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.sessions, err = auth.NewSessionManager(
		auth.Repos{Tokens: tokens, Flows: authflow.NewCacheRepo(cfg.GetAuthCodeTimeout())},
		provider,
		auth.WithNavigator(navigator),
		auth.WithMetrics(authMetrics),
		auth.WithRequestTimeout(cfg.GetRequestTimeout()),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	authenticator := transport.NewAuthenticator(tokens, a.sessions,
		transport.WithBase(&http.Transport{Proxy: http.ProxyFromEnvironment}))
	httpClient := authenticator.Client()
	httpClient.Timeout = cfg.GetRequestTimeout()
	a.api = api.NewClient(cfg.GetAPIURL(), httpClient)
	return a, nil
}

func newTokenStore(cfg config.StorageConfig) (token.Store, func() error, error) {
	switch strings.ToLower(cfg.GetTokenStore()) {
	case "file":
		var options []token.FileStoreOption
		if passphrase := cfg.GetTokenPassphrase(); passphrase != "" {
			options = append(options, token.WithPassphrase(passphrase))
		}
		log.Debug().Str("path", cfg.GetTokenFile()).Bool("encrypted", len(options) > 0).Msg("Using file token store")
		return token.NewFileStore(cfg.GetTokenFile(), options...), nil, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: cfg.GetRedisAddr(),
			DB:   cfg.GetRedisDB(),
		})
		log.Debug().Str("addr", cfg.GetRedisAddr()).Str("key", cfg.GetRedisKey()).Msg("Using redis token store")
		return token.NewRedisStore(client, cfg.GetRedisKey()), client.Close, nil
	case "memory":
		return tokenfakerepo.NewFakeTokenStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("[newTokenStore] %w: unknown token store %q", apperrors.ErrInvalidConfig, cfg.GetTokenStore())
	}
}

// requireSession bootstraps the session and fails when nobody is signed in.
func (a *app) requireSession(ctx context.Context) error {
	if !a.sessions.Bootstrap(ctx) {
		return errors.New("not signed in, run `loghealer login` first")
	}
	return nil
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("Failed to release resource")
		}
	}
	a.closers = nil
}
