package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jrsteele09/loghealer-client/auth"
	"github.com/jrsteele09/loghealer-client/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local dashboard server",
		Long: `Serve the login entry point, the OAuth2 callback and the session-guarded
dashboard routes on the redirect URI's port until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
	}
}

func run(flags *rootFlags) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	displayAppname(cfg.GetAppName())

	// Navigation happens through HTTP redirects issued by the handlers.
	a, err := newApp(cfg, auth.NopNavigator{})
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := server.New(cfg, a.sessions, a.api,
		server.WithMetricsHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	if err != nil {
		return err
	}
	httpServer := &http.Server{Addr: cfg.GetPort(), Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listenAndServe(httpServer)
	})
	g.Go(func() error {
		// Guarded routes wait on the gate, so bootstrap alongside the listener.
		authenticated := a.sessions.Bootstrap(gctx)
		log.Info().Bool("authenticated", authenticated).Msg("Session resolved")
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpServer)
	})
	returnError = g.Wait()
	log.Info().Msg("Server stopped")
	return returnError
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
