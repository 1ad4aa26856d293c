package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrsteele09/loghealer-client/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errLoginFailed = errors.New("login failed")

func loginCmd(flags *rootFlags) *cobra.Command {
	var (
		force     bool
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in through the browser",
		Long: `Start a local callback server, open the LogHealer sign-in page and wait for
the identity provider to redirect back with an authorization code.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			navigator := loginNavigator{
				browser:   browserNavigator{base: "http://localhost" + cfg.GetPort()},
				printOnly: noBrowser,
			}
			a, err := newApp(cfg, navigator)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if a.sessions.Bootstrap(ctx) && !force {
				fmt.Printf("Already signed in as %s\n", a.sessions.CurrentUser().DisplayName())
				return nil
			}
			return runLogin(ctx, a, cfg.GetAuthCodeTimeout())
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "sign in again even when a session exists")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "print the sign-in URL instead of opening a browser")
	return cmd
}

// loginNavigator sends the authorization redirect to the browser (or the
// terminal) and ignores the navigations that follow the session lifecycle.
type loginNavigator struct {
	browser   browserNavigator
	printOnly bool
}

func (n loginNavigator) Navigate(target string) {
	if len(target) == 0 || target[0] == '/' {
		return
	}
	fmt.Printf("Sign in at:\n\n  %s\n\n", target)
	if !n.printOnly {
		n.browser.Navigate(target)
	}
}

func runLogin(ctx context.Context, a *app, timeout time.Duration) error {
	outcome := make(chan bool, 1)
	srv, err := server.New(a.cfg, a.sessions, a.api, server.WithCallbackHook(func(ok bool) {
		select {
		case outcome <- ok:
		default:
		}
	}))
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", a.cfg.GetPort())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.GetPort(), err)
	}
	httpServer := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Debug().Str("addr", ln.Addr().String()).Msg("Callback server listening")
		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("httpServer.Serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer func() {
			if err := shutdown(httpServer); err != nil {
				log.Warn().Err(err).Msg("Callback server did not stop cleanly")
			}
		}()

		if _, err := a.sessions.InitiateLogin(gctx); err != nil {
			return err
		}
		select {
		case ok := <-outcome:
			if !ok {
				return errLoginFailed
			}
			return nil
		case <-gctx.Done():
			return fmt.Errorf("waiting for the sign-in callback: %w", gctx.Err())
		}
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("Signed in as %s\n", a.sessions.CurrentUser().DisplayName())
	return nil
}
