package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/loghealer-client/auth"
	"github.com/jrsteele09/loghealer-client/token"
	"github.com/spf13/cobra"
)

func logoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, auth.NopNavigator{})
			if err != nil {
				return err
			}
			defer a.Close()

			a.sessions.Logout(cmd.Context())
			fmt.Println("Signed out")
			return nil
		},
	}
}

func statusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, auth.NopNavigator{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if !a.sessions.Bootstrap(ctx) {
				fmt.Println("Not signed in")
				return nil
			}

			user := a.sessions.CurrentUser()
			fmt.Printf("Signed in as %s\n", user.DisplayName())
			if user.Email != "" {
				fmt.Printf("  Email:   %s\n", user.Email)
			}
			if len(user.Roles) > 0 {
				roles := make([]string, 0, len(user.Roles))
				for _, r := range user.Roles {
					roles = append(roles, string(r))
				}
				fmt.Printf("  Roles:   %s\n", strings.Join(roles, ", "))
			}
			if expiry, err := token.AccessTokenExpiry(a.sessions.AccessToken(ctx)); err == nil && !expiry.IsZero() {
				fmt.Printf("  Expires: %s (%s)\n", expiry.Local().Format(time.RFC1123), time.Until(expiry).Round(time.Second))
			}
			return nil
		},
	}
}
