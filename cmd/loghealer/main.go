package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/loghealer-client/internal/config"
	"github.com/jrsteele09/loghealer-client/internal/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile string
	envFile    string
	ephemeral  bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "loghealer",
		Short:         "LogHealer dashboard client",
		Long:          `Sign in to LogHealer with OAuth2 + PKCE and work with the dashboard API from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.envFile != "" {
				if err := godotenv.Load(flags.envFile); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("load %s: %w", flags.envFile, err)
				}
			}
			if flags.ephemeral {
				if err := os.Setenv("TOKEN_STORE", "memory"); err != nil {
					return err
				}
			}
			logging.Init(config.GetEnv("ENV", "DEV"), config.GetEnv("LOG_LEVEL", "info"))
			return nil
		},
	}

	persistent := cmd.PersistentFlags()
	persistent.StringVarP(&flags.configFile, "config", "c", os.Getenv("LOGHEALER_CONFIG"), "YAML config file")
	persistent.StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	persistent.BoolVar(&flags.ephemeral, "ephemeral", false, "keep tokens in memory for this run only")

	cmd.AddCommand(
		loginCmd(flags),
		logoutCmd(flags),
		statusCmd(flags),
		serveCmd(flags),
		statsCmd(flags),
		exceptionsCmd(flags),
		agentCmd(flags),
	)
	return cmd
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	c, err := config.New(flags.configFile)
	if err != nil {
		return nil, err
	}
	logging.Init(c.GetEnv(), c.GetLogLevel())
	log.Debug().Str("env", c.GetEnv()).Str("tokenStore", c.GetTokenStore()).Msg("Configuration loaded")
	return c, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
