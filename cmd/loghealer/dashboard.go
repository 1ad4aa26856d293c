package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jrsteele09/loghealer-client/api"
	"github.com/jrsteele09/loghealer-client/auth"
	"github.com/spf13/cobra"
)

func statsCmd(flags *rootFlags) *cobra.Command {
	var projectID, timeRange string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := signedInApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.api.DashboardStats(cmd.Context(), projectID, timeRange)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(stats)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Logs\t%d\n", stats.TotalLogs)
			fmt.Fprintf(w, "Errors\t%d\n", stats.TotalErrors)
			fmt.Fprintf(w, "Warnings\t%d\n", stats.TotalWarnings)
			fmt.Fprintf(w, "Exception groups\t%d\n", stats.TotalExceptionGroups)
			fmt.Fprintf(w, "New\t%d\n", stats.NewExceptions)
			fmt.Fprintf(w, "Resolved\t%d\n", stats.ResolvedExceptions)
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&projectID, "project", "p", "", "project id (all projects when empty)")
	cmd.Flags().StringVarP(&timeRange, "range", "r", "24h", "time range")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func exceptionsCmd(flags *rootFlags) *cobra.Command {
	var query api.ExceptionQuery
	var status string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "exceptions [id]",
		Short: "List exception groups, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := signedInApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 1 {
				group, err := a.api.Exception(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(group)
			}

			query.Status = api.ExceptionStatus(status)
			groups, err := a.api.Exceptions(cmd.Context(), query)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(groups)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tCOUNT\tLAST SEEN\tEXCEPTION")
			for _, g := range groups {
				lastSeen := "-"
				if !g.LastSeen.IsZero() {
					lastSeen = g.LastSeen.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", g.ID, g.Status, g.Count, lastSeen, g.ExceptionClass)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&query.ProjectID, "project", "p", "", "project id")
	cmd.Flags().StringVarP(&status, "status", "s", "", "NEW, IN_PROGRESS, RESOLVED or IGNORED")
	cmd.Flags().IntVar(&query.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&query.Size, "size", 20, "page size")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func agentCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Work with code fix agents",
	}

	watch := &cobra.Command{
		Use:   "watch <agent-id>",
		Short: "Poll an agent until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := signedInApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			poller := api.NewAgentPoller(a.api, a.cfg.GetAgentPollInterval())
			final, err := poller.Watch(cmd.Context(), args[0], func(status *api.AgentResponse) {
				fmt.Printf("%s: %s\n", args[0], status.Status)
			})
			if final != nil && final.Status == api.AgentFinished {
				if final.PRURL != "" {
					fmt.Printf("Pull request: %s\n", final.PRURL)
				}
				for _, m := range final.Conversation {
					fmt.Printf("[%s] %s\n", m.Type, m.Text)
				}
			}
			return err
		},
	}

	cmd.AddCommand(watch)
	return cmd
}

// signedInApp wires the app for an API command and requires a session.
func signedInApp(cmd *cobra.Command, flags *rootFlags) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg, auth.NopNavigator{})
	if err != nil {
		return nil, err
	}
	if err := a.requireSession(cmd.Context()); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
