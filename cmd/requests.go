package cmd

import (
	"context"
	"fmt"

	"github.com/psds-microservice/crm-service/internal/application"
	"github.com/psds-microservice/crm-service/internal/service"
	"github.com/spf13/cobra"
)

var requestsCmd = &cobra.Command{
	Use:     "requests",
	Aliases: []string{"req"},
	Short:   "Inspect and triage contact requests",
}

var (
	requestStatus string
	requestQuery  string
)

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List requests, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withServices(cmd, func(_ context.Context, svc *application.Services) error {
			items, err := svc.Requests.Search(requestStatus, requestQuery)
			if err != nil {
				return err
			}
			renderRequests(cmd.OutOrStdout(), items)
			return nil
		})
	},
}

var requestsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show request counts by status and month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withServices(cmd, func(_ context.Context, svc *application.Services) error {
			renderRequestStats(cmd.OutOrStdout(), svc.Requests.Summary())
			return nil
		})
	},
}

var requestsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one request and mark it read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *application.Services) error {
			r, err := svc.Requests.Open(ctx, args[0])
			if err != nil {
				return err
			}
			if n, ok := svc.Requests.Notice(); ok && n.Level == service.LevelError {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", n.Text)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s  [%s]\n", r.Subject, r.Status)
			fmt.Fprintf(w, "From: %s <%s>\n", r.Name, r.Email)
			fmt.Fprintf(w, "Date: %s\n\n%s\n", r.CreatedAt.Format("2006-01-02 15:04"), r.Message)
			if r.AdminNotes != "" {
				fmt.Fprintf(w, "\nNotes: %s\n", r.AdminNotes)
			}
			return nil
		})
	},
}

var requestsSetStatusCmd = &cobra.Command{
	Use:   "set-status <status> <id>...",
	Short: "Change the status of one or more requests",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *application.Services) error {
			out, err := svc.Requests.BulkSetStatus(ctx, args[1:], args[0])
			for id, reason := range out.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", id, reason)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Notice.Text)
			return nil
		})
	},
}

func init() {
	requestsListCmd.Flags().StringVar(&requestStatus, "status", "all", "filter by status (new, read, in_progress, completed, rejected, all)")
	requestsListCmd.Flags().StringVarP(&requestQuery, "query", "q", "", "case-insensitive text search")
	requestsCmd.AddCommand(requestsListCmd, requestsStatsCmd, requestsShowCmd, requestsSetStatusCmd)
	rootCmd.AddCommand(requestsCmd)
}
