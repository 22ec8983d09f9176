package cmd

import (
	"context"
	"fmt"

	"github.com/psds-microservice/crm-service/internal/application"
	"github.com/spf13/cobra"
)

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Inspect and move project tickets",
}

var (
	ticketStatus string
	ticketQuery  string
)

var ticketsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickets, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withServices(cmd, func(_ context.Context, svc *application.Services) error {
			items, err := svc.Tickets.Search(ticketStatus, ticketQuery)
			if err != nil {
				return err
			}
			renderTickets(cmd.OutOrStdout(), items)
			return nil
		})
	},
}

var ticketsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show ticket counts, urgent tickets and estimated revenue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withServices(cmd, func(_ context.Context, svc *application.Services) error {
			renderTicketStats(cmd.OutOrStdout(), svc.Tickets.Summary())
			return nil
		})
	},
}

var ticketsAdvanceCmd = &cobra.Command{
	Use:   "advance <id>",
	Short: "Move a ticket to the next status (open, in_progress, completed)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *application.Services) error {
			out, err := svc.Tickets.Advance(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Notice.Text)
			return nil
		})
	},
}

var ticketsSetStatusCmd = &cobra.Command{
	Use:   "set-status <id> <status>",
	Short: "Set the status of a ticket",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *application.Services) error {
			out, err := svc.Tickets.SetStatus(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Notice.Text)
			return nil
		})
	},
}

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List clients with their ticket counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withServices(cmd, func(ctx context.Context, svc *application.Services) error {
			clients, err := svc.Tickets.Clients(ctx)
			if err != nil {
				return err
			}
			renderClients(cmd.OutOrStdout(), clients)
			return nil
		})
	},
}

func init() {
	ticketsListCmd.Flags().StringVar(&ticketStatus, "status", "all", "filter by status (open, in_progress, completed, all)")
	ticketsListCmd.Flags().StringVarP(&ticketQuery, "query", "q", "", "case-insensitive text search")
	ticketsCmd.AddCommand(ticketsListCmd, ticketsStatsCmd, ticketsAdvanceCmd, ticketsSetStatusCmd)
	rootCmd.AddCommand(ticketsCmd, clientsCmd)
}
