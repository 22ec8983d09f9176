package cmd

import (
	"context"
	"fmt"

	"github.com/psds-microservice/crm-service/internal/application"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample clients, tickets and contact requests into an empty store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withServices(cmd, func(ctx context.Context, svc *application.Services) error {
			res, err := application.Seed(ctx, svc)
			if err != nil {
				return err
			}
			if res == (application.SeedResult{}) {
				fmt.Fprintln(cmd.OutOrStdout(), "seed: store already has data, nothing to do")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seed: %d clients, %d tickets, %d requests\n", res.Clients, res.Tickets, res.Requests)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
