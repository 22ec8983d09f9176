package cmd

import (
	"context"

	"github.com/psds-microservice/crm-service/internal/application"
	"github.com/psds-microservice/crm-service/internal/clock"
	"github.com/spf13/cobra"
)

// withServices opens the configured store, loads both desks and runs fn.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, svc *application.Services) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	clk := clock.Real()

	st, err := application.OpenStores(ctx, cfg, clk, false)
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := application.NewServices(ctx, cfg, st, clk, log)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(ctx, svc)
}
