package cmd

import (
	"fmt"

	"github.com/psds-microservice/crm-service/internal/config"
	"github.com/psds-microservice/crm-service/internal/database"
	"github.com/psds-microservice/crm-service/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations of the configured backend",
	RunE:  runMigrateUp,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if err := database.MigrateUp(ctx, cfg.DatabaseURL()); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	case config.BackendSQLite:
		kv, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		_ = kv.Close()
	default:
		log.Info(ctx, "migrate up: nothing to do", "backend", cfg.StoreBackend)
		return nil
	}
	log.Info(ctx, "migrate up: ok", "backend", cfg.StoreBackend)
	return nil
}
