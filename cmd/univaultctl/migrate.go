package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kautilyadevaraj/univault/pkg/app"
	"github.com/kautilyadevaraj/univault/pkg/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database schema migrations",
	Long: `Migrate applies the embedded SQL migrations to the configured PostgreSQL
database. Already applied versions are skipped, so the command is safe to
run on every deploy.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Storage.Type != "postgres" {
			return fmt.Errorf("migrate requires storage.type postgres, got %q", cfg.Storage.Type)
		}

		store, err := app.OpenStore(cmd.Context(), cfg.Storage, false)
		if err != nil {
			return err
		}
		defer store.Close()

		applied, err := store.(*postgres.Store).Migrate(cmd.Context())
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
