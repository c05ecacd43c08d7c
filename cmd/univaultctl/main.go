// Package main is the entry point for univaultctl, the univault admin CLI.
// It reads the same configuration as the server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kautilyadevaraj/univault/pkg/config"
	"github.com/kautilyadevaraj/univault/pkg/debug"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the univaultctl CLI.
var rootCmd = &cobra.Command{
	Use:   "univaultctl",
	Short: "Administer a univault search deployment",
	Long: `univaultctl runs maintenance tasks against the univault resource store:
schema migrations, embedding backfills and ad-hoc searches.

Configuration is shared with the server: a YAML file located via --config,
UNIVAULT_CONFIG, ./config.yaml or /etc/univault/config.yaml, overlaid with
UNIVAULT_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config.yaml or /etc/univault/config.yaml)")
}

// loadConfig loads the configuration named by the --config flag and sets
// up logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
