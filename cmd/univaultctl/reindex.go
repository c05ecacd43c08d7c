package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/kautilyadevaraj/univault/pkg/api"
	"github.com/kautilyadevaraj/univault/pkg/app"
	"github.com/kautilyadevaraj/univault/pkg/indexer"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Generate embeddings for approved resources",
	Long: `Reindex embeds APPROVED resources that have no embedding yet, making them
visible to semantic search. With --all every approved resource is
re-embedded, which is needed after switching embedding models. With --id
only the named resource is refreshed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		if id != "" && !api.ValidateID(id) {
			return fmt.Errorf("invalid resource id %q: want a UUID", id)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		provider := app.NewEmbedder(cfg.Embedding)
		if provider == nil {
			return errors.New("reindex requires embedding.url")
		}

		store, err := app.OpenStore(cmd.Context(), cfg.Storage, false)
		if err != nil {
			return err
		}
		defer store.Close()

		ix := indexer.New(store, provider, slog.Default())

		if id != "" {
			if err := ix.Refresh(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "refreshed %s\n", id)
			return nil
		}

		all, _ := cmd.Flags().GetBool("all")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		stats, err := ix.Backfill(cmd.Context(), indexer.BackfillOptions{
			Concurrency: concurrency,
			All:         all,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d of %d resource(s), %d failed in %s\n",
			stats.Indexed, stats.Total, stats.Failed, stats.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	reindexCmd.Flags().Bool("all", false, "re-embed every approved resource")
	reindexCmd.Flags().String("id", "", "refresh a single resource")
	reindexCmd.Flags().Int("concurrency", indexer.DefaultConcurrency, "parallel embedding calls")
	reindexCmd.MarkFlagsMutuallyExclusive("all", "id")

	rootCmd.AddCommand(reindexCmd)
}
