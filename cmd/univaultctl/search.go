package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kautilyadevaraj/univault/pkg/api"
	"github.com/kautilyadevaraj/univault/pkg/app"
	"github.com/kautilyadevaraj/univault/pkg/search"
)

// searchOutput is the JSON document printed by the search command.
type searchOutput struct {
	Mode     string             `json:"mode"`
	FellBack bool               `json:"fell_back"`
	Total    int                `json:"total"`
	Results  []api.SearchResult `json:"results"`
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a search against the configured store",
	Long: `Search executes a query exactly as the HTTP API would and prints the
results as JSON. Words after the command are joined into the query.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		store, err := app.OpenStore(cmd.Context(), cfg.Storage, false)
		if err != nil {
			return err
		}
		defer store.Close()

		eng, err := app.NewEngine(cfg, store, app.NewEmbedder(cfg.Embedding))
		if err != nil {
			return err
		}

		semantic, _ := cmd.Flags().GetBool("semantic")
		sort, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		req := search.Normalize(strings.Join(args, " "), semantic, sort)
		resp, err := eng.Search(cmd.Context(), req, search.NormalizePage(limit, offset))
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		out := searchOutput{
			Mode:     resp.Mode.String(),
			FellBack: resp.FellBack,
			Total:    resp.Total,
			Results:  resp.Results,
		}
		if out.Results == nil {
			out.Results = []api.SearchResult{}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	searchCmd.Flags().Bool("semantic", false, "rank by embedding similarity")
	searchCmd.Flags().String("sort", "", "relevance, date, title, year, school, course or similarity")
	searchCmd.Flags().Int("limit", 20, "maximum number of results to print")
	searchCmd.Flags().Int("offset", 0, "number of results to skip")

	rootCmd.AddCommand(searchCmd)
}
