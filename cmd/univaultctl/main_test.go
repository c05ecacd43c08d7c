package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("UNIVAULT_CONFIG", "")
	t.Setenv("UNIVAULT_STORAGE", "memory")
	t.Setenv("UNIVAULT_EMBEDDING_URL", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != "univaultctl dev\n" {
		t.Errorf("output = %q", out)
	}
}

func TestSearchCommand_EmptyStore(t *testing.T) {
	out, err := execute(t, "search", "graph", "theory", "--sort", "title")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	var got searchOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.Mode != "lexical" || got.Total != 0 || got.Results == nil {
		t.Errorf("got %+v, want empty lexical result set", got)
	}
}

func TestSearchCommand_SemanticWithoutEmbedder(t *testing.T) {
	_, err := execute(t, "search", "graphs", "--semantic")
	if err == nil {
		t.Fatal("expected semantic search to fail without an embedding url")
	}
}

func TestReindexCommand_RequiresEmbedder(t *testing.T) {
	_, err := execute(t, "reindex")
	if err == nil || !strings.Contains(err.Error(), "embedding.url") {
		t.Fatalf("err = %v, want embedding.url error", err)
	}
}

func TestReindexCommand_RejectsMalformedID(t *testing.T) {
	t.Cleanup(func() { reindexCmd.Flags().Set("id", "") })

	for _, id := range []string{"r-graph", "7c9e6679-7425-40de"} {
		_, err := execute(t, "reindex", "--id", id)
		if err == nil || !strings.Contains(err.Error(), "invalid resource id") {
			t.Errorf("reindex --id %q: err = %v, want invalid resource id", id, err)
		}
	}

	_, err := execute(t, "reindex", "--id", "7c9e6679-7425-40de-944b-e07fc1f90ae7")
	if err == nil || !strings.Contains(err.Error(), "embedding.url") {
		t.Errorf("reindex with a valid id: err = %v, want embedding.url error", err)
	}
}

func TestMigrateCommand_RequiresPostgres(t *testing.T) {
	_, err := execute(t, "migrate")
	if err == nil || !strings.Contains(err.Error(), "postgres") {
		t.Fatalf("err = %v, want postgres error", err)
	}
}
