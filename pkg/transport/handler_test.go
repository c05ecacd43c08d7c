package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/kautilyadevaraj/univault/pkg/search"
)

func TestSearcherFuncAdapter(t *testing.T) {
	var received search.Request

	fn := SearcherFunc(func(ctx context.Context, req search.Request, page search.Page) (*search.Response, error) {
		received = req
		return &search.Response{Mode: req.Mode}, nil
	})

	var _ Searcher = fn

	req := search.Normalize("linear algebra", false, "title")
	resp, err := fn.Search(context.Background(), req, search.Page{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received.Query != "linear algebra" || received.Sort != search.SortTitle {
		t.Errorf("received = %+v", received)
	}
	if resp.Mode != search.ModeLexical {
		t.Errorf("Mode = %v, want lexical", resp.Mode)
	}
}

func TestHealthCheckerFuncAdapter(t *testing.T) {
	want := errors.New("db down")
	var hc HealthChecker = HealthCheckerFunc(func(context.Context) error { return want })

	if err := hc.HealthCheck(context.Background()); !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}
