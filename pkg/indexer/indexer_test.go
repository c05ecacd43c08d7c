package indexer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kautilyadevaraj/univault/pkg/api"
	"github.com/kautilyadevaraj/univault/pkg/embedding"
	"github.com/kautilyadevaraj/univault/pkg/storage"
	"github.com/kautilyadevaraj/univault/pkg/storage/memory"
)

// recordingProvider embeds text as [len, 1] and fails for texts containing
// "poison".
type recordingProvider struct {
	mu    sync.Mutex
	texts []string
}

func (p *recordingProvider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	p.texts = append(p.texts, text)
	p.mu.Unlock()
	if strings.Contains(text, "poison") {
		return nil, embedding.ErrProvider
	}
	return []float32{float32(len(text)), 1}, nil
}

func (p *recordingProvider) Dimensions() int { return 2 }

func seedStore(t *testing.T, rs ...api.Resource) *memory.Store {
	t.Helper()
	s := memory.New()
	for _, r := range rs {
		if err := s.SaveResource(context.Background(), r); err != nil {
			t.Fatalf("SaveResource: %v", err)
		}
	}
	return s
}

func resource(id, title string, status api.Status) api.Resource {
	return api.Resource{ID: id, Title: title, Status: status, FileURL: id + ".pdf", CreatedAt: time.Now()}
}

func TestRefresh(t *testing.T) {
	r := resource("r1", "Compilers", api.StatusApproved)
	r.CourseName = api.StringPtr("CS420")
	store := seedStore(t, r)
	p := &recordingProvider{}
	ix := New(store, p, nil)

	if err := ix.Refresh(context.Background(), "r1"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	got, _ := store.GetResource(context.Background(), "r1")
	if !got.HasEmbedding() {
		t.Fatal("expected embedding to be stored")
	}
	if len(p.texts) != 1 || p.texts[0] != "Compilers CS420" {
		t.Errorf("embedded texts = %q, want [Compilers CS420]", p.texts)
	}
}

func TestRefresh_NotFound(t *testing.T) {
	ix := New(memory.New(), &recordingProvider{}, nil)

	err := ix.Refresh(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestBackfill_SkipsFailuresAndNonApproved(t *testing.T) {
	embedded := resource("done", "Already embedded", api.StatusApproved)
	embedded.Embedding = []float32{9, 9}
	store := seedStore(t,
		resource("a", "Algorithms", api.StatusApproved),
		resource("b", "poison pill", api.StatusApproved),
		resource("c", "Calculus", api.StatusApproved),
		resource("p", "Pending", api.StatusPending),
		embedded,
	)
	ix := New(store, &recordingProvider{}, nil)

	stats, err := ix.Backfill(context.Background(), BackfillOptions{Concurrency: 2})
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if stats.Total != 3 || stats.Indexed != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want total 3 indexed 2 failed 1", stats)
	}

	missing, _ := store.ListMissingEmbeddings(context.Background(), false)
	if len(missing) != 1 || missing[0] != "b" {
		t.Errorf("missing after backfill = %v, want [b]", missing)
	}

	done, _ := store.GetResource(context.Background(), "done")
	if done.Embedding[0] != 9 {
		t.Error("existing embedding should not be touched without All")
	}
}

func TestBackfill_All(t *testing.T) {
	embedded := resource("done", "Already embedded", api.StatusApproved)
	embedded.Embedding = []float32{9, 9}
	store := seedStore(t, embedded)
	ix := New(store, &recordingProvider{}, nil)

	stats, err := ix.Backfill(context.Background(), BackfillOptions{All: true})
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if stats.Indexed != 1 {
		t.Errorf("Indexed = %d, want 1", stats.Indexed)
	}

	done, _ := store.GetResource(context.Background(), "done")
	if done.Embedding[0] == 9 {
		t.Error("All should re-embed existing resources")
	}
}

func TestBackfill_Cancelled(t *testing.T) {
	store := seedStore(t, resource("a", "A", api.StatusApproved))
	ix := New(store, &recordingProvider{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ix.Backfill(ctx, BackfillOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
