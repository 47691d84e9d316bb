package runs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AnniekStok/track-curator/pkg/graph"
	"github.com/AnniekStok/track-curator/pkg/model"
	"github.com/AnniekStok/track-curator/pkg/solver"
)

func TestSaveAssignsIDAndRoundTrips(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	run := &Run{
		Name: "first run",
		Detections: []graph.Detection{
			{ID: "a", T: 0, Position: []float64{10, 10}},
			{ID: "b", T: 1, Position: []float64{11, 10}},
		},
		Params: solver.DefaultParams(),
		Pins:   []model.Pin{{Source: "a", Target: "b", Pinned: true}},
		Forks:  []string{"a"},
	}

	if err := store.Save(run); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("Save should assign an id")
	}
	if run.CreatedAt.IsZero() {
		t.Fatal("Save should assign a creation time")
	}

	loaded, err := store.Load(run.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != "first run" {
		t.Errorf("loaded name = %q, want %q", loaded.Name, "first run")
	}
	if len(loaded.Detections) != 2 {
		t.Errorf("loaded %d detections, want 2", len(loaded.Detections))
	}
	if loaded.Params.MaxEdgeDistance != run.Params.MaxEdgeDistance {
		t.Errorf("max edge distance = %v, want %v",
			loaded.Params.MaxEdgeDistance, run.Params.MaxEdgeDistance)
	}
	if len(loaded.Pins) != 1 || !loaded.Pins[0].Pinned {
		t.Errorf("loaded pins = %v, want one pinned edge", loaded.Pins)
	}
}

func TestLoadMissingRun(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if _, err := store.Load("no-such-run"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Load of missing run = %v, want ErrNotFound", err)
	}
	if err := store.Delete("no-such-run"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Delete of missing run = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirstSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	older := &Run{Name: "older", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &Run{Name: "newer"}
	for _, run := range []*Run{older, newer} {
		if err := store.Save(run); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	// A non-run JSON file in the directory must not break listing.
	if err := os.WriteFile(filepath.Join(dir, "notes.json"), []byte("[1,2"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	infos, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("listed %d runs, want 2", len(infos))
	}
	if infos[0].Name != "newer" || infos[1].Name != "older" {
		t.Errorf("list order = [%s %s], want newest first", infos[0].Name, infos[1].Name)
	}
}

func TestDeleteRemovesRun(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	run := &Run{Name: "short-lived"}
	if err := store.Save(run); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(run.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load(run.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Load after Delete = %v, want ErrNotFound", err)
	}
}
