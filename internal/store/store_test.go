package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

type record struct {
	Status string  `json:"status"`
	Score  float64 `json:"score"`
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "runs"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := s.Create(ctx, "run-1", record{Status: "pending"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Update(ctx, "run-1", record{Status: "completed", Score: 7.5}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var got record
	if err := s.Load(ctx, "run-1", &got); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Status != "completed" || got.Score != 7.5 {
		t.Errorf("loaded record = %+v", got)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	var got record
	if err := s.Load(context.Background(), "nope", &got); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestFileStoreSanitizesID(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(filepath.Join(dir, "runs"))

	if err := s.Create(context.Background(), "../escape", record{}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.json")); err == nil {
		t.Error("run record escaped the store directory")
	}
}

func TestNopStore(t *testing.T) {
	var s Store = NopStore{}
	if err := s.Create(context.Background(), "x", record{}); err != nil {
		t.Errorf("NopStore.Create returned %v", err)
	}
	if err := s.Update(context.Background(), "x", record{}); err != nil {
		t.Errorf("NopStore.Update returned %v", err)
	}
}
