// Package store persists analysis runs. The pipeline only needs a
// create/update contract keyed by run ID; what the records look like on the
// other side is the collaborator's business.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is the persistence contract the pipeline writes through.
type Store interface {
	Create(ctx context.Context, id string, v any) error
	Update(ctx context.Context, id string, v any) error
}

// FileStore keeps one JSON document per run under a directory. It is the
// development default; production deployments swap in their own backend.
type FileStore struct {
	dir string
}

// NewFileStore creates the backing directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Create(ctx context.Context, id string, v any) error {
	return s.write(ctx, id, v)
}

func (s *FileStore) Update(ctx context.Context, id string, v any) error {
	return s.write(ctx, id, v)
}

// Load reads a persisted run back, for report rendering and browsing.
func (s *FileStore) Load(ctx context.Context, id string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return fmt.Errorf("reading run %s: %w", id, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing run %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) write(ctx context.Context, id string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run %s: %w", id, err)
	}
	if err := os.WriteFile(s.path(id), data, 0o644); err != nil {
		return fmt.Errorf("writing run %s: %w", id, err)
	}
	return nil
}

// path flattens the id so a hostile run identifier cannot escape the
// store directory.
func (s *FileStore) path(id string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(id)
	return filepath.Join(s.dir, safe+".json")
}

// NopStore discards everything. Used when persistence is disabled.
type NopStore struct{}

func (NopStore) Create(context.Context, string, any) error { return nil }
func (NopStore) Update(context.Context, string, any) error { return nil }
