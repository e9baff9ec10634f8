package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStoreReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte("collections:\n  - name: articles\n    fields: []\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	st, err := NewStore(path, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if !st.CollectionExists("articles") {
		t.Fatalf("initial snapshot missing collection")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := st.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := os.WriteFile(path, []byte("collections:\n  - name: tags\n    fields: []\n"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for !st.CollectionExists("tags") {
		if time.Now().After(deadline) {
			t.Fatalf("snapshot not reloaded")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStoreMissingFile(t *testing.T) {
	if _, err := NewStore(filepath.Join(t.TempDir(), "missing.yaml"), slog.Default()); err == nil {
		t.Fatalf("expected error")
	}
}
