package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/faciam-dev/gcrb/pkg/schema"
)

// Store watches a snapshot file and exposes the current snapshot. It
// implements Catalog by delegating to the most recently loaded snapshot, so
// long-lived sessions observe schema changes on their next catalog probe.
type Store struct {
	path   string
	logger *slog.Logger
	val    atomic.Value // *Snapshot
}

// NewStore loads the snapshot from path.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{path: path, logger: logger}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() *Snapshot {
	if v := s.val.Load(); v != nil {
		return v.(*Snapshot)
	}
	return NewSnapshot()
}

func (s *Store) load() error {
	snap, err := Load(s.path)
	if err != nil {
		return err
	}
	s.val.Store(snap)
	return nil
}

// Start watches the snapshot file for changes until ctx is done.
func (s *Store) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case ev := <-watcher.Events:
				if ev.Name == s.path && (ev.Op&(fsnotify.Write|fsnotify.Create)) != 0 {
					if err := s.load(); err != nil {
						s.logger.Warn("reload catalog snapshot", "err", err)
					} else {
						s.logger.Info("catalog snapshot reloaded")
					}
				}
			case <-ctx.Done():
				return
			case err := <-watcher.Errors:
				if err != nil {
					s.logger.Warn("catalog snapshot watch error", "err", err)
				}
			}
		}
	}()
	return nil
}

// CollectionExists implements Catalog.
func (s *Store) CollectionExists(name string) bool { return s.Snapshot().CollectionExists(name) }

// FieldExists implements Catalog.
func (s *Store) FieldExists(collection, field string) bool {
	return s.Snapshot().FieldExists(collection, field)
}

// PrimaryKey implements Catalog.
func (s *Store) PrimaryKey(collection string) (PrimaryKey, bool) {
	return s.Snapshot().PrimaryKey(collection)
}

// Field implements Catalog.
func (s *Store) Field(collection, field string) (schema.FieldRecord, bool) {
	return s.Snapshot().Field(collection, field)
}

// RelationsForField implements Catalog.
func (s *Store) RelationsForField(collection, field string) []schema.RelationRecord {
	return s.Snapshot().RelationsForField(collection, field)
}
