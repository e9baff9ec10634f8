// Package sdk embeds the relation derivation engine for programmatic use:
// one-shot derivations against a catalog, and catalog scans from live
// databases.
package sdk

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/faciam-dev/gcrb/internal/driver/mysql"
	"github.com/faciam-dev/gcrb/internal/driver/postgres"
	"github.com/faciam-dev/gcrb/pkg/catalog"
	"github.com/faciam-dev/gcrb/pkg/relation"
	"github.com/faciam-dev/gcrb/pkg/util"
)

// Service exposes high level operations of the relation builder.
type Service interface {
	// Derive runs a one-shot derivation and returns the settled state.
	Derive(ctx context.Context, in DeriveInput) (DeriveResult, error)
	// Scan reads schema information from a database into a catalog snapshot.
	Scan(ctx context.Context, cfg DBConfig) (*catalog.Snapshot, error)
	// Export dumps the catalog snapshot as YAML.
	Export(ctx context.Context, cfg DBConfig) ([]byte, error)
}

// New returns a Service initialized with the given configuration.
func New(cfg ServiceConfig) Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	cat := cfg.Catalog
	if cat == nil {
		cat = catalog.NewSnapshot()
	}
	opts := cfg.Options
	// One-shot callers have no event loop to wait out a window.
	opts.Debounce = relation.DebounceDisabled
	return &service{logger: logger, cat: cat, opts: opts}
}

type service struct {
	logger *zap.SugaredLogger
	cat    catalog.Catalog
	opts   relation.Options
}

func (s *service) Derive(ctx context.Context, in DeriveInput) (DeriveResult, error) {
	field := in.Field
	if field == "" {
		field = relation.NewField
	}
	sess, err := relation.Open(s.cat, in.Collection, field, in.Category, s.opts)
	if err != nil {
		return DeriveResult{}, err
	}
	defer sess.Close()
	if err := s.applyInputs(sess, in); err != nil {
		return DeriveResult{}, err
	}
	sess.Flush()
	out := DeriveResult{
		Field:          sess.Field(),
		Relations:      sess.Relations(),
		NewCollections: sess.NewCollections(),
		NewFields:      sess.NewFields(),
		Seeds:          sess.Seeds(),
		Items:          sess.Summary(),
	}
	if err := sess.Validate(); err != nil {
		out.Err = err.Error()
	}
	return out, nil
}

func (s *service) applyInputs(sess *relation.Session, in DeriveInput) error {
	if in.FieldName != "" {
		if err := sess.SetFieldName(in.FieldName); err != nil {
			return err
		}
	}
	if in.FieldType != "" {
		if err := sess.SetFieldType(in.FieldType); err != nil {
			return err
		}
	}
	if in.Note != "" {
		if err := sess.SetNote(in.Note); err != nil {
			return err
		}
	}
	if in.RelatedCollection != "" {
		if err := sess.SetRelatedCollection(in.RelatedCollection); err != nil {
			return err
		}
	}
	if in.ManyCollection != "" {
		if err := sess.SetManyCollection(in.ManyCollection); err != nil {
			return err
		}
	}
	if in.ManyField != "" {
		if err := sess.SetManyField(in.ManyField); err != nil {
			return err
		}
	}
	if in.SortField != "" {
		if err := sess.SetSortField(in.SortField); err != nil {
			return err
		}
	}
	if in.JunctionCollection != "" {
		if err := sess.SetJunctionCollection(in.JunctionCollection); err != nil {
			return err
		}
	}
	if len(in.AllowedCollections) > 0 {
		if err := sess.SetAllowedCollections(in.AllowedCollections); err != nil {
			return err
		}
	}
	if in.CollectionField != "" {
		if err := sess.SetCollectionField(in.CollectionField); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Scan(ctx context.Context, cfg DBConfig) (*catalog.Snapshot, error) {
	db, err := sql.Open(cfg.Driver, util.NormalizeDSN(cfg.Driver, cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	return scanWith(ctx, db, cfg)
}

func scanWith(ctx context.Context, db *sql.DB, cfg DBConfig) (*catalog.Snapshot, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.NewScanner(db).Scan(ctx, cfg.Schema)
	case "mysql":
		return mysql.NewScanner(db).Scan(ctx, cfg.Schema)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}

func (s *service) Export(ctx context.Context, cfg DBConfig) ([]byte, error) {
	snap, err := s.Scan(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return snap.Encode()
}
