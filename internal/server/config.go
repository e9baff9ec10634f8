package server

import (
	"context"
	"database/sql"
	"time"

	"github.com/faciam-dev/gcrb/internal/driver/mysql"
	"github.com/faciam-dev/gcrb/internal/driver/postgres"
	"github.com/faciam-dev/gcrb/internal/logger"
	"github.com/faciam-dev/gcrb/pkg/catalog"
	"github.com/faciam-dev/gcrb/pkg/util"
)

// Config selects the catalog source for the API server.
type Config struct {
	// CatalogPath is the YAML snapshot to serve from (hot-reloaded). Empty
	// when the catalog is scanned from a live database instead.
	CatalogPath string
	// Driver and DSN select a database to scan at startup.
	Driver string
	DSN    string
	// Schema is the database schema to scan.
	Schema string
}

// NewCatalog builds the catalog configured by cfg: a hot-reloaded YAML store,
// a one-time database scan, or an empty snapshot when neither is set.
func NewCatalog(ctx context.Context, cfg Config) (catalog.Catalog, error) {
	if cfg.CatalogPath != "" {
		st, err := catalog.NewStore(cfg.CatalogPath, logger.L)
		if err != nil {
			return nil, err
		}
		if err := st.Start(ctx); err != nil {
			return nil, err
		}
		return st, nil
	}
	if cfg.DSN == "" {
		return catalog.NewSnapshot(), nil
	}
	db, err := sql.Open(cfg.Driver, util.NormalizeDSN(cfg.Driver, cfg.DSN))
	if err != nil {
		return nil, err
	}
	defer db.Close()
	scanCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if cfg.Driver == "mysql" {
		return mysql.NewScanner(db).Scan(scanCtx, cfg.Schema)
	}
	return postgres.NewScanner(db).Scan(scanCtx, cfg.Schema)
}
