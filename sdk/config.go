package sdk

import (
	"go.uber.org/zap"

	"github.com/faciam-dev/gcrb/pkg/catalog"
	"github.com/faciam-dev/gcrb/pkg/relation"
)

// DBConfig specifies database connection parameters for catalog scans.
type DBConfig struct {
	Driver string // mysql|postgres
	DSN    string
	Schema string
}

// ServiceConfig holds optional configuration for Service.
type ServiceConfig struct {
	Logger *zap.SugaredLogger
	// Catalog backs derivation sessions. Defaults to an empty snapshot.
	Catalog catalog.Catalog
	// Options tunes the sessions the service opens.
	Options relation.Options
}
