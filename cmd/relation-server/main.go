package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/faciam-dev/gcrb/internal/logger"
	"github.com/faciam-dev/gcrb/internal/server"
	"github.com/faciam-dev/gcrb/pkg/relation"
	"github.com/faciam-dev/gcrb/pkg/util"
)

func main() {
	catalogPath := flag.String("catalog", "", "YAML catalog snapshot (hot-reloaded)")
	dsn := flag.String("dsn", "", "database DSN to scan the catalog from")
	driver := flag.String("driver", "postgres", "database driver")
	dbSchema := flag.String("schema", "public", "database schema to scan")
	addr := flag.String("addr", ":8080", "listen address")
	openapi := flag.String("openapi", "", "write OpenAPI JSON and exit")
	flag.Parse()

	logger.Set(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	driverProvided := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "driver" {
			driverProvided = true
		}
	})
	if *dsn != "" {
		if detected, err := util.DetectDriver(*dsn); err != nil {
			if !driverProvided || *driver == "" {
				logger.L.Error("detect driver", "dsn", *dsn, "err", err)
				os.Exit(1)
			}
		} else if !driverProvided || *driver == "" {
			*driver = detected
		} else if detected != *driver {
			logger.L.Error("driver mismatch", "driver", *driver, "dsn", *dsn, "expected", detected)
			os.Exit(1)
		}
	}

	cfg := server.Config{CatalogPath: *catalogPath, Driver: *driver, DSN: *dsn, Schema: *dbSchema}
	cat, err := server.NewCatalog(context.Background(), cfg)
	if err != nil {
		logger.L.Error("build catalog", "err", err)
		os.Exit(1)
	}

	api, mgr := server.New(cat, relation.Options{})
	defer mgr.CloseAll()

	if *openapi != "" {
		data, err := json.MarshalIndent(api.OpenAPI(), "", "  ")
		if err != nil {
			logger.L.Error("marshal openapi", "err", err)
			os.Exit(1)
		}
		p := filepath.Clean(*openapi)
		if err := os.WriteFile(p, data, 0o600); err != nil {
			logger.L.Error("write openapi", "err", err)
			os.Exit(1)
		}
		return
	}

	logger.L.Info("listening", "addr", *addr)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.Adapter(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.L.Error("server error", "err", err)
		os.Exit(1)
	}
}
