package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faciam-dev/gcrb/internal/api/handler"
	"github.com/faciam-dev/gcrb/internal/server/middleware"
	"github.com/faciam-dev/gcrb/pkg/catalog"
	"github.com/faciam-dev/gcrb/pkg/relation"
)

// New wires the session API onto a chi router. The returned API shares the
// given manager; callers own the catalog lifecycle.
func New(cat catalog.Catalog, opts relation.Options) (huma.API, *handler.Manager) {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	api := humachi.New(r, huma.DefaultConfig("Relation Builder API", "1.0.0"))
	api.UseMiddleware(middleware.MetricsMW)

	mgr := handler.NewManager(cat, opts)
	handler.RegisterSession(api, &handler.SessionHandler{Manager: mgr})
	return api, mgr
}
