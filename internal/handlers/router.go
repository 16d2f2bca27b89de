// internal/handlers/router.go
package handlers

import (
	"log/slog"
	"net/http"
)

// Routes holds the handlers mounted on the router. Only Inventory is
// required; the operational handlers are mounted when set.
type Routes struct {
	Inventory *InventoryHandler
	Health    *HealthHandler
	Export    *ExportHandler
	Import    *ImportHandler
	Metrics   http.Handler
}

// NewRouter registers the inventory API. Any method or path without a route
// is answered with 405.
func NewRouter(routes Routes, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	inv := routes.Inventory
	mux.HandleFunc("POST /register", inv.Register)
	mux.HandleFunc("GET /inventory", inv.List)
	mux.HandleFunc("GET /inventory/{id}", inv.Get)
	mux.HandleFunc("PUT /inventory/{id}", inv.Update)
	mux.HandleFunc("DELETE /inventory/{id}", inv.Delete)
	mux.HandleFunc("GET /inventory/{id}/photo", inv.GetPhoto)
	mux.HandleFunc("PUT /inventory/{id}/photo", inv.PutPhoto)
	mux.HandleFunc("POST /search", inv.Search)

	if routes.Health != nil {
		mux.HandleFunc("GET /health", routes.Health.Health)
		mux.HandleFunc("GET /ready", routes.Health.Readiness)
	}
	if routes.Metrics != nil {
		mux.Handle("GET /metrics", routes.Metrics)
	}
	if routes.Export != nil {
		mux.HandleFunc("GET /export", routes.Export.ExportExcel)
	}
	if routes.Import != nil {
		mux.HandleFunc("POST /import", routes.Import.ImportExcel)
	}

	mux.Handle("/", MethodNotAllowed(logger))

	return mux
}
