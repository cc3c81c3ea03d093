/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing (also used in error logs)
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the kiosk/cashier/manager frontends

ROUTE GROUPS:
  /health               Liveness + database ping
  /api/products         Menu (reads are public)
  /api/transactions     Orders (submission is public)
  /api/inventory/*      Stock management          [API key]
  /api/reports/*        X/Z and range reports     [API key]
  /api/business/*       Business day close        [API key]
  /*                    Static files (frontend)

AUTHENTICATION:
  When RouterConfig.APIKey is set, routes marked [API key] and product
  writes require the X-API-Key header. The kiosk only needs the public routes.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: API key check
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig holds the HTTP-facing settings.
type RouterConfig struct {
	AllowedOrigins []string
	APIKey         string
	// StaticDir holds the built frontend. Skipped when it does not exist.
	StaticDir string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", APIKeyHeader},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Kiosk routes
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Post("/transactions", h.SubmitTransaction)

		r.Group(func(r chi.Router) {
			r.Use(RequireAPIKey(cfg.APIKey))

			// Menu management
			r.Post("/products", h.CreateProduct)
			r.Put("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)
			r.Get("/products/{id}/recipe", h.GetRecipe)
			r.Put("/products/{id}/recipe", h.ReplaceRecipe)

			// Inventory routes
			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", h.ListInventory)
				r.Post("/", h.CreateInventoryItem)
				r.Get("/{id}", h.GetInventoryItem)
				r.Put("/{id}", h.UpdateInventoryItem)
			})

			r.Get("/transactions", h.ListTransactions)

			// Report routes
			r.Route("/reports", func(r chi.Router) {
				r.Get("/x-report", h.XReport)
				r.Get("/z-report", h.ZReport)
				r.Get("/sales", h.SalesReport)
				r.Get("/inventory-usage", h.InventoryUsageReport)
			})

			// Business day routes
			r.Route("/business", func(r chi.Router) {
				r.Post("/close", h.CloseBusiness)
				r.Get("/closures", h.ListClosures)
			})
		})
	})

	if cfg.StaticDir != "" {
		serveStatic(r, cfg.StaticDir)
	}

	return r
}

// serveStatic serves the built React app with index.html fallback for
// client-side routing.
func serveStatic(r chi.Router, staticDir string) {
	if _, err := os.Stat(staticDir); err != nil {
		return
	}

	fileServer := http.FileServer(http.Dir(staticDir))
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		fullPath := filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path))
		if _, err := os.Stat(fullPath); os.IsNotExist(err) {
			// SPA routing: serve index.html
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}
