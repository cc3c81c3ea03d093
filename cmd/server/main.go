/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the tea shop POS server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Build the logger
  3. Initialize SQLite store
  4. Optionally seed the demo menu
  5. Create API handler and router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides HTTP_PORT)
  -db      SQLite database path (overrides DATABASE_PATH)
           Use ":memory:" for in-memory database
  -seed    Load the demo menu into an empty database (overrides SEED_DEMO)

ENVIRONMENT:
  HTTP_PORT, DATABASE_PATH, API_KEY, LOG_LEVEL, LOG_FORMAT, TIMEZONE,
  CORS_ORIGINS, SEED_DEMO, STATIC_DIR. See config/config.go.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/teapos.db"

  # Run in memory with the demo menu
  ./server -db=":memory:" -seed

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/teapos/api"
	"github.com/warp/teapos/config"
	"github.com/warp/teapos/seed"
	"github.com/warp/teapos/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags
	port := flag.Int("port", cfg.HTTPPort, "HTTP server port")
	dbPath := flag.String("db", cfg.DatabasePath, "SQLite database path")
	seedDemo := flag.Bool("seed", cfg.SeedDemo, "load the demo menu into an empty database")
	flag.Parse()

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Initialize store
	store, err := sqlite.New(*dbPath, sqlite.WithLocation(loc), sqlite.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, logger)

	if *seedDemo {
		if _, err := seed.Load(context.Background(), handler.Catalog, logger); err != nil {
			logger.Warn("failed to seed demo menu", "error", err)
		}
	}

	if cfg.APIKey == "" {
		logger.Warn("API_KEY not set, manager routes are unauthenticated")
	}

	// Create router
	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: cfg.CORSOrigins,
		APIKey:         cfg.APIKey,
		StaticDir:      cfg.StaticDir,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", fmt.Sprintf("http://localhost:%d", *port),
			"db", *dbPath,
			"timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
