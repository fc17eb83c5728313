/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the warehouse ledger server. Handles
  configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Resolve configuration (defaults, YAML file, flags, environment)
  2. Build the zap logger
  3. Open the SQLite store
  4. Wire orchestrator, handlers and router
  5. Start the server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/warehouse.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on a different address with a config file
  ./server -config=./config.yaml -addr=":3000"

SEE ALSO:
  - config/config.go: Configuration layers and environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/warehouse-ledger/api"
	"github.com/warp/warehouse-ledger/config"
	"github.com/warp/warehouse-ledger/store/sqlite"
	"github.com/warp/warehouse-ledger/warehouse"
)

func main() {
	cfg, err := config.New(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to resolve configuration: %v", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatalw("failed to initialize database", "path", cfg.DatabasePath, "error", err)
	}
	defer store.Close()

	orch := warehouse.New(store, logger)
	handler := api.NewHandler(store, orch, logger)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infow("server starting", "addr", cfg.Addr, "db", cfg.DatabasePath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infow("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalw("forced shutdown", "error", err)
	}

	logger.Infow("server stopped")
}
