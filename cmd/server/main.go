/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Piggy ledger server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load configuration
  2. Initialize SQLite key-value store
  3. Build snapshot store, ledger engine, spend journal
  4. Configure HTTP router and auto top-up scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Config file path (optional; env and defaults apply without it)
  -addr    Listen address, overrides config (default from config: :8080)
  -db      SQLite database path, overrides config
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler, flush pending saves
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/piggy.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Override via environment
  PIGGY_SERVER_ADDRESS=:3000 ./server

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration loading
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/warp/piggy-engine/api"
	"github.com/warp/piggy-engine/config"
	"github.com/warp/piggy-engine/ledger"
	"github.com/warp/piggy-engine/spends"
	"github.com/warp/piggy-engine/store"
	"github.com/warp/piggy-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "config file path")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.Log.Level).Msg("invalid log level")
	}
	log = log.Level(level)

	// Initialize KV
	kv, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to open database")
	}
	defer kv.Close()

	registry := prometheus.NewRegistry()

	// Seed applies only when no persisted snapshot exists yet.
	seed := ledger.DefaultSnapshot()
	seed.CardBalanceChild = ledger.NewMoney(cfg.Ledger.SeedChildBalance)
	seed.CardBalanceParent = ledger.NewMoney(cfg.Ledger.SeedParentBalance)

	snapshots := store.New(kv,
		store.WithLogger(log.With().Str("component", "store").Logger()),
		store.WithSeed(seed),
		store.WithQuietPeriod(cfg.Save.QuietPeriod),
		store.WithRetries(cfg.Save.RetryInterval, cfg.Save.MaxRetries),
		store.WithMetrics(store.NewMetrics(registry)),
	)
	defer snapshots.Close()

	spendLog := spends.NewLog(kv,
		spends.WithLogger(log.With().Str("component", "spends").Logger()))
	engine := ledger.NewEngine(spendLog)

	// Handler and router
	handler := api.NewHandler(snapshots, engine, spendLog,
		log.With().Str("component", "api").Logger())
	router := api.NewRouter(handler, registry)

	// Auto top-up scheduler
	scheduler := api.NewTopUpScheduler(snapshots, engine,
		log.With().Str("component", "scheduler").Logger())
	scheduler.CheckInterval = cfg.Scheduler.Interval
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.Metrics = api.NewSchedulerMetrics(registry)
	scheduler.Start()
	defer scheduler.Stop()

	// Create server. WriteTimeout stays zero so the SSE change feed can
	// hold connections open.
	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Address).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
