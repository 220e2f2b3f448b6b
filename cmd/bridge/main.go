package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maheshdev/marketbridge/internal/broadcast"
	"github.com/maheshdev/marketbridge/internal/config"
	"github.com/maheshdev/marketbridge/internal/database"
	"github.com/maheshdev/marketbridge/internal/feed"
	"github.com/maheshdev/marketbridge/internal/metrics"
	"github.com/maheshdev/marketbridge/internal/provider"
	"github.com/maheshdev/marketbridge/internal/store"
	"github.com/maheshdev/marketbridge/internal/symbol"
	"github.com/maheshdev/marketbridge/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/bridge.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting bridge",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"watchlist", len(cfg.Symbols.Watchlist),
		"indices", cfg.Symbols.Indices,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to the snapshot store
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	snapshots := store.New(db, logger)
	if err := snapshots.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// Initialize the symbol resolver. A failed bulk load is surfaced but
	// not fatal: lookups retry lazily once the catalog becomes reachable.
	resolver := symbol.New(symbol.Config{
		CatalogURL: cfg.Resolver.CatalogURL,
		CachePath:  cfg.Resolver.CachePath,
		Timeout:    cfg.Resolver.Timeout,
	}, logger)
	if err := resolver.Init(ctx); err != nil {
		logger.Error("symbol catalog load failed; resolution will retry lazily",
			"error", err,
		)
	} else {
		logger.Info("symbol resolver ready", "instruments", resolver.Size())
	}

	// Assemble the fallback chains from the ranked provider lists.
	chains := provider.Chains{}
	for _, pc := range cfg.Providers.Candles {
		chains.Candles = append(chains.Candles,
			provider.NewFeedCandleSource(newFeedClient(pc, logger), resolver, cfg.Symbols.Indices, "1minute"))
	}
	for _, pc := range cfg.Providers.Breadth {
		chains.Breadth = append(chains.Breadth,
			provider.NewFeedBreadthSource(newFeedClient(pc, logger)))
	}
	if len(chains.Candles) > 0 {
		// Last breadth tier: derive counts from watchlist candles.
		chains.Breadth = append(chains.Breadth,
			provider.NewComputedBreadthSource(chains.Candles[0], cfg.Symbols.Watchlist))
	}
	for _, pc := range cfg.Providers.Options {
		chains.Options = append(chains.Options,
			provider.NewFeedChainSource(newFeedClient(pc, logger)))
	}

	// Metrics endpoint
	m := metrics.New()

	orchestrator := provider.NewOrchestrator(snapshots, chains, logger, m)

	var metricsServer *http.Server
	if cfg.Metrics.Port > 0 {
		metricsServer = m.Serve(fmt.Sprintf(":%d", cfg.Metrics.Port), cfg.Metrics.Path)
		logger.Info("metrics server started",
			"port", cfg.Metrics.Port,
			"path", cfg.Metrics.Path,
		)
	}

	// Subscriber transport
	hub := broadcast.NewHub(logger, m)

	mux := http.NewServeMux()
	mux.Handle("/", hub)
	mux.Handle("/health", healthHandler(db, resolver, hub))

	wsServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: mux,
	}
	go func() {
		logger.Info("websocket server started", "addr", wsServer.Addr)
		if err := wsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("websocket server error", "error", err)
			cancel()
		}
	}()

	// Broadcast scheduler
	scheduler := broadcast.NewScheduler(broadcast.Config{
		CandleInterval:  cfg.Broadcast.CandleInterval,
		BreadthInterval: cfg.Broadcast.BreadthInterval,
		OptionInterval:  cfg.Broadcast.OptionInterval,
		PCRInterval:     cfg.Broadcast.PCRInterval,
		Watchlist:       cfg.Symbols.Watchlist,
		Indices:         cfg.Symbols.Indices,
	}, orchestrator, hub, logger, m)

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	logger.Info("bridge running",
		"instance_id", cfg.Instance.ID,
		"ws_url", fmt.Sprintf("ws://%s/", wsServer.Addr),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	scheduler.Stop(shutdownCtx)
	hub.Close()
	wsServer.Shutdown(shutdownCtx)
	if metricsServer != nil {
		metricsServer.Shutdown(shutdownCtx)
	}

	logger.Info("bridge stopped")
}

// newFeedClient builds a provider client from one ranked tier entry.
func newFeedClient(pc config.ProviderConfig, logger *slog.Logger) *feed.Client {
	opts := []feed.ClientOption{feed.WithLogger(logger)}
	if pc.Timeout > 0 {
		opts = append(opts, feed.WithTimeout(pc.Timeout))
	}
	return feed.NewClient(pc.Name, pc.BaseURL, pc.APIKey, opts...)
}

// healthHandler reports store, resolver and transport health.
func healthHandler(db *pgxpool.Pool, resolver *symbol.Resolver, hub *broadcast.Hub) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		if err := db.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["database"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["database"] = "connected"
		}

		health.Components["resolver"] = map[string]any{
			"initialized": resolver.Initialized(),
			"instruments": resolver.Size(),
		}
		if !resolver.Initialized() {
			health.Status = "degraded"
		}

		health.Components["subscribers"] = hub.SubscriberCount()

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})
}
