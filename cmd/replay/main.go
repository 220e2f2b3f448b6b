// replay serves one recorded trading day over the bridge's WebSocket
// transport. Consumers built against the live bridge connect unmodified.
// Usage: replay --config configs/bridge.local.yaml --date 2026-01-05 --speed 10
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maheshdev/marketbridge/internal/broadcast"
	"github.com/maheshdev/marketbridge/internal/config"
	"github.com/maheshdev/marketbridge/internal/database"
	"github.com/maheshdev/marketbridge/internal/metrics"
	"github.com/maheshdev/marketbridge/internal/model"
	"github.com/maheshdev/marketbridge/internal/replay"
	"github.com/maheshdev/marketbridge/internal/store"
	"github.com/maheshdev/marketbridge/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/bridge.local.yaml", "path to config file")
	date := flag.String("date", "", "target trading date (YYYY-MM-DD)")
	speed := flag.Float64("speed", 1, "playback speed multiplier; 999 plays instantly")
	start := flag.String("start", "", "first bucket (HH:MM), default from config")
	end := flag.String("end", "", "last bucket (HH:MM), default from config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *date == "" {
		logger.Error("--date is required")
		os.Exit(1)
	}

	logger.Info("starting replay",
		"version", version.Version,
		"date", *date,
		"speed", *speed,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	startBucket := cfg.Replay.StartTime
	if *start != "" {
		startBucket = *start
	}
	endBucket := cfg.Replay.EndTime
	if *end != "" {
		endBucket = *end
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	snapshots := store.New(db, logger)

	m := metrics.New()
	hub := broadcast.NewHub(logger, m)

	mux := http.NewServeMux()
	mux.Handle("/", hub)

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

	engine, err := replay.New(ctx, replay.Config{
		Date:    *date,
		Start:   startBucket,
		End:     endBucket,
		Speed:   *speed,
		Indices: cfg.Symbols.Indices,
		Grace:   cfg.Replay.StartupGrace,
	}, snapshots, hub, logger, m)
	if err != nil {
		logger.Error("failed to load replay", "error", err)
		os.Exit(1)
	}

	if err := engine.Run(ctx); err != nil {
		logger.Error("playback aborted", "error", err)
		os.Exit(1)
	}

	// Playback is complete but the transport stays open so a client can
	// still inspect final state. Terminate with a signal.
	logger.Info("playback completed, transport stays open",
		"state", engine.State().String(),
		"buckets", bucketCount(startBucket, endBucket),
	)
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	hub.Close()
	wsServer.Shutdown(shutdownCtx)
	logger.Info("replay stopped")
}

func bucketCount(start, end string) int {
	buckets, err := model.BucketRange(start, end)
	if err != nil {
		return 0
	}
	return len(buckets)
}
