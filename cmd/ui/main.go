package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"strategy-sim-go/internal/api"
	"strategy-sim-go/internal/config"
	"strategy-sim-go/internal/database"
	"strategy-sim-go/internal/logger"
	"strategy-sim-go/internal/marketdata"
	"strategy-sim-go/internal/pricecache"
	"strategy-sim-go/internal/simulation"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Connect to the database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	store := database.NewStore(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := marketdata.NewClient(cfg.MarketData, log)
	deps := api.Deps{
		Runner:   simulation.NewSimulator(log, simulation.NewTelemetry(registry), cfg.Simulation.Workers),
		Store:    store,
		Bars:     marketdata.NewCachedSource(store, client, log),
		Defaults: cfg.Simulation,
		Registry: registry,
		Logger:   log,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The quote endpoint and the refresher need redis; the rest of the API works without it.
	rdb := pricecache.NewRedisClient(cfg.PriceCache.RedisAddr)
	defer rdb.Close()
	pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unavailable, quote endpoint disabled", zap.String("addr", cfg.PriceCache.RedisAddr), zap.Error(err))
	} else {
		refresher := pricecache.NewRefresher(cfg.PriceCache, rdb, client, log)
		deps.Quotes = refresher
		if len(cfg.PriceCache.Symbols) > 0 {
			go refresher.Run(ctx)
		}
	}
	pingCancel()

	server := api.NewServer(cfg.Server, deps)
	server.Start()

	<-ctx.Done()
	log.Info("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server", zap.Error(err))
	}
	log.Info("Server has been shut down.")
}
