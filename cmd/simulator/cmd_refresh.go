package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"strategy-sim-go/internal/marketdata"
	"strategy-sim-go/internal/pricecache"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Keep live quotes for the configured symbols in redis",
	Long: `Fetch quotes for price_cache.symbols every price_cache.interval and store them
in redis with price_cache.ttl. Runs until interrupted, or once with --once.`,
	RunE: runRefresh,
}

var refreshOnce bool

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().BoolVar(&refreshOnce, "once", false, "Refresh a single time and exit")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rdb := pricecache.NewRedisClient(cfg.PriceCache.RedisAddr)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to redis", zap.String("addr", cfg.PriceCache.RedisAddr), zap.Error(err))
		return err
	}

	client := marketdata.NewClient(cfg.MarketData, log)
	refresher := pricecache.NewRefresher(cfg.PriceCache, rdb, client, log)
	if refreshOnce {
		return refresher.RefreshOnce(ctx)
	}
	refresher.Run(ctx)
	log.Info("Refresher has been shut down.")
	return nil
}
