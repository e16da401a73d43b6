package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rewired-gh/clobwatch/internal/config"
	"github.com/rewired-gh/clobwatch/internal/gamma"
	"github.com/rewired-gh/clobwatch/internal/logger"
	"github.com/rewired-gh/clobwatch/internal/monitor"
	"github.com/rewired-gh/clobwatch/internal/sink"
	"github.com/rewired-gh/clobwatch/internal/stream"
	"github.com/rewired-gh/clobwatch/internal/tracker"
	"github.com/rewired-gh/clobwatch/internal/volatility"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	slug       = flag.String("slug", "", "Event slug to resolve to asset IDs")
	assetList  = flag.String("asset-id", "", "Comma-separated CLOB token IDs to monitor")
)

func main() {
	// A local .env file supplements the real environment for overrides.
	_ = godotenv.Load()
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Init(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zl := logger.L()
	zl.Info("configuration loaded", zap.String("path", *configPath))

	assetIDs := resolveAssetIDs(cfg, zl)
	if len(assetIDs) == 0 {
		zl.Fatal("no asset IDs provided or resolved; pass --asset-id or --slug")
	}

	// The log sink is always attached; Telegram joins when configured.
	sinks := sink.Multi{sink.NewLogSink(zl)}
	if cfg.Telegram.Enabled {
		tg, err := sink.NewTelegramSink(cfg.Telegram, zl)
		if err != nil {
			zl.Fatal("failed to initialize Telegram sink", zap.Error(err))
		}
		zl.Info("Telegram sink initialized")
		sinks = append(sinks, tg)
	}

	pipeline := monitor.New(
		tracker.New(),
		volatility.New(volatility.Config{
			Window:           cfg.Detector.Window,
			PriceThreshold:   cfg.Detector.PriceThreshold,
			VolumeMultiplier: cfg.Detector.VolumeMultiplier,
		}),
		sinks,
		zl,
	)
	manager := stream.NewManager(cfg.Stream, assetIDs, pipeline, zl)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		zl.Info("shutdown signal received, cleaning up...")
		cancel()
	}()

	zl.Info("starting monitor",
		zap.Int("assets", len(assetIDs)),
		zap.Duration("window", cfg.Detector.Window),
		zap.Float64("price_threshold", cfg.Detector.PriceThreshold),
		zap.Float64("volume_multiplier", cfg.Detector.VolumeMultiplier))

	if err := manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zl.Fatal("stream terminated", zap.Error(err))
	}
	zl.Info("monitor stopped")
}

// resolveAssetIDs builds the instrument list from the --asset-id flag or, in
// its absence, by resolving --slug through the Gamma API.
func resolveAssetIDs(cfg *config.Config, zl *zap.Logger) []string {
	var ids []string
	for _, id := range strings.Split(*assetList, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) > 0 || *slug == "" {
		return ids
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := gamma.NewClient(cfg.Gamma).ResolveSlug(ctx, *slug)
	if err != nil {
		zl.Fatal("failed to resolve slug", zap.String("slug", *slug), zap.Error(err))
	}
	zl.Info("slug resolved",
		zap.String("slug", *slug),
		zap.String("question", res.Question),
		zap.Int("assets", len(res.AssetIDs)))
	return res.AssetIDs
}
