package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tokenlens/config"
	"tokenlens/internal/aggregate"
	"tokenlens/internal/ai"
	"tokenlens/internal/cache"
	"tokenlens/internal/server"
	"tokenlens/internal/upstream/birdeye"
	"tokenlens/internal/upstream/moralis"
	"tokenlens/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(config.ResolveConfigPath(*configPath))
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Tokenlens.Name,
		"version": cfg.Tokenlens.Version,
	}).Info("starting tokenlens")

	if cfg.Moralis.APIKey == "" {
		log.WithComponent("main").Error("MORALIS_API_KEY is not set, BSC upstream calls will fail")
	}
	if cfg.Birdeye.APIKey == "" {
		log.WithComponent("main").Warn("BIRDEYE_API_KEY is not set, upstream calls will fail")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	store := cache.New(cfg.Cache.TokenDataTTL)
	store.StartJanitor(ctx, cfg.Cache.CleanupInterval)

	moralisClient := moralis.NewClient(cfg.Moralis)
	birdeyeClient := birdeye.NewClient(cfg.Birdeye)
	fetcher := aggregate.New(moralisClient, birdeyeClient)
	generator := ai.NewGenerator(cfg.AI)

	var prober server.BirdeyeProber
	if cfg.Birdeye.ProbeEnabled != nil && *cfg.Birdeye.ProbeEnabled {
		prober = birdeyeClient
	}

	srv := server.New(cfg.Server, fetcher, generator, prober, store, cfg.Cache.AnalyticsTTL)
	if err := srv.Run(ctx); err != nil {
		log.WithError(err).Error("http server failed")
		os.Exit(1)
	}

	log.Info("tokenlens stopped")
}
