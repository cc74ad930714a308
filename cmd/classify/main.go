// Command classify executes one shorts classification pass and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"madtown/video-aggregator/internal/config"
	"madtown/video-aggregator/internal/db"
	"madtown/video-aggregator/internal/db/repository"
	"madtown/video-aggregator/internal/shorts"
	"madtown/video-aggregator/pkg/logger"
)

func main() {
	var (
		recomputeAll bool
		light        bool
		syncURLs     bool
		limit        int
	)
	flag.BoolVar(&recomputeAll, "recompute", false, "Revisit already classified videos")
	flag.BoolVar(&light, "light", false, "Use the cheap strategy without page fetches")
	flag.BoolVar(&syncURLs, "sync-urls", false, "Refresh the shorts-playable flags instead of classifying")
	flag.IntVar(&limit, "limit", 500, "Maximum videos to process")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close(pool)

	videoRepo := repository.NewVideoRepository(pool)
	prober := shorts.NewPageProber(logger.Named("prober"))

	if syncURLs {
		syncer := shorts.NewURLSyncer(videoRepo, prober, cfg.Shorts.PacingDelay, logger.Named("shorts"))
		updated, err := syncer.Run(ctx, limit)
		if err != nil {
			logger.Log.Error("shorts url sync failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Log.Info("shorts url sync succeeded", zap.Int("updated", updated))
		return
	}

	thresholds := shorts.Thresholds{
		DurationCutoffSeconds:      cfg.Shorts.DurationCutoffSeconds,
		LightDurationCutoffSeconds: cfg.Shorts.LightDurationCutoffSeconds,
		LongFormCutoffSeconds:      cfg.Shorts.LongFormCutoffSeconds,
		ScoreThreshold:             cfg.Shorts.ScoreThreshold,
	}
	strategy := shorts.PageSignalStrategy(thresholds)
	if light {
		strategy = shorts.LightStrategy(thresholds)
	}

	classifier := shorts.NewClassifier(videoRepo, prober, strategy, cfg.Shorts.PacingDelay, logger.Named("shorts"))
	result, err := classifier.Run(ctx, recomputeAll, limit)
	if err != nil {
		logger.Log.Error("classification failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Log.Info("classification succeeded",
		zap.String("strategy", strategy.Name),
		zap.Int("total", result.Total),
		zap.Int("shorts", result.Shorts),
		zap.Int("long_form", result.LongForm),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed))
}
