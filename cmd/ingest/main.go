// Command ingest executes one discovery run and exits. It is meant to be
// invoked from cron or a job scheduler.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"madtown/video-aggregator/internal/config"
	"madtown/video-aggregator/internal/db"
	"madtown/video-aggregator/internal/db/repository"
	"madtown/video-aggregator/internal/service"
	"madtown/video-aggregator/internal/youtube"
	"madtown/video-aggregator/pkg/logger"
)

func main() {
	var mode string
	flag.StringVar(&mode, "mode", "channel", "Run mode: channel, query or uploads")
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

	watermark, err := time.Parse(time.RFC3339, cfg.YouTube.DefaultWatermark)
	if err != nil {
		logger.Log.Fatal("invalid default watermark", zap.Error(err))
	}

	client, err := youtube.NewClient(cfg.YouTube.APIKeys, logger.Named("youtube"))
	if err != nil {
		logger.Log.Fatal("failed to initialize API client", zap.Error(err))
	}

	videoRepo := repository.NewVideoRepository(pool)
	channelRepo := repository.NewChannelRepository(pool)
	quotaRecorder := service.NewQuotaRecorder(repository.NewQuotaLogRepository(pool), logger.Named("quota"))

	var publisher service.RunPublisher
	if cfg.RabbitMQ.Enabled {
		sp, err := service.NewSummaryPublisher(&cfg.RabbitMQ)
		if err != nil {
			logger.Log.Warn("failed to initialize RabbitMQ publisher, run summary will not be published",
				zap.Error(err))
		} else {
			defer sp.Close() //nolint:errcheck
			publisher = sp
		}
	}

	log := logger.Named("ingest")
	ingestor := service.NewIngestor(
		videoRepo,
		channelRepo,
		service.NewChannelResolver(client, channelRepo, log),
		service.NewDiscoverer(client, service.DiscoveryConfig{
			RelevanceKeyword:     cfg.YouTube.RelevanceKeyword,
			RequireTitleKeyword:  true,
			MaxDurationSeconds:   cfg.Pipeline.MaxDurationSeconds,
			MaxResultsPerChannel: cfg.Pipeline.MaxResultsPerChannel,
			QueryPageSize:        youtube.MaxBatchSize,
			Season:               cfg.YouTube.Season,
			PacingDelay:          cfg.Pipeline.PacingDelay,
		}, log),
		client,
		quotaRecorder,
		publisher,
		service.IngestConfig{
			ActiveWindow:      time.Duration(cfg.Pipeline.ActiveWindowDays) * 24 * time.Hour,
			MaxChannelsPerRun: cfg.Pipeline.MaxChannelsPerRun,
			DefaultWatermark:  watermark,
			SearchQuery:       cfg.YouTube.SearchQuery,
			PacingDelay:       cfg.Pipeline.PacingDelay,
		},
		log,
	)

	var summary *service.RunSummary
	switch mode {
	case "channel":
		summary, err = ingestor.Run(ctx)
	case "query":
		summary, err = ingestor.RunQuery(ctx)
	case "uploads":
		backfiller := service.NewUploadsBackfiller(client, channelRepo, log)
		filled, skipped, err := backfiller.Run(ctx)
		if err != nil {
			logger.Log.Error("uploads backfill failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Log.Info("uploads backfill succeeded",
			zap.Int("filled", filled), zap.Int("skipped", skipped))
		return
	default:
		logger.Log.Fatal("unknown mode", zap.String("mode", mode))
	}

	if err != nil {
		logger.Log.Error("discovery run failed",
			zap.String("run_id", summary.RunID.String()),
			zap.Error(err))
		os.Exit(1)
	}

	logger.Log.Info("discovery run succeeded",
		zap.String("run_id", summary.RunID.String()),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated))
}
