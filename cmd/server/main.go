package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"madtown/video-aggregator/internal/config"
	"madtown/video-aggregator/internal/db"
	"madtown/video-aggregator/internal/db/repository"
	"madtown/video-aggregator/internal/handler"
	"madtown/video-aggregator/internal/metrics"
	"madtown/video-aggregator/internal/service"
	"madtown/video-aggregator/internal/shorts"
	"madtown/video-aggregator/internal/youtube"
	"madtown/video-aggregator/pkg/logger"
)

func main() {
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

	ctx := context.Background()
	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close(pool)

	logger.Log.Info("database connection established",
		zap.Int("max_conns", cfg.Database.MaxConnections))
	metrics.RegisterPoolGauges(pool)

	videoRepo := repository.NewVideoRepository(pool)
	channelRepo := repository.NewChannelRepository(pool)
	quotaRepo := repository.NewQuotaLogRepository(pool)
	quotaRecorder := service.NewQuotaRecorder(quotaRepo, logger.Named("quota"))

	var publisher *service.SummaryPublisher
	if cfg.RabbitMQ.Enabled {
		publisher, err = service.NewSummaryPublisher(&cfg.RabbitMQ)
		if err != nil {
			logger.Log.Warn("failed to initialize RabbitMQ publisher, run summaries will not be published",
				zap.Error(err))
		} else {
			defer publisher.Close() //nolint:errcheck
		}
	}

	pipe, err := newPipeline(cfg, videoRepo, channelRepo, quotaRecorder, publisher)
	if err != nil {
		logger.Log.Fatal("failed to wire pipeline", zap.Error(err))
	}

	runHandler := handler.NewRunHandler(pipe, classifierRunner{pipe}, statsRunner{pipe})
	quotaHandler := handler.NewQuotaHandler(quotaRepo)

	var brokerHealth handler.BrokerHealth
	if publisher != nil {
		brokerHealth = publisher
	}
	healthHandler := handler.NewHealthHandler(pool, brokerHealth)

	router := handler.NewRouter(runHandler, quotaHandler, healthHandler, cfg.Admin.APITokens)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("forced shutdown", zap.Error(err))
	}
}

// pipeline builds a fresh API client per triggered run so each run gets its
// own credential rotation and quota accounting.
type pipeline struct {
	cfg          *config.Config
	videos       repository.VideoRepository
	channels     repository.ChannelRepository
	quota        *service.QuotaRecorder
	publisher    service.RunPublisher
	prober       *shorts.PageProber
	ingestCfg    service.IngestConfig
	discoveryCfg service.DiscoveryConfig
}

// classifierRunner and statsRunner adapt the pipeline to the handler
// interfaces; all three runners share one method name.
type classifierRunner struct{ p *pipeline }

func (c classifierRunner) Run(ctx context.Context, recomputeAll bool, limit int) (*shorts.Result, error) {
	return c.p.RunClassifier(ctx, recomputeAll, limit)
}

type statsRunner struct{ p *pipeline }

func (s statsRunner) Run(ctx context.Context) (*service.StatsResult, error) {
	return s.p.RunStats(ctx)
}

func newPipeline(
	cfg *config.Config,
	videos repository.VideoRepository,
	channels repository.ChannelRepository,
	quota *service.QuotaRecorder,
	publisher *service.SummaryPublisher,
) (*pipeline, error) {
	watermark, err := time.Parse(time.RFC3339, cfg.YouTube.DefaultWatermark)
	if err != nil {
		return nil, fmt.Errorf("parse default watermark: %w", err)
	}

	p := &pipeline{
		cfg:      cfg,
		videos:   videos,
		channels: channels,
		quota:    quota,
		prober:   shorts.NewPageProber(logger.Named("prober")),
		discoveryCfg: service.DiscoveryConfig{
			RelevanceKeyword:     cfg.YouTube.RelevanceKeyword,
			RequireTitleKeyword:  true,
			MaxDurationSeconds:   cfg.Pipeline.MaxDurationSeconds,
			MaxResultsPerChannel: cfg.Pipeline.MaxResultsPerChannel,
			QueryPageSize:        youtube.MaxBatchSize,
			Season:               cfg.YouTube.Season,
			PacingDelay:          cfg.Pipeline.PacingDelay,
		},
		ingestCfg: service.IngestConfig{
			ActiveWindow:      time.Duration(cfg.Pipeline.ActiveWindowDays) * 24 * time.Hour,
			MaxChannelsPerRun: cfg.Pipeline.MaxChannelsPerRun,
			DefaultWatermark:  watermark,
			SearchQuery:       cfg.YouTube.SearchQuery,
			PacingDelay:       cfg.Pipeline.PacingDelay,
		},
	}
	if publisher != nil {
		p.publisher = publisher
	}

	return p, nil
}

func (p *pipeline) newIngestor() (*service.Ingestor, error) {
	client, err := youtube.NewClient(p.cfg.YouTube.APIKeys, logger.Named("youtube"))
	if err != nil {
		return nil, err
	}

	log := logger.Named("ingest")
	return service.NewIngestor(
		p.videos,
		p.channels,
		service.NewChannelResolver(client, p.channels, log),
		service.NewDiscoverer(client, p.discoveryCfg, log),
		client,
		p.quota,
		p.publisher,
		p.ingestCfg,
		log,
	), nil
}

func (p *pipeline) Run(ctx context.Context) (*service.RunSummary, error) {
	in, err := p.newIngestor()
	if err != nil {
		return nil, err
	}
	return in.Run(ctx)
}

func (p *pipeline) RunQuery(ctx context.Context) (*service.RunSummary, error) {
	in, err := p.newIngestor()
	if err != nil {
		return nil, err
	}
	return in.RunQuery(ctx)
}

func (p *pipeline) RunClassifier(ctx context.Context, recomputeAll bool, limit int) (*shorts.Result, error) {
	classifier := shorts.NewClassifier(
		p.videos,
		p.prober,
		shorts.PageSignalStrategy(shorts.Thresholds{
			DurationCutoffSeconds:      p.cfg.Shorts.DurationCutoffSeconds,
			LightDurationCutoffSeconds: p.cfg.Shorts.LightDurationCutoffSeconds,
			LongFormCutoffSeconds:      p.cfg.Shorts.LongFormCutoffSeconds,
			ScoreThreshold:             p.cfg.Shorts.ScoreThreshold,
		}),
		p.cfg.Shorts.PacingDelay,
		logger.Named("shorts"),
	)
	return classifier.Run(ctx, recomputeAll, limit)
}

func (p *pipeline) RunStats(ctx context.Context) (*service.StatsResult, error) {
	client, err := youtube.NewClient(p.cfg.YouTube.APIKeys, logger.Named("youtube"))
	if err != nil {
		return nil, err
	}

	refresher := service.NewStatsRefresher(client, p.videos, p.quota, service.StatsConfig{
		StaleAfter:  p.cfg.Pipeline.StatsStaleAfter,
		BatchLimit:  p.cfg.Pipeline.StatsBatchLimit,
		PacingDelay: p.cfg.Pipeline.PacingDelay,
	}, logger.Named("stats"))
	return refresher.Run(ctx)
}
