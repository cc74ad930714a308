package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"madtown/video-aggregator/internal/db"
	"madtown/video-aggregator/internal/db/models"
	"madtown/video-aggregator/internal/db/repository"
	"madtown/video-aggregator/internal/youtube"
)

// Run labels used for quota logging and run summaries.
const (
	RunLabelChannelDiscovery = "channel-discovery"
	RunLabelQueryDiscovery   = "query-discovery"
	RunLabelStatsRefresh     = "stats-refresh"
)

// ErrNoActiveChannels means the channel list yielded nothing to scan.
var ErrNoActiveChannels = errors.New("no active channels to scan")

// RunSummary is the outcome of one discovery run.
type RunSummary struct {
	RunID      uuid.UUID `json:"run_id"`
	Label      string    `json:"label"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Watermark  time.Time `json:"watermark"`

	ChannelsScanned int `json:"channels_scanned"`
	ChannelsSkipped int `json:"channels_skipped"`
	IDCorrections   int `json:"id_corrections"`

	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Excluded int `json:"excluded"`

	QuotaUnits int    `json:"quota_units"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// RunPublisher emits a run summary to interested consumers. Implementations
// must not fail the run: errors are reported, not propagated.
type RunPublisher interface {
	PublishRunSummary(ctx context.Context, summary *RunSummary) error
}

// IngestConfig holds the orchestration tunables of a discovery run.
type IngestConfig struct {
	// ActiveWindow bounds which channels count as recently active.
	ActiveWindow time.Duration

	// MaxChannelsPerRun caps the channels scanned in one run.
	MaxChannelsPerRun int

	// DefaultWatermark seeds discovery when the store holds no videos yet.
	DefaultWatermark time.Time

	// SearchQuery drives query-mode discovery.
	SearchQuery string

	// PacingDelay is the pause between channels.
	PacingDelay time.Duration
}

// Ingestor orchestrates a discovery run: watermark, channel resolution,
// discovery, upsert and checkpoint, in that order per channel.
type Ingestor struct {
	videos    repository.VideoRepository
	channels  repository.ChannelRepository
	resolver  *ChannelResolver
	disc      *Discoverer
	source    VideoSource
	quota     *QuotaRecorder
	publisher RunPublisher
	cfg       IngestConfig
	log       *zap.Logger
}

// NewIngestor wires a discovery run orchestrator. quota and publisher may be
// nil.
func NewIngestor(
	videos repository.VideoRepository,
	channels repository.ChannelRepository,
	resolver *ChannelResolver,
	disc *Discoverer,
	source VideoSource,
	quota *QuotaRecorder,
	publisher RunPublisher,
	cfg IngestConfig,
	log *zap.Logger,
) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{
		videos:    videos,
		channels:  channels,
		resolver:  resolver,
		disc:      disc,
		source:    source,
		quota:     quota,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// Run executes one channel-mode discovery run. Per-channel failures skip the
// channel; credential exhaustion aborts the run. The returned summary is
// populated even when err is non-nil.
func (in *Ingestor) Run(ctx context.Context) (*RunSummary, error) {
	summary := in.newSummary(RunLabelChannelDiscovery)
	defer in.finish(ctx, summary)

	watermark, err := in.watermark(ctx)
	if err != nil {
		return summary, in.fail(summary, fmt.Errorf("load watermark: %w", err))
	}
	summary.Watermark = watermark

	cutoff := summary.StartedAt.Add(-in.cfg.ActiveWindow)
	channels, err := in.channels.ListActive(ctx, cutoff, in.cfg.MaxChannelsPerRun)
	if err != nil {
		return summary, in.fail(summary, fmt.Errorf("list active channels: %w", err))
	}
	if len(channels) == 0 {
		return summary, in.fail(summary, ErrNoActiveChannels)
	}

	in.log.Info("discovery run started",
		zap.String("run_id", summary.RunID.String()),
		zap.Time("watermark", watermark),
		zap.Int("channels", len(channels)))

	for i, channel := range channels {
		if err := in.scanChannel(ctx, channel, watermark, summary); err != nil {
			if errors.Is(err, youtube.ErrCredentialsExhausted) || ctx.Err() != nil {
				return summary, in.fail(summary, err)
			}
			summary.ChannelsSkipped++
			in.log.Warn("channel skipped",
				zap.String("channel_id", channel.ChannelID),
				zap.String("name", channel.Name),
				zap.Error(err))
		}

		if in.cfg.PacingDelay > 0 && i < len(channels)-1 {
			select {
			case <-time.After(in.cfg.PacingDelay):
			case <-ctx.Done():
				return summary, in.fail(summary, ctx.Err())
			}
		}
	}

	summary.Success = true
	return summary, nil
}

// RunQuery executes one query-mode discovery run across every result page.
func (in *Ingestor) RunQuery(ctx context.Context) (*RunSummary, error) {
	summary := in.newSummary(RunLabelQueryDiscovery)
	defer in.finish(ctx, summary)

	watermark, err := in.watermark(ctx)
	if err != nil {
		return summary, in.fail(summary, fmt.Errorf("load watermark: %w", err))
	}
	summary.Watermark = watermark

	videos, excluded, err := in.disc.QueryVideos(ctx, in.cfg.SearchQuery, watermark)
	summary.Excluded += excluded
	if err != nil {
		return summary, in.fail(summary, fmt.Errorf("query discovery: %w", err))
	}

	if videos = DedupeVideos(videos); len(videos) > 0 {
		inserted, updated, err := in.videos.UpsertBatch(ctx, videos)
		if err != nil {
			return summary, in.fail(summary, fmt.Errorf("upsert query results: %w", err))
		}
		summary.Inserted += inserted
		summary.Updated += updated
	}

	summary.Success = true
	return summary, nil
}

// scanChannel runs discovery for one channel. The checkpoint only advances
// after the channel's videos were written, and only when something qualified.
func (in *Ingestor) scanChannel(ctx context.Context, channel *models.Channel, watermark time.Time, summary *RunSummary) error {
	channelID, corrected, err := in.resolver.Resolve(ctx, channel)
	if err != nil {
		return err
	}
	if corrected {
		summary.IDCorrections++
	}

	videos, excluded, err := in.disc.ChannelVideos(ctx, channelID, watermark)
	summary.Excluded += excluded
	if err != nil {
		return err
	}

	summary.ChannelsScanned++
	if len(videos) == 0 {
		return nil
	}

	videos = DedupeVideos(videos)
	inserted, updated, err := in.videos.UpsertBatch(ctx, videos)
	if err != nil {
		return fmt.Errorf("upsert channel %s: %w", channelID, err)
	}
	summary.Inserted += inserted
	summary.Updated += updated

	if err := in.channels.AdvanceLastChecked(ctx, channelID, summary.StartedAt); err != nil {
		return fmt.Errorf("advance checkpoint for %s: %w", channelID, err)
	}

	return nil
}

func (in *Ingestor) watermark(ctx context.Context) (time.Time, error) {
	latest, err := in.videos.LatestPublishedAt(ctx)
	if err != nil {
		if db.IsNotFound(err) {
			return in.cfg.DefaultWatermark, nil
		}
		return time.Time{}, err
	}
	return latest, nil
}

func (in *Ingestor) newSummary(label string) *RunSummary {
	return &RunSummary{
		RunID:     uuid.New(),
		Label:     label,
		StartedAt: time.Now().UTC(),
	}
}

func (in *Ingestor) fail(summary *RunSummary, err error) error {
	summary.Success = false
	summary.Error = err.Error()
	return err
}

// finish stamps the summary, records quota usage and publishes the summary.
// Quota logging and publishing are fire-and-forget.
func (in *Ingestor) finish(ctx context.Context, summary *RunSummary) {
	summary.FinishedAt = time.Now().UTC()
	if in.source != nil {
		summary.QuotaUnits = in.source.EstimatedUnits()
	}

	in.quota.Record(ctx, summary.Label, summary.QuotaUnits)

	if in.publisher != nil {
		if err := in.publisher.PublishRunSummary(ctx, summary); err != nil {
			in.log.Warn("run summary publish failed",
				zap.String("run_id", summary.RunID.String()),
				zap.Error(err))
		}
	}

	in.log.Info("discovery run finished",
		zap.String("run_id", summary.RunID.String()),
		zap.String("label", summary.Label),
		zap.Bool("success", summary.Success),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("excluded", summary.Excluded),
		zap.Int("channels_scanned", summary.ChannelsScanned),
		zap.Int("channels_skipped", summary.ChannelsSkipped),
		zap.Int("quota_units", summary.QuotaUnits),
		zap.Duration("took", summary.FinishedAt.Sub(summary.StartedAt)))
}
