package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"madtown/video-aggregator/internal/db/repository"
	"madtown/video-aggregator/internal/youtube"
)

// StatsResult is the outcome of one stats refresh pass.
type StatsResult struct {
	Scanned    int `json:"scanned"`
	Updated    int `json:"updated"`
	Failed     int `json:"failed"`
	QuotaUnits int `json:"quota_units"`
}

// StatsConfig holds the tunables of the stats refresh pass.
type StatsConfig struct {
	// StaleAfter is how old a row's last refresh may be before it is due.
	StaleAfter time.Duration

	// BatchLimit caps the rows refreshed in one pass.
	BatchLimit int

	// PacingDelay is the pause between metadata batches.
	PacingDelay time.Duration
}

// StatsRefresher re-fetches view and like counts for videos whose stored
// stats have gone stale.
type StatsRefresher struct {
	source VideoSource
	videos repository.VideoRepository
	quota  *QuotaRecorder
	cfg    StatsConfig
	log    *zap.Logger
}

// NewStatsRefresher wires a stats refresh pass. quota may be nil.
func NewStatsRefresher(source VideoSource, videos repository.VideoRepository, quota *QuotaRecorder, cfg StatsConfig, log *zap.Logger) *StatsRefresher {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatsRefresher{source: source, videos: videos, quota: quota, cfg: cfg, log: log}
}

// Run refreshes stale rows in batches. A failed batch is skipped unless the
// failure is credential exhaustion, which aborts the pass.
func (s *StatsRefresher) Run(ctx context.Context) (*StatsResult, error) {
	result := &StatsResult{}
	defer func() {
		if s.source != nil {
			result.QuotaUnits = s.source.EstimatedUnits()
		}
		s.quota.Record(ctx, RunLabelStatsRefresh, result.QuotaUnits)
	}()

	cutoff := time.Now().UTC().Add(-s.cfg.StaleAfter)
	stale, err := s.videos.ListStaleStats(ctx, cutoff, s.cfg.BatchLimit)
	if err != nil {
		return result, fmt.Errorf("list stale stats: %w", err)
	}
	result.Scanned = len(stale)
	if len(stale) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(stale))
	for _, v := range stale {
		ids = append(ids, v.VideoID)
	}

	batches := youtube.BatchIDs(ids, youtube.MaxBatchSize)
	for i, batch := range batches {
		details, err := s.source.FetchDetails(ctx, batch)
		if err != nil {
			if errors.Is(err, youtube.ErrCredentialsExhausted) {
				return result, err
			}
			result.Failed += len(batch)
			s.log.Warn("stats batch fetch failed", zap.Int("batch", i), zap.Error(err))
			continue
		}

		for _, det := range details {
			if err := s.videos.UpdateStats(ctx, det.VideoID, det.ViewCount, det.LikeCount); err != nil {
				result.Failed++
				s.log.Warn("stats write failed", zap.String("video_id", det.VideoID), zap.Error(err))
				continue
			}
			result.Updated++
		}

		if s.cfg.PacingDelay > 0 && i < len(batches)-1 {
			select {
			case <-time.After(s.cfg.PacingDelay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}

	s.log.Info("stats refresh finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed))

	return result, nil
}
