package shorts

import (
	"context"
	"time"

	"go.uber.org/zap"

	"madtown/video-aggregator/internal/db/repository"
)

// URLSyncer refreshes the stored shorts-playable flag by probing the
// short-form URL variant of every tracked video. The flag later feeds the
// classifier as a strong signal.
type URLSyncer struct {
	videos repository.VideoRepository
	prober *PageProber
	pace   time.Duration
	log    *zap.Logger
}

// NewURLSyncer creates a syncer over the given repository and prober.
func NewURLSyncer(videos repository.VideoRepository, prober *PageProber, pace time.Duration, log *zap.Logger) *URLSyncer {
	if log == nil {
		log = zap.NewNop()
	}
	return &URLSyncer{videos: videos, prober: prober, pace: pace, log: log}
}

// Run probes up to limit videos and returns how many flags were written.
// Per-video probe or write failures are logged and skipped.
func (s *URLSyncer) Run(ctx context.Context, limit int) (int, error) {
	ids, err := s.videos.ListVideoIDs(ctx, limit)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i, id := range ids {
		playable, err := s.prober.ProbeShortsURL(ctx, id)
		if err != nil {
			s.log.Warn("shorts url probe failed", zap.String("video_id", id), zap.Error(err))
		} else if err := s.videos.SetShortsPlayable(ctx, id, playable); err != nil {
			s.log.Warn("shorts playable write failed", zap.String("video_id", id), zap.Error(err))
		} else {
			updated++
		}

		if (i+1)%50 == 0 {
			s.log.Info("shorts url sync progress", zap.Int("processed", i+1))
		}

		if s.pace > 0 && i < len(ids)-1 {
			select {
			case <-time.After(s.pace):
			case <-ctx.Done():
				return updated, ctx.Err()
			}
		}
	}

	return updated, nil
}
