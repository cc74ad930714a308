package shorts

import (
	"context"
	"time"

	"go.uber.org/zap"

	"madtown/video-aggregator/internal/db/models"
	"madtown/video-aggregator/internal/db/repository"
	"madtown/video-aggregator/internal/youtube"
)

// Prober fetches page-level signals for one video.
type Prober interface {
	Probe(ctx context.Context, videoID string) (PageSignals, error)
}

// Result summarizes one classification pass.
type Result struct {
	Total    int `json:"total"`
	Shorts   int `json:"shorts"`
	LongForm int `json:"long_form"`
	Updated  int `json:"updated"`
	Failed   int `json:"failed"`
}

// Classifier runs a classification pass over stored videos and writes a
// definite short-form verdict for each. A video never returns to the
// unclassified state: any per-video signal-fetch failure yields a long-form
// verdict.
type Classifier struct {
	videos   repository.VideoRepository
	prober   Prober
	strategy Strategy
	pace     time.Duration
	log      *zap.Logger
}

// NewClassifier creates a classifier with the given scoring strategy. The
// prober may be nil when the strategy does not read page signals.
func NewClassifier(videos repository.VideoRepository, prober Prober, strategy Strategy, pace time.Duration, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{
		videos:   videos,
		prober:   prober,
		strategy: strategy,
		pace:     pace,
		log:      log,
	}
}

// Run classifies stored videos. With recomputeAll unset, only videos whose
// short-form status is still unknown are visited. Per-video store write
// failures are counted and skipped; only the initial select can fail the
// pass.
func (c *Classifier) Run(ctx context.Context, recomputeAll bool, limit int) (*Result, error) {
	videos, err := c.videos.ListForClassification(ctx, !recomputeAll, limit)
	if err != nil {
		return nil, err
	}

	result := &Result{Total: len(videos)}
	c.log.Info("classification pass starting",
		zap.String("strategy", c.strategy.Name),
		zap.Int("videos", len(videos)),
		zap.Bool("recompute_all", recomputeAll),
	)

	for i, video := range videos {
		verdict, score := c.classifyOne(ctx, video)

		if verdict {
			result.Shorts++
		} else {
			result.LongForm++
		}

		if err := c.videos.SetShortFinal(ctx, video.VideoID, verdict); err != nil {
			c.log.Warn("verdict write failed",
				zap.String("video_id", video.VideoID),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		result.Updated++

		c.log.Debug("classified",
			zap.String("video_id", video.VideoID),
			zap.Bool("is_short", verdict),
			zap.Int("score", score),
		)

		if c.pace > 0 && i < len(videos)-1 {
			select {
			case <-time.After(c.pace):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}

	c.log.Info("classification pass finished",
		zap.Int("shorts", result.Shorts),
		zap.Int("long_form", result.LongForm),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

func (c *Classifier) classifyOne(ctx context.Context, video *models.Video) (bool, int) {
	in := Inputs{
		DurationSeconds: youtube.ParseDuration(video.Duration),
		Title:           video.Title,
	}
	if video.IsShortsPlayable != nil {
		in.ShortsPlayable = *video.IsShortsPlayable
	}

	// Videos past the long-form cutoff skip the scored path entirely, so no
	// page fetch is spent on them.
	if c.strategy.LongFormCutoffSeconds > 0 && in.DurationSeconds > c.strategy.LongFormCutoffSeconds {
		return false, 0
	}

	if c.strategy.UsesPageSignals && c.prober != nil {
		page, err := c.prober.Probe(ctx, video.VideoID)
		if err != nil {
			// Never leave the verdict unknown: fetch failures default to
			// long-form.
			c.log.Warn("page probe failed, defaulting to long-form",
				zap.String("video_id", video.VideoID),
				zap.Error(err),
			)
			return false, 0
		}
		in.Page = page
	}

	return c.strategy.Classify(in)
}
