package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"madtown/video-aggregator/internal/db/models"
	"madtown/video-aggregator/internal/youtube"
)

// DiscoveryConfig holds the tunables of the inclusion predicate and the
// search calls behind it.
type DiscoveryConfig struct {
	// RelevanceKeyword must appear in the title (case-insensitive) for a
	// video to qualify in channel mode.
	RelevanceKeyword string

	// RequireTitleKeyword toggles the keyword check in channel mode. Query
	// mode never applies it: the search query already scopes relevance.
	RequireTitleKeyword bool

	// MaxDurationSeconds is the inclusive duration ceiling. Zero-duration
	// videos (live streams, premieres, unparseable values) never qualify.
	MaxDurationSeconds int

	// MaxResultsPerChannel caps the search page size in channel mode.
	MaxResultsPerChannel int64

	// QueryPageSize caps the search page size in query mode.
	QueryPageSize int64

	// Season is stamped on every discovered video.
	Season string

	// PacingDelay is the pause between query-mode result pages.
	PacingDelay time.Duration
}

// Discoverer finds candidate videos, fetches their metadata and applies the
// inclusion predicate.
type Discoverer struct {
	source VideoSource
	cfg    DiscoveryConfig
	log    *zap.Logger
}

// NewDiscoverer creates a discoverer over the given source.
func NewDiscoverer(source VideoSource, cfg DiscoveryConfig, log *zap.Logger) *Discoverer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Discoverer{source: source, cfg: cfg, log: log}
}

// ChannelVideos returns the qualifying videos a channel published after the
// watermark, together with how many candidates the predicate excluded.
func (d *Discoverer) ChannelVideos(ctx context.Context, channelID string, watermark time.Time) ([]*models.Video, int, error) {
	ids, err := d.source.SearchChannelVideos(ctx, channelID, watermark, d.cfg.MaxResultsPerChannel)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return nil, 0, nil
	}

	return d.fetchQualifying(ctx, ids, d.cfg.RequireTitleKeyword)
}

// QueryVideos walks every result page of the keyword query published after
// the watermark and returns the qualifying videos plus the excluded count.
// The title keyword check is skipped: the query itself scopes relevance.
func (d *Discoverer) QueryVideos(ctx context.Context, query string, watermark time.Time) ([]*models.Video, int, error) {
	var (
		videos    []*models.Video
		excluded  int
		seen      = map[string]bool{}
		pageToken string
	)

	for page := 0; ; page++ {
		ids, next, err := d.source.SearchQueryVideos(ctx, query, watermark, pageToken, d.cfg.QueryPageSize)
		if err != nil {
			return videos, excluded, fmt.Errorf("query page %d: %w", page, err)
		}

		fresh := ids[:0:0]
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				fresh = append(fresh, id)
			}
		}

		if len(fresh) > 0 {
			pageVideos, pageExcluded, err := d.fetchQualifying(ctx, fresh, false)
			if err != nil {
				return videos, excluded, err
			}
			videos = append(videos, pageVideos...)
			excluded += pageExcluded
		}

		if next == "" {
			break
		}
		pageToken = next

		if d.cfg.PacingDelay > 0 {
			select {
			case <-time.After(d.cfg.PacingDelay):
			case <-ctx.Done():
				return videos, excluded, ctx.Err()
			}
		}
	}

	return videos, excluded, nil
}

// fetchQualifying fetches metadata for the candidate IDs in batches and
// keeps only the videos the inclusion predicate admits.
func (d *Discoverer) fetchQualifying(ctx context.Context, ids []string, requireKeyword bool) ([]*models.Video, int, error) {
	var (
		videos   []*models.Video
		excluded int
	)

	for _, batch := range youtube.BatchIDs(ids, youtube.MaxBatchSize) {
		details, err := d.source.FetchDetails(ctx, batch)
		if err != nil {
			return nil, 0, err
		}

		for _, det := range details {
			if !d.qualifies(det, requireKeyword) {
				excluded++
				continue
			}
			videos = append(videos, d.toVideo(det))
		}
	}

	return videos, excluded, nil
}

// qualifies applies the inclusion predicate: relevant title (when required),
// bounded positive duration, and not a live or upcoming broadcast.
func (d *Discoverer) qualifies(det youtube.VideoDetails, requireKeyword bool) bool {
	if requireKeyword && !strings.Contains(strings.ToLower(det.Title), strings.ToLower(d.cfg.RelevanceKeyword)) {
		return false
	}

	seconds := youtube.ParseDuration(det.Duration)
	if seconds <= 0 || seconds > d.cfg.MaxDurationSeconds {
		return false
	}

	return det.LiveBroadcastContent == "none"
}

func (d *Discoverer) toVideo(det youtube.VideoDetails) *models.Video {
	now := time.Now().UTC()
	return &models.Video{
		VideoID:      det.VideoID,
		Title:        det.Title,
		ChannelID:    det.ChannelID,
		ChannelName:  det.ChannelTitle,
		ViewCount:    det.ViewCount,
		LikeCount:    det.LikeCount,
		PublishedAt:  det.PublishedAt,
		ThumbnailURL: det.ThumbnailURL,
		Duration:     det.Duration,
		Season:       d.cfg.Season,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// DedupeVideos collapses duplicate IDs keeping the first occurrence's
// position and the last occurrence's data.
func DedupeVideos(videos []*models.Video) []*models.Video {
	index := make(map[string]int, len(videos))
	out := videos[:0:0]

	for _, v := range videos {
		if i, ok := index[v.VideoID]; ok {
			out[i] = v
			continue
		}
		index[v.VideoID] = len(out)
		out = append(out, v)
	}

	return out
}
