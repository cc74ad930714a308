// Package service orchestrates the discovery, classification and
// maintenance passes of the ingestion pipeline.
package service

import (
	"context"
	"time"

	"madtown/video-aggregator/internal/youtube"
)

// VideoSource is the contract the pipeline consumes from the video
// metadata platform. *youtube.Client implements it; tests substitute fakes.
type VideoSource interface {
	// SearchChannelVideos returns recent video IDs for a channel published
	// after the watermark.
	SearchChannelVideos(ctx context.Context, channelID string, publishedAfter time.Time, maxResults int64) ([]string, error)

	// SearchQueryVideos returns one page of video IDs for a keyword query
	// plus the continuation token ("" when exhausted).
	SearchQueryVideos(ctx context.Context, query string, publishedAfter time.Time, pageToken string, maxResults int64) ([]string, string, error)

	// SearchChannelID resolves a display name to a channel ID ("" on miss).
	SearchChannelID(ctx context.Context, name string) (string, error)

	// FetchDetails returns metadata for up to youtube.MaxBatchSize videos.
	FetchDetails(ctx context.Context, videoIDs []string) ([]youtube.VideoDetails, error)

	// FetchUploadsPlaylistID returns the channel's uploads collection ID.
	FetchUploadsPlaylistID(ctx context.Context, channelID string) (string, error)

	// EstimatedUnits reports the estimated quota cost accumulated so far.
	EstimatedUnits() int
}

var _ VideoSource = (*youtube.Client)(nil)
