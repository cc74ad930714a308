// Package youtube wraps the YouTube Data API v3 for the ingestion pipeline.
package youtube

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	yt "google.golang.org/api/youtube/v3"
)

// MaxBatchSize is the platform-imposed ceiling on IDs per videos.list call.
const MaxBatchSize = 50

// Estimated quota cost per call type, in units.
const (
	costSearchList   = 100
	costVideosList   = 1
	costChannelsList = 1
)

// VideoDetails is the subset of video metadata the pipeline consumes.
type VideoDetails struct {
	VideoID              string
	Title                string
	ChannelID            string
	ChannelTitle         string
	ViewCount            int64
	LikeCount            int64
	PublishedAt          time.Time
	ThumbnailURL         string
	Duration             string
	LiveBroadcastContent string
	EmbedHTML            string
}

// Client wraps the YouTube Data API v3 behind the credential failover
// rotator. A client accumulates an estimated quota cost for the run, so one
// client is created per pipeline run.
type Client struct {
	rotator *KeyRotator
	log     *zap.Logger
	units   int
}

// NewClient creates a per-run client over the given ordered API key list.
func NewClient(keys []string, log *zap.Logger) (*Client, error) {
	rotator, err := NewKeyRotator(keys, log)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{rotator: rotator, log: log}, nil
}

// SearchChannelVideos retrieves up to maxResults most recent video IDs
// published on the channel after the given watermark.
func (c *Client) SearchChannelVideos(ctx context.Context, channelID string, publishedAfter time.Time, maxResults int64) ([]string, error) {
	var ids []string

	err := c.rotator.Invoke(ctx, func(svc *yt.Service) error {
		resp, err := svc.Search.List([]string{"id"}).
			ChannelId(channelID).
			Type("video").
			Order("date").
			MaxResults(maxResults).
			PublishedAfter(publishedAfter.UTC().Format(time.RFC3339)).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}

		ids = ids[:0]
		for _, item := range resp.Items {
			if item.Id != nil && item.Id.VideoId != "" {
				ids = append(ids, item.Id.VideoId)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search channel videos: %w", err)
	}

	c.units += costSearchList
	return ids, nil
}

// SearchQueryVideos retrieves one page of video IDs matching the keyword
// query, ordered by date, together with the continuation token for the next
// page ("" when no page remains).
func (c *Client) SearchQueryVideos(ctx context.Context, query string, publishedAfter time.Time, pageToken string, maxResults int64) ([]string, string, error) {
	var (
		ids  []string
		next string
	)

	err := c.rotator.Invoke(ctx, func(svc *yt.Service) error {
		call := svc.Search.List([]string{"id"}).
			Q(query).
			Type("video").
			Order("date").
			MaxResults(maxResults).
			PublishedAfter(publishedAfter.UTC().Format(time.RFC3339)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return err
		}

		ids = ids[:0]
		for _, item := range resp.Items {
			if item.Id != nil && item.Id.VideoId != "" {
				ids = append(ids, item.Id.VideoId)
			}
		}
		next = resp.NextPageToken
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("search query videos: %w", err)
	}

	c.units += costSearchList
	return ids, next, nil
}

// SearchChannelID resolves a channel display name to a channel ID via a
// name search, taking the first result. Returns "" when nothing matches.
func (c *Client) SearchChannelID(ctx context.Context, name string) (string, error) {
	var channelID string

	err := c.rotator.Invoke(ctx, func(svc *yt.Service) error {
		resp, err := svc.Search.List([]string{"snippet"}).
			Q(name).
			Type("channel").
			MaxResults(1).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}

		channelID = ""
		if len(resp.Items) > 0 && resp.Items[0].Snippet != nil {
			channelID = resp.Items[0].Snippet.ChannelId
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search channel id: %w", err)
	}

	c.units += costSearchList
	return channelID, nil
}

// FetchDetails retrieves full metadata for up to MaxBatchSize videos in a
// single batch call.
func (c *Client) FetchDetails(ctx context.Context, videoIDs []string) ([]VideoDetails, error) {
	if len(videoIDs) == 0 {
		return nil, fmt.Errorf("no video IDs provided")
	}
	if len(videoIDs) > MaxBatchSize {
		return nil, fmt.Errorf("too many video IDs (max %d, got %d)", MaxBatchSize, len(videoIDs))
	}

	var details []VideoDetails

	err := c.rotator.Invoke(ctx, func(svc *yt.Service) error {
		resp, err := svc.Videos.List([]string{"snippet", "statistics", "contentDetails", "player"}).
			Id(videoIDs...).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}

		details = details[:0]
		for _, item := range resp.Items {
			details = append(details, mapVideoDetails(item))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch video details: %w", err)
	}

	c.units += costVideosList
	return details, nil
}

// FetchUploadsPlaylistID retrieves the channel's uploads collection ID.
// Returns "" when the channel exposes none.
func (c *Client) FetchUploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	var playlistID string

	err := c.rotator.Invoke(ctx, func(svc *yt.Service) error {
		resp, err := svc.Channels.List([]string{"contentDetails"}).
			Id(channelID).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}

		playlistID = ""
		if len(resp.Items) > 0 && resp.Items[0].ContentDetails != nil &&
			resp.Items[0].ContentDetails.RelatedPlaylists != nil {
			playlistID = resp.Items[0].ContentDetails.RelatedPlaylists.Uploads
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("fetch uploads playlist id: %w", err)
	}

	c.units += costChannelsList
	return playlistID, nil
}

// EstimatedUnits returns the estimated quota cost accumulated by this
// client so far.
func (c *Client) EstimatedUnits() int {
	return c.units
}

func mapVideoDetails(video *yt.Video) VideoDetails {
	d := VideoDetails{VideoID: video.Id}

	if video.Snippet != nil {
		d.Title = video.Snippet.Title
		d.ChannelID = video.Snippet.ChannelId
		d.ChannelTitle = video.Snippet.ChannelTitle
		d.LiveBroadcastContent = video.Snippet.LiveBroadcastContent
		if t, err := time.Parse(time.RFC3339, video.Snippet.PublishedAt); err == nil {
			d.PublishedAt = t
		}
		if video.Snippet.Thumbnails != nil && video.Snippet.Thumbnails.Medium != nil {
			d.ThumbnailURL = video.Snippet.Thumbnails.Medium.Url
		}
	}

	if video.Statistics != nil {
		d.ViewCount = int64(video.Statistics.ViewCount)
		d.LikeCount = int64(video.Statistics.LikeCount)
	}

	if video.ContentDetails != nil {
		d.Duration = video.ContentDetails.Duration
	}

	if video.Player != nil {
		d.EmbedHTML = video.Player.EmbedHtml
	}

	return d
}

// BatchIDs splits a list of video IDs into batches no larger than batchSize.
func BatchIDs(videoIDs []string, batchSize int) [][]string {
	if batchSize <= 0 || batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}

	var batches [][]string
	for i := 0; i < len(videoIDs); i += batchSize {
		end := i + batchSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		batches = append(batches, videoIDs[i:end])
	}

	return batches
}
