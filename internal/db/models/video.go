package models

import "time"

// Video represents a tracked MADTOWN-related YouTube video.
//
// Title, view count and like count are externally sourced and overwritten on
// every refresh. IsShortFinal and IsShortsPlayable are derived fields owned
// by the classification passes; nil means not yet classified.
type Video struct {
	VideoID          string    `db:"video_id"`
	Title            string    `db:"title"`
	ChannelID        string    `db:"channel_id"`
	ChannelName      string    `db:"channel_name"`
	ViewCount        int64     `db:"view_count"`
	LikeCount        int64     `db:"like_count"`
	PublishedAt      time.Time `db:"published_at"`
	ThumbnailURL     string    `db:"thumbnail_url"`
	Duration         string    `db:"duration"`
	IsShortFinal     *bool     `db:"is_short_final"`
	IsShortsPlayable *bool     `db:"is_shorts_playable"`
	Season           string    `db:"season"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// NewVideo creates a new Video with the given identity and metadata.
func NewVideo(videoID, title, channelID, channelName string, publishedAt time.Time) *Video {
	now := time.Now()
	return &Video{
		VideoID:     videoID,
		Title:       title,
		ChannelID:   channelID,
		ChannelName: channelName,
		PublishedAt: publishedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
