package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"madtown/video-aggregator/internal/db/repository"
	"madtown/video-aggregator/internal/youtube"
)

// UploadsBackfiller caches the uploads collection identifier for channels
// that are missing one. The cached identifier lets future work list a
// channel's uploads without a search call.
type UploadsBackfiller struct {
	source   VideoSource
	channels repository.ChannelRepository
	log      *zap.Logger
}

// NewUploadsBackfiller creates a backfiller over the given source and store.
func NewUploadsBackfiller(source VideoSource, channels repository.ChannelRepository, log *zap.Logger) *UploadsBackfiller {
	if log == nil {
		log = zap.NewNop()
	}
	return &UploadsBackfiller{source: source, channels: channels, log: log}
}

// Run backfills every channel missing an uploads playlist ID. Per-channel
// failures are skipped; credential exhaustion aborts the pass. Returns how
// many channels were filled and how many were skipped.
func (u *UploadsBackfiller) Run(ctx context.Context) (filled, skipped int, err error) {
	channels, err := u.channels.ListMissingUploadsPlaylist(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list channels missing uploads playlist: %w", err)
	}

	for _, channel := range channels {
		playlistID, err := u.source.FetchUploadsPlaylistID(ctx, channel.ChannelID)
		if err != nil {
			if errors.Is(err, youtube.ErrCredentialsExhausted) {
				return filled, skipped, err
			}
			skipped++
			u.log.Warn("uploads playlist lookup failed",
				zap.String("channel_id", channel.ChannelID), zap.Error(err))
			continue
		}
		if playlistID == "" {
			skipped++
			u.log.Warn("channel exposes no uploads playlist",
				zap.String("channel_id", channel.ChannelID))
			continue
		}

		if err := u.channels.SetUploadsPlaylistID(ctx, channel.ChannelID, playlistID); err != nil {
			skipped++
			u.log.Warn("uploads playlist write failed",
				zap.String("channel_id", channel.ChannelID), zap.Error(err))
			continue
		}
		filled++
	}

	u.log.Info("uploads playlist backfill finished",
		zap.Int("filled", filled), zap.Int("skipped", skipped))

	return filled, skipped, nil
}
