package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"madtown/video-aggregator/internal/db/models"
	"madtown/video-aggregator/internal/db/repository"
)

// ErrChannelUnresolvable means no canonical identifier could be found for a
// channel's display name.
var ErrChannelUnresolvable = errors.New("channel unresolvable")

// ChannelResolver turns a tracked channel into a canonical channel ID.
// Channels imported from manually curated lists sometimes carry placeholder
// identifiers; the resolver corrects those by name search and persists the
// correction so later runs skip the lookup.
type ChannelResolver struct {
	source   VideoSource
	channels repository.ChannelRepository
	log      *zap.Logger
}

// NewChannelResolver creates a resolver over the given source and store.
func NewChannelResolver(source VideoSource, channels repository.ChannelRepository, log *zap.Logger) *ChannelResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChannelResolver{source: source, channels: channels, log: log}
}

// Resolve returns the channel's canonical ID, correcting and persisting it
// when the stored one is a placeholder. The second return reports whether a
// correction was made. Returns ErrChannelUnresolvable when the name search
// finds nothing.
func (r *ChannelResolver) Resolve(ctx context.Context, channel *models.Channel) (string, bool, error) {
	if channel.IsCanonicalID() {
		return channel.ChannelID, false, nil
	}

	canonicalID, err := r.source.SearchChannelID(ctx, channel.Name)
	if err != nil {
		return "", false, fmt.Errorf("resolve channel %q: %w", channel.Name, err)
	}
	if canonicalID == "" {
		return "", false, fmt.Errorf("resolve channel %q: %w", channel.Name, ErrChannelUnresolvable)
	}

	if err := r.channels.RewriteChannelID(ctx, channel.Name, canonicalID); err != nil {
		return "", false, fmt.Errorf("persist channel id correction for %q: %w", channel.Name, err)
	}

	r.log.Info("corrected channel id",
		zap.String("name", channel.Name),
		zap.String("old_id", channel.ChannelID),
		zap.String("new_id", canonicalID))

	channel.ChannelID = canonicalID
	return canonicalID, true, nil
}
