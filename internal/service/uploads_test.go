package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"madtown/video-aggregator/internal/db/models"
)

func TestUploadsBackfiller_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("fills missing playlist ids", func(t *testing.T) {
		source := newFakeSource()
		source.playlists["UCa"] = "UUa"
		cached := "UUc"
		channels := newFakeChannelStore(
			&models.Channel{ChannelID: "UCa", Name: "a", Active: true},
			&models.Channel{ChannelID: "UCb", Name: "b", Active: true},
			&models.Channel{ChannelID: "UCc", Name: "c", Active: true, UploadsPlaylistID: &cached},
		)

		filled, skipped, err := NewUploadsBackfiller(source, channels, zap.NewNop()).Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, filled)
		assert.Equal(t, 1, skipped, "channel without an uploads playlist is skipped")
		assert.Equal(t, "UUa", channels.playlists["UCa"])
		assert.NotContains(t, channels.playlists, "UCc", "cached id is left alone")
	})

	t.Run("nothing missing is a no-op", func(t *testing.T) {
		cached := "UUa"
		channels := newFakeChannelStore(
			&models.Channel{ChannelID: "UCa", Name: "a", UploadsPlaylistID: &cached},
		)

		filled, skipped, err := NewUploadsBackfiller(newFakeSource(), channels, zap.NewNop()).Run(ctx)
		require.NoError(t, err)
		assert.Zero(t, filled)
		assert.Zero(t, skipped)
	})
}
