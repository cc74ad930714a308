package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"madtown/video-aggregator/internal/db/models"
	"madtown/video-aggregator/internal/youtube"
)

func testDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		RelevanceKeyword:     "MADTOWN",
		RequireTitleKeyword:  true,
		MaxDurationSeconds:   3600,
		MaxResultsPerChannel: 5,
		QueryPageSize:        50,
		Season:               "season-2",
	}
}

func det(id, title, duration, live string) youtube.VideoDetails {
	return youtube.VideoDetails{
		VideoID:              id,
		Title:                title,
		ChannelID:            "UCchan",
		ChannelTitle:         "chan",
		Duration:             duration,
		LiveBroadcastContent: live,
		PublishedAt:          time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestDiscoverer_ChannelVideos(t *testing.T) {
	ctx := context.Background()
	watermark := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	t.Run("inclusion predicate", func(t *testing.T) {
		tests := []struct {
			name string
			det  youtube.VideoDetails
			want bool
		}{
			{"ten minute video qualifies", det("v1", "MADTOWN day 3", "PT10M", "none"), true},
			{"exactly one hour qualifies", det("v2", "madtown finale", "PT1H", "none"), true},
			{"two hours is excluded", det("v3", "MADTOWN marathon", "PT2H", "none"), false},
			{"zero duration is excluded", det("v4", "MADTOWN stream", "PT0S", "none"), false},
			{"unparseable duration is excluded", det("v5", "MADTOWN stream", "P0D", "none"), false},
			{"live broadcast is excluded", det("v6", "MADTOWN live", "PT10M", "live"), false},
			{"upcoming broadcast is excluded", det("v7", "MADTOWN soon", "PT10M", "upcoming"), false},
			{"title without keyword is excluded", det("v8", "unrelated vlog", "PT10M", "none"), false},
			{"keyword match is case-insensitive", det("v9", "mAdToWn clip", "PT30S", "none"), true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				source := newFakeSource()
				source.addVideo("UCchan", tt.det)
				d := NewDiscoverer(source, testDiscoveryConfig(), zap.NewNop())

				videos, excluded, err := d.ChannelVideos(ctx, "UCchan", watermark)
				require.NoError(t, err)
				if tt.want {
					require.Len(t, videos, 1)
					assert.Zero(t, excluded)
				} else {
					assert.Empty(t, videos)
					assert.Equal(t, 1, excluded)
				}
			})
		}
	})

	t.Run("keyword check can be disabled", func(t *testing.T) {
		source := newFakeSource()
		source.addVideo("UCchan", det("v1", "unrelated vlog", "PT10M", "none"))
		cfg := testDiscoveryConfig()
		cfg.RequireTitleKeyword = false
		d := NewDiscoverer(source, cfg, zap.NewNop())

		videos, _, err := d.ChannelVideos(ctx, "UCchan", watermark)
		require.NoError(t, err)
		assert.Len(t, videos, 1)
	})

	t.Run("no candidates means no metadata fetch", func(t *testing.T) {
		source := newFakeSource()
		d := NewDiscoverer(source, testDiscoveryConfig(), zap.NewNop())

		videos, excluded, err := d.ChannelVideos(ctx, "UCempty", watermark)
		require.NoError(t, err)
		assert.Empty(t, videos)
		assert.Zero(t, excluded)
		assert.Zero(t, source.detailsCalls)
	})

	t.Run("discovered video carries the season stamp", func(t *testing.T) {
		source := newFakeSource()
		source.addVideo("UCchan", det("v1", "MADTOWN day 3", "PT10M", "none"))
		d := NewDiscoverer(source, testDiscoveryConfig(), zap.NewNop())

		videos, _, err := d.ChannelVideos(ctx, "UCchan", watermark)
		require.NoError(t, err)
		require.Len(t, videos, 1)
		assert.Equal(t, "season-2", videos[0].Season)
		assert.Nil(t, videos[0].IsShortFinal)
	})
}

func TestDiscoverer_QueryVideos(t *testing.T) {
	ctx := context.Background()
	watermark := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	t.Run("walks every page and skips the keyword check", func(t *testing.T) {
		source := newFakeSource()
		source.queryPages = [][]string{{"v1", "v2"}, {"v3"}}
		for _, v := range []youtube.VideoDetails{
			det("v1", "unrelated title", "PT10M", "none"),
			det("v2", "MADTOWN day 3", "PT2H", "none"),
			det("v3", "another title", "PT30S", "none"),
		} {
			source.details[v.VideoID] = v
		}
		d := NewDiscoverer(source, testDiscoveryConfig(), zap.NewNop())

		videos, excluded, err := d.QueryVideos(ctx, "MADTOWN", watermark)
		require.NoError(t, err)
		require.Len(t, videos, 2)
		assert.Equal(t, "v1", videos[0].VideoID)
		assert.Equal(t, "v3", videos[1].VideoID)
		assert.Equal(t, 1, excluded)
	})

	t.Run("duplicate ids across pages are fetched once", func(t *testing.T) {
		source := newFakeSource()
		source.queryPages = [][]string{{"v1"}, {"v1"}}
		source.details["v1"] = det("v1", "MADTOWN day 3", "PT10M", "none")
		d := NewDiscoverer(source, testDiscoveryConfig(), zap.NewNop())

		videos, _, err := d.QueryVideos(ctx, "MADTOWN", watermark)
		require.NoError(t, err)
		assert.Len(t, videos, 1)
		assert.Equal(t, 1, source.detailsCalls)
	})
}

func TestDedupeVideos(t *testing.T) {
	a1 := &models.Video{VideoID: "a", Title: "first"}
	a2 := &models.Video{VideoID: "a", Title: "second"}
	b := &models.Video{VideoID: "b"}

	out := DedupeVideos([]*models.Video{a1, b, a2})
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].VideoID)
	assert.Equal(t, "second", out[0].Title, "last occurrence wins")
	assert.Equal(t, "b", out[1].VideoID)

	assert.Empty(t, DedupeVideos(nil))
}
