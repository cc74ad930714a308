package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madtown/video-aggregator/internal/db/testutil"
)

func TestQuotaLogRepository(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	repo := NewQuotaLogRepository(td.Pool)
	ctx := context.Background()

	t.Run("records and aggregates usage", func(t *testing.T) {
		td.TruncateTables(t)

		require.NoError(t, repo.Record(ctx, "channel-discovery", 50))
		require.NoError(t, repo.Record(ctx, "channel-discovery", 150))
		require.NoError(t, repo.Record(ctx, "stats-refresh", 6))

		usage, err := repo.DailyUsage(ctx, 7)
		require.NoError(t, err)
		require.Len(t, usage, 1, "all entries land on today")
		assert.Equal(t, 206, usage[0].Usage)
	})

	t.Run("empty label falls back to other", func(t *testing.T) {
		td.TruncateTables(t)

		require.NoError(t, repo.Record(ctx, "", 10))

		var label string
		err := td.Pool.QueryRow(ctx, `SELECT run_label FROM quota_logs LIMIT 1`).Scan(&label)
		require.NoError(t, err)
		assert.Equal(t, "other", label)
	})

	t.Run("no entries yields empty report", func(t *testing.T) {
		td.TruncateTables(t)

		usage, err := repo.DailyUsage(ctx, 7)
		require.NoError(t, err)
		assert.Empty(t, usage)
	})
}
