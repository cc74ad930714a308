package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"madtown/video-aggregator/internal/db"
	"madtown/video-aggregator/internal/db/models"
)

// QuotaLogRepository defines operations for the append-only quota usage log.
type QuotaLogRepository interface {
	// Record appends one usage entry for a pipeline run.
	Record(ctx context.Context, runLabel string, usage int) error

	// DailyUsage aggregates usage per day over the last N days.
	DailyUsage(ctx context.Context, days int) ([]*models.QuotaDay, error)
}

type quotaLogRepository struct {
	pool *pgxpool.Pool
}

// NewQuotaLogRepository creates a new QuotaLogRepository.
func NewQuotaLogRepository(pool *pgxpool.Pool) QuotaLogRepository {
	return &quotaLogRepository{pool: pool}
}

func (r *quotaLogRepository) Record(ctx context.Context, runLabel string, usage int) error {
	if runLabel == "" {
		runLabel = "other"
	}

	query := `INSERT INTO quota_logs (run_label, usage) VALUES ($1, $2)`
	if _, err := r.pool.Exec(ctx, query, runLabel, usage); err != nil {
		return db.WrapError(err, "record quota usage")
	}

	return nil
}

func (r *quotaLogRepository) DailyUsage(ctx context.Context, days int) ([]*models.QuotaDay, error) {
	if days <= 0 {
		days = 7
	}

	query := `
		SELECT date_trunc('day', created_at) AS date, SUM(usage)::int AS usage
		FROM quota_logs
		WHERE created_at >= CURRENT_DATE - INTERVAL '1 day' * $1
		GROUP BY 1
		ORDER BY 1 DESC
	`

	rows, err := r.pool.Query(ctx, query, days)
	if err != nil {
		return nil, db.WrapError(err, "daily quota usage")
	}
	defer rows.Close()

	var usage []*models.QuotaDay
	for rows.Next() {
		day := &models.QuotaDay{}
		if err := rows.Scan(&day.Date, &day.Usage); err != nil {
			return nil, fmt.Errorf("scan quota day: %w", err)
		}
		usage = append(usage, day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quota days: %w", err)
	}

	return usage, nil
}
