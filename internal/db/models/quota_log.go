package models

import "time"

// QuotaLog is an append-only record of estimated API usage for one
// pipeline run. Rows are never mutated or deleted by the pipeline.
type QuotaLog struct {
	ID        int64     `db:"id"`
	RunLabel  string    `db:"run_label"`
	Usage     int       `db:"usage"`
	CreatedAt time.Time `db:"created_at"`
}

// QuotaDay is the daily aggregation served to the admin surface.
type QuotaDay struct {
	Date  time.Time `db:"date"`
	Usage int       `db:"usage"`
}
