package service

import (
	"context"

	"go.uber.org/zap"

	"madtown/video-aggregator/internal/db/repository"
)

// QuotaRecorder appends quota usage entries without letting logging failures
// affect the pipeline run itself.
type QuotaRecorder struct {
	repo repository.QuotaLogRepository
	log  *zap.Logger
}

// NewQuotaRecorder creates a recorder over the given log store.
func NewQuotaRecorder(repo repository.QuotaLogRepository, log *zap.Logger) *QuotaRecorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &QuotaRecorder{repo: repo, log: log}
}

// Record appends one usage entry. Failures are logged, never returned.
func (q *QuotaRecorder) Record(ctx context.Context, runLabel string, units int) {
	if q == nil || q.repo == nil {
		return
	}

	if err := q.repo.Record(ctx, runLabel, units); err != nil {
		q.log.Warn("quota usage log failed",
			zap.String("run_label", runLabel),
			zap.Int("units", units),
			zap.Error(err))
		return
	}

	q.log.Info("quota usage recorded",
		zap.String("run_label", runLabel),
		zap.Int("units", units))
}
