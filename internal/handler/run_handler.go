// Package handler provides HTTP request handlers for the ops API.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"madtown/video-aggregator/internal/metrics"
	"madtown/video-aggregator/internal/service"
	"madtown/video-aggregator/internal/shorts"
	"madtown/video-aggregator/pkg/logger"
)

// DiscoveryRunner executes discovery runs.
type DiscoveryRunner interface {
	Run(ctx context.Context) (*service.RunSummary, error)
	RunQuery(ctx context.Context) (*service.RunSummary, error)
}

// ClassifierRunner executes a shorts classification pass.
type ClassifierRunner interface {
	Run(ctx context.Context, recomputeAll bool, limit int) (*shorts.Result, error)
}

// StatsRunner executes a stats refresh pass.
type StatsRunner interface {
	Run(ctx context.Context) (*service.StatsResult, error)
}

const defaultClassifyLimit = 500

// RunHandler triggers pipeline passes over HTTP. Runs execute synchronously;
// callers are expected to be cron-style schedulers with generous timeouts.
type RunHandler struct {
	ingestor   DiscoveryRunner
	classifier ClassifierRunner
	stats      StatsRunner
}

// NewRunHandler creates a new RunHandler instance.
func NewRunHandler(ingestor DiscoveryRunner, classifier ClassifierRunner, stats StatsRunner) *RunHandler {
	return &RunHandler{
		ingestor:   ingestor,
		classifier: classifier,
		stats:      stats,
	}
}

// TriggerIngest runs one discovery pass. The mode query parameter selects
// channel discovery (default) or query discovery.
func (h *RunHandler) TriggerIngest(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		summary *service.RunSummary
		err     error
	)
	switch mode := c.DefaultQuery("mode", "channel"); mode {
	case "channel":
		summary, err = h.ingestor.Run(ctx)
	case "query":
		summary, err = h.ingestor.RunQuery(ctx)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown mode: " + mode,
		})
		return
	}

	if summary != nil {
		metrics.ObserveRun(summary)
	}

	if err != nil {
		logger.Log.Error("discovery run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"summary": summary,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// TriggerClassify runs one shorts classification pass. recompute=all
// revisits already classified rows; limit caps the batch.
func (h *RunHandler) TriggerClassify(c *gin.Context) {
	recomputeAll := c.Query("recompute") == "all"

	limit := defaultClassifyLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	start := time.Now()
	result, err := h.classifier.Run(c.Request.Context(), recomputeAll, limit)
	if err != nil {
		metrics.ObserveMaintenanceRun("classify", false, time.Since(start))
		logger.Log.Error("classification run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	metrics.ObserveMaintenanceRun("classify", true, time.Since(start))
	metrics.ObserveVerdicts(result.Shorts, result.LongForm)
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// TriggerStats runs one stats refresh pass.
func (h *RunHandler) TriggerStats(c *gin.Context) {
	start := time.Now()
	result, err := h.stats.Run(c.Request.Context())
	if err != nil {
		metrics.ObserveMaintenanceRun(service.RunLabelStatsRefresh, false, time.Since(start))
		logger.Log.Error("stats refresh failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	metrics.ObserveMaintenanceRun(service.RunLabelStatsRefresh, true, time.Since(start))
	c.JSON(http.StatusOK, gin.H{"result": result})
}
