package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"madtown/video-aggregator/internal/db/repository"
	"madtown/video-aggregator/pkg/logger"
)

const defaultQuotaDays = 7

// QuotaHandler serves quota usage reports.
type QuotaHandler struct {
	quota repository.QuotaLogRepository
}

// NewQuotaHandler creates a new QuotaHandler instance.
func NewQuotaHandler(quota repository.QuotaLogRepository) *QuotaHandler {
	return &QuotaHandler{quota: quota}
}

// DailyUsage returns per-day quota usage over the requested window.
func (h *QuotaHandler) DailyUsage(c *gin.Context) {
	days := defaultQuotaDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "days must be a positive integer",
			})
			return
		}
		days = parsed
	}

	usage, err := h.quota.DailyUsage(c.Request.Context(), days)
	if err != nil {
		logger.Log.Error("quota usage query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	total := 0
	for _, day := range usage {
		total += day.Usage
	}

	c.JSON(http.StatusOK, gin.H{
		"days":  days,
		"total": total,
		"usage": usage,
		"time":  time.Now(),
	})
}
