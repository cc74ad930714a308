package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"madtown/video-aggregator/internal/middleware"
)

// NewRouter wires the ops API. Run triggers and the quota report sit behind
// token auth; probes and metrics stay open for the platform.
func NewRouter(runs *RunHandler, quota *QuotaHandler, health *HealthHandler, apiTokens []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", health.LivenessProbe)
	router.GET("/readyz", health.ReadinessProbe)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api", middleware.APIKeyAuth(apiTokens))
	{
		api.POST("/runs/ingest", runs.TriggerIngest)
		api.POST("/runs/classify", runs.TriggerClassify)
		api.POST("/runs/stats", runs.TriggerStats)
		api.GET("/quota", quota.DailyUsage)
	}

	return router
}
