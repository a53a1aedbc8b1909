// Package mockapi is a fixture implementation of the analysis API. It serves
// deterministic canned results so the client core can be developed and
// exercised without the real processing backend.
package mockapi

import (
	"github.com/gin-gonic/gin"

	"neurosense-client/internal/shared/config"
	"neurosense-client/internal/shared/metrics"
	"neurosense-client/internal/shared/server/middleware"
)

// NewRouter wires the fixture API routes and middleware.
func NewRouter(cfg config.Config) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.CORSAllowOrigin))

	handler := NewHandler(
		NewMemoryRepo(),
		NewStore(cfg.StoreDir),
		newPollLimiter(cfg.PollLimitWindow, nil),
		cfg.CompleteAfterPolls,
	)

	router.GET("/metrics", metrics.Handler())
	api := router.Group("/api/v1")
	api.GET("/health", handler.Health)
	analysisAPI := api.Group("/analysis")
	analysisAPI.POST("/eeg/upload", handler.UploadEEG)
	analysisAPI.GET("/eeg/result/:session_id", handler.EEGResult)
	analysisAPI.POST("/text/analyze", handler.AnalyzeText)
	analysisAPI.POST("/combined", handler.AnalyzeCombined)
	return router
}
