package api

import (
	"net/http"

	authDelivery "jobtrack-backend/internal/auth/delivery"
	syncDelivery "jobtrack-backend/internal/sync/delivery"
	"jobtrack-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, syncHandler *syncDelivery.SyncHandler, cfg *config.Config) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Sync engine routes (protected)
		syncGroup := api.Group("/sync")
		syncGroup.Use(authDelivery.AuthMiddleware(cfg.JWTSecret))
		{
			syncGroup.GET("/status", syncHandler.GetStatus)
			syncGroup.POST("/trigger", syncHandler.TriggerSync)
			syncGroup.GET("/runs", syncHandler.GetRunHistory)
			syncGroup.POST("/checkpoint/reset", syncHandler.ResetCheckpoint)
		}
	}
}
