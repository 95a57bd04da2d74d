package api

import (
	syncDelivery "jobtrack-backend/internal/sync/delivery"
	syncRepo "jobtrack-backend/internal/sync/repository"
	"jobtrack-backend/internal/sync/scheduler"
	"jobtrack-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	router *gin.Engine
}

// NewHandler creates the HTTP surface over the sync engine
func NewHandler(sched *scheduler.SyncScheduler, checkpointRepo syncRepo.CheckpointRepository, runRecordRepo syncRepo.RunRecordRepository, cfg *config.Config) *Handler {
	router := gin.Default()

	syncHandler := syncDelivery.NewSyncHandler(sched, checkpointRepo, runRecordRepo)
	SetupRoutes(router, syncHandler, cfg)

	return &Handler{
		router: router,
	}
}

// Start runs the HTTP server on the given address
func (h *Handler) Start(addr string) error {
	return h.router.Run(addr)
}
