package delivery

import (
	"net/http"
	"strconv"

	syncdto "jobtrack-backend/internal/sync/dto"
	"jobtrack-backend/internal/sync/repository"
	"jobtrack-backend/internal/sync/scheduler"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	scheduler      *scheduler.SyncScheduler
	checkpointRepo repository.CheckpointRepository
	runRecordRepo  repository.RunRecordRepository
}

func NewSyncHandler(sched *scheduler.SyncScheduler, checkpointRepo repository.CheckpointRepository, runRecordRepo repository.RunRecordRepository) *SyncHandler {
	return &SyncHandler{
		scheduler:      sched,
		checkpointRepo: checkpointRepo,
		runRecordRepo:  runRecordRepo,
	}
}

// GetStatus reports the last known engine state; it never blocks on a run
func (h *SyncHandler) GetStatus(c *gin.Context) {
	status := h.scheduler.GetStatus()
	c.JSON(http.StatusOK, syncdto.StatusResponse{
		IsRunning:   status.IsRunning,
		LastRun:     status.LastRun,
		LastSummary: status.LastSummary,
	})
}

// TriggerSync starts a manual run. The response is an immediate
// acknowledgment; the run proceeds in the background.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	accepted := h.scheduler.TriggerManual()
	c.JSON(http.StatusAccepted, syncdto.TriggerResponse{Accepted: accepted})
}

// ResetCheckpoint is the explicit checkpoint rollback for operators
func (h *SyncHandler) ResetCheckpoint(c *gin.Context) {
	if err := h.checkpointRepo.Reset(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "checkpoint reset"})
}

// GetRunHistory lists recent persisted run records
func (h *SyncHandler) GetRunHistory(c *gin.Context) {
	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := h.runRecordRepo.Latest(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, syncdto.RunHistoryResponse{Runs: runs})
}
