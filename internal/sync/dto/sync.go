package dto

import (
	"time"

	syncdomain "jobtrack-backend/internal/sync/domain"
)

type StatusResponse struct {
	IsRunning   bool                       `json:"is_running"`
	LastRun     *time.Time                 `json:"last_run"`
	LastSummary *syncdomain.SyncRunSummary `json:"last_summary"`
}

type TriggerResponse struct {
	Accepted bool `json:"accepted"`
}

type RunHistoryResponse struct {
	Runs []*syncdomain.SyncRunRecord `json:"runs"`
}
