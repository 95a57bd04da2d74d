package repository

import (
	appdomain "jobtrack-backend/internal/application/domain"
)

// ApplicationRepository defines the store operations the sync engine consumes.
// Applications are created elsewhere (intake flow); here they are only read
// and status-updated.
type ApplicationRepository interface {
	// GetOpenApplications returns all applications not in a terminal status
	GetOpenApplications() ([]*appdomain.JobApplication, error)
	// FindByID returns the application or nil if not found
	FindByID(id string) (*appdomain.JobApplication, error)
	// UpdateStatus applies status, updated_at and last_synced_message_id in one
	// conditional update keyed by (id, expected current status). Returns a
	// *domain.StoreConflictError when the row changed underneath us.
	UpdateStatus(id string, from, to appdomain.Status, sourceMessageID string) error
}
