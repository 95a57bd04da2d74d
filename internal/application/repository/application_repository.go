package repository

import (
	"time"

	appdomain "jobtrack-backend/internal/application/domain"
	syncdomain "jobtrack-backend/internal/sync/domain"

	"gorm.io/gorm"
)

// applicationRepository implements ApplicationRepository interface
type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new instance of applicationRepository
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{
		db: db,
	}
}

// GetOpenApplications returns all applications not in a terminal status
func (r *applicationRepository) GetOpenApplications() ([]*appdomain.JobApplication, error) {
	var apps []*appdomain.JobApplication
	err := r.db.
		Where("status NOT IN ?", []appdomain.Status{appdomain.StatusHired, appdomain.StatusRejected}).
		Order("updated_at DESC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// FindByID returns the application or nil if not found
func (r *applicationRepository) FindByID(id string) (*appdomain.JobApplication, error) {
	var app appdomain.JobApplication
	err := r.db.Where("id = ?", id).First(&app).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

// UpdateStatus performs the conditional update. The WHERE clause on the
// expected current status is the store-side concurrency control: if another
// writer moved the application in the meantime, zero rows are affected and
// the caller gets a StoreConflictError.
func (r *applicationRepository) UpdateStatus(id string, from, to appdomain.Status, sourceMessageID string) error {
	result := r.db.Model(&appdomain.JobApplication{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":                 to,
			"last_synced_message_id": sourceMessageID,
			"updated_at":             time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &syncdomain.StoreConflictError{ApplicationID: id}
	}
	return nil
}
