package repository

import (
	"time"

	syncdomain "jobtrack-backend/internal/sync/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// runRecordRepository implements RunRecordRepository interface
type runRecordRepository struct {
	db *gorm.DB
}

// NewRunRecordRepository creates a new instance of runRecordRepository
func NewRunRecordRepository(db *gorm.DB) RunRecordRepository {
	return &runRecordRepository{
		db: db,
	}
}

func (r *runRecordRepository) Create(record *syncdomain.SyncRunRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	return r.db.Create(record).Error
}

func (r *runRecordRepository) Latest(limit int) ([]*syncdomain.SyncRunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []*syncdomain.SyncRunRecord
	err := r.db.Order("started_at DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
