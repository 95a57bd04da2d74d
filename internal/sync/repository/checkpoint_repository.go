package repository

import (
	"time"

	syncdomain "jobtrack-backend/internal/sync/domain"

	"gorm.io/gorm"
)

// checkpointRowID is the fixed primary key of the singleton checkpoint row
const checkpointRowID = 1

// checkpointRepository implements CheckpointRepository interface
type checkpointRepository struct {
	db *gorm.DB
}

// NewCheckpointRepository creates a new instance of checkpointRepository
func NewCheckpointRepository(db *gorm.DB) CheckpointRepository {
	return &checkpointRepository{
		db: db,
	}
}

// Load returns the checkpoint, creating the initial row on first run ever
func (r *checkpointRepository) Load() (*syncdomain.SyncCheckpoint, error) {
	var checkpoint syncdomain.SyncCheckpoint

	// FirstOrCreate so the first run ever starts from the zero time
	now := time.Now()
	result := r.db.Where("id = ?", checkpointRowID).FirstOrCreate(&checkpoint, syncdomain.SyncCheckpoint{
		ID:        checkpointRowID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if result.Error != nil {
		return nil, result.Error
	}
	return &checkpoint, nil
}

// Save advances the checkpoint. The WHERE guard keeps the cursor monotonic
// even if a stale save slips in.
func (r *checkpointRepository) Save(checkpoint *syncdomain.SyncCheckpoint) error {
	return r.db.Model(&syncdomain.SyncCheckpoint{}).
		Where("id = ? AND last_processed_at <= ?", checkpointRowID, checkpoint.LastProcessedAt).
		Updates(map[string]interface{}{
			"last_processed_at": checkpoint.LastProcessedAt,
			"last_message_id":   checkpoint.LastMessageID,
			"updated_at":        time.Now(),
		}).Error
}

// Reset clears the cursor back to the zero time
func (r *checkpointRepository) Reset() error {
	return r.db.Model(&syncdomain.SyncCheckpoint{}).
		Where("id = ?", checkpointRowID).
		Updates(map[string]interface{}{
			"last_processed_at": time.Time{},
			"last_message_id":   "",
			"updated_at":        time.Now(),
		}).Error
}
