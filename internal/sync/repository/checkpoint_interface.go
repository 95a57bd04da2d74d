package repository

import (
	syncdomain "jobtrack-backend/internal/sync/domain"
)

// CheckpointRepository persists the mailbox cursor
type CheckpointRepository interface {
	// Load returns the checkpoint, creating the initial row on first run ever
	Load() (*syncdomain.SyncCheckpoint, error)
	// Save advances the checkpoint. Writes are monotonic: a save older than
	// the stored cursor is ignored.
	Save(checkpoint *syncdomain.SyncCheckpoint) error
	// Reset clears the cursor back to the zero time (explicit admin operation)
	Reset() error
}

// RunRecordRepository persists one compact row per completed sync run
type RunRecordRepository interface {
	Create(record *syncdomain.SyncRunRecord) error
	Latest(limit int) ([]*syncdomain.SyncRunRecord, error)
}
