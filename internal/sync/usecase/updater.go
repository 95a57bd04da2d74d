package usecase

import (
	"log"

	appdomain "jobtrack-backend/internal/application/domain"
	apprepo "jobtrack-backend/internal/application/repository"
	syncdomain "jobtrack-backend/internal/sync/domain"
)

// UpdateOutcome describes what the state updater did with one transition
type UpdateOutcome int

const (
	UpdateApplied UpdateOutcome = iota
	UpdateNoop
	UpdateRejected
)

// StateUpdater applies resolved status transitions through the application
// store, enforcing the status state machine and the per-message idempotency
// guard.
type StateUpdater struct {
	appRepo apprepo.ApplicationRepository
}

// NewStateUpdater creates a new state updater
func NewStateUpdater(appRepo apprepo.ApplicationRepository) *StateUpdater {
	return &StateUpdater{
		appRepo: appRepo,
	}
}

// Apply performs the transition for (application, proposedStatus,
// sourceMessageID). No-ops (same status, or same source message already
// applied) and policy rejections make no store call at all; only a real
// transition issues the single conditional update.
func (u *StateUpdater) Apply(app *appdomain.JobApplication, proposed appdomain.Status, sourceMessageID string) (UpdateOutcome, error) {
	// Idempotency guard: this exact message was already applied
	if app.LastSyncedMessageID == sourceMessageID && sourceMessageID != "" {
		return UpdateNoop, nil
	}

	// Same status is a successful no-op
	if app.Status == proposed {
		return UpdateNoop, nil
	}

	if !app.Status.CanTransitionTo(proposed) {
		log.Printf("[StateUpdater] Rejected transition %s -> %s for application %s (message %s)",
			app.Status, proposed, app.ID, sourceMessageID)
		return UpdateRejected, &syncdomain.InvalidTransitionError{
			ApplicationID: app.ID,
			From:          app.Status,
			To:            proposed,
		}
	}

	// Single conditional update; the store's own concurrency control decides
	// whether it lands
	if err := u.appRepo.UpdateStatus(app.ID, app.Status, proposed, sourceMessageID); err != nil {
		return UpdateRejected, err
	}

	log.Printf("[StateUpdater] Application %s: %s -> %s (message %s)", app.ID, app.Status, proposed, sourceMessageID)
	return UpdateApplied, nil
}
