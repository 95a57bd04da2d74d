package domain

import (
	"strings"
	"time"
)

// Status represents the stage of a job application
type Status string

const (
	StatusApplied   Status = "applied"
	StatusScreening Status = "screening"
	StatusInterview Status = "interview"
	StatusOffer     Status = "offer"
	StatusHired     Status = "hired"
	StatusRejected  Status = "rejected"
	StatusOnHold    Status = "on_hold"
)

// validTransitions defines allowed status transitions.
// The pipeline moves forward only (skips allowed); rejected and on_hold are
// reachable from any non-terminal state; hired and rejected are terminal.
var validTransitions = map[Status][]Status{
	StatusApplied:   {StatusScreening, StatusInterview, StatusOffer, StatusHired, StatusRejected, StatusOnHold},
	StatusScreening: {StatusInterview, StatusOffer, StatusHired, StatusRejected, StatusOnHold},
	StatusInterview: {StatusOffer, StatusHired, StatusRejected, StatusOnHold},
	StatusOffer:     {StatusHired, StatusRejected, StatusOnHold},
	StatusOnHold:    {StatusScreening, StatusInterview, StatusOffer, StatusHired, StatusRejected},
	StatusHired:     {},
	StatusRejected:  {},
}

// ParseStatus normalizes a free-form status string (as extracted by the
// classifier) into a Status. Returns false when nothing matches.
func ParseStatus(s string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	switch normalized {
	case "applied", "application_received", "application_submitted":
		return StatusApplied, true
	case "screening", "phone_screen", "in_review", "under_review":
		return StatusScreening, true
	case "interview", "interviewing", "interview_scheduled", "onsite":
		return StatusInterview, true
	case "offer", "offer_extended", "offer_received":
		return StatusOffer, true
	case "hired", "accepted":
		return StatusHired, true
	case "rejected", "declined", "not_selected":
		return StatusRejected, true
	case "on_hold", "paused", "position_on_hold":
		return StatusOnHold, true
	}
	return "", false
}

// IsValid reports whether s is one of the known statuses
func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal reports whether s accepts no further transitions
func (s Status) IsTerminal() bool {
	return s == StatusHired || s == StatusRejected
}

// CanTransitionTo reports whether moving from s to target is allowed.
// A no-op (same status) is always allowed.
func (s Status) CanTransitionTo(target Status) bool {
	if s == target {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// JobApplication represents an application record owned by the intake flow.
// The sync engine only ever updates status, updated_at and last_synced_message_id.
type JobApplication struct {
	ID                  string    `json:"id" gorm:"primaryKey"`
	UserID              string    `json:"user_id" gorm:"index;not null"`
	CompanyName         string    `json:"company_name" gorm:"not null"`
	JobTitle            string    `json:"job_title" gorm:"not null"`
	Status              Status    `json:"status" gorm:"index;not null;default:'applied'"`
	LastSyncedMessageID string    `json:"last_synced_message_id,omitempty" gorm:"default:''"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
