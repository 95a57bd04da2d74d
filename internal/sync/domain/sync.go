package domain

import (
	"context"
	"time"

	appdomain "jobtrack-backend/internal/application/domain"
)

// MailMessage is an immutable snapshot of a message fetched from the mailbox
type MailMessage struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"received_at"`
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject"`
	BodyText   string    `json:"body_text"`
}

// ClassificationResult is what the AI classifier extracted from one message.
// It is consumed by the matcher and never persisted.
type ClassificationResult struct {
	HasSignal      bool             `json:"has_signal"`
	Confidence     float64          `json:"confidence"`
	Company        string           `json:"company,omitempty"`
	JobTitle       string           `json:"job_title,omitempty"`
	ProposedStatus appdomain.Status `json:"proposed_status,omitempty"`
}

// MatchCandidate is a ranked application candidate for one classified message
type MatchCandidate struct {
	Application *appdomain.JobApplication
	Score       float64
	CompanyTerm float64
	TitleTerm   float64
	RecencyTerm float64
}

// SyncCheckpoint is the durable cursor into the mailbox stream.
// A single row (ID 1) exists per deployment; it is advanced after every
// fully-handled message and only rolled back by an explicit reset.
type SyncCheckpoint struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	LastProcessedAt time.Time `json:"last_processed_at"`
	LastMessageID   string    `json:"last_message_id" gorm:"default:''"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SyncRunSummary aggregates the outcome of one sync run
type SyncRunSummary struct {
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
	MessagesScanned     int       `json:"messages_scanned"`
	SignalsFound        int       `json:"signals_found"`
	ApplicationsUpdated int       `json:"applications_updated"`
	AmbiguousMatches    int       `json:"ambiguous_matches"`
	Errors              []string  `json:"errors"`
}

// Failed reports whether the run recorded any errors
func (s *SyncRunSummary) Failed() bool {
	return len(s.Errors) > 0
}

// SyncRunRecord is a compact persisted row per completed run, for the
// dashboards further up the app. The engine itself only writes it.
type SyncRunRecord struct {
	ID                  string    `json:"id" gorm:"primaryKey"`
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
	MessagesScanned     int       `json:"messages_scanned"`
	SignalsFound        int       `json:"signals_found"`
	ApplicationsUpdated int       `json:"applications_updated"`
	AmbiguousMatches    int       `json:"ambiguous_matches"`
	ErrorCount          int       `json:"error_count"`
	CreatedAt           time.Time `json:"created_at"`
}

// MailProvider fetches candidate messages from the connected mailbox.
// Implementations page against the provider internally and return messages
// received strictly after the checkpoint, ordered oldest to newest.
// On a mid-paging failure the messages fetched so far are returned together
// with a *FetchError (or *RateLimitedError), so partial progress is usable.
type MailProvider interface {
	FetchSince(ctx context.Context, since time.Time, sinceMessageID string) ([]*MailMessage, error)
}
