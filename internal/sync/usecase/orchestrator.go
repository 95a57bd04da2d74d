package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	appdomain "jobtrack-backend/internal/application/domain"
	apprepo "jobtrack-backend/internal/application/repository"
	syncdomain "jobtrack-backend/internal/sync/domain"
	syncrepo "jobtrack-backend/internal/sync/repository"
	"jobtrack-backend/pkg/ai"
)

// Orchestrator runs one sync pass end to end: checkpoint -> fetch ->
// classify -> match -> update. Message processing is strictly sequential so
// the checkpoint only ever moves forward past fully-handled messages.
type Orchestrator struct {
	mailProvider   syncdomain.MailProvider
	classifier     ai.ClassifierService
	matcher        *ApplicationMatcher
	updater        *StateUpdater
	appRepo        apprepo.ApplicationRepository
	checkpointRepo syncrepo.CheckpointRepository
	runRecordRepo  syncrepo.RunRecordRepository

	confidenceThreshold float64
	maxAttempts         int
	retryDelay          time.Duration
}

// NewOrchestrator creates an orchestrator wired with all its dependencies
func NewOrchestrator(
	mailProvider syncdomain.MailProvider,
	classifier ai.ClassifierService,
	matcher *ApplicationMatcher,
	updater *StateUpdater,
	appRepo apprepo.ApplicationRepository,
	checkpointRepo syncrepo.CheckpointRepository,
	runRecordRepo syncrepo.RunRecordRepository,
	confidenceThreshold float64,
	maxAttempts int,
	retryDelay time.Duration,
) *Orchestrator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Orchestrator{
		mailProvider:        mailProvider,
		classifier:          classifier,
		matcher:             matcher,
		updater:             updater,
		appRepo:             appRepo,
		checkpointRepo:      checkpointRepo,
		runRecordRepo:       runRecordRepo,
		confidenceThreshold: confidenceThreshold,
		maxAttempts:         maxAttempts,
		retryDelay:          retryDelay,
	}
}

// RunSync executes one full sync pass and returns its summary. Message-level
// errors are counted and skipped; a fetch-level error ends the run but keeps
// every checkpoint advance already committed.
func (o *Orchestrator) RunSync(ctx context.Context) *syncdomain.SyncRunSummary {
	summary := &syncdomain.SyncRunSummary{
		StartedAt: time.Now(),
		Errors:    []string{},
	}
	defer func() {
		summary.FinishedAt = time.Now()
		o.recordRun(summary)
	}()

	checkpoint, err := o.checkpointRepo.Load()
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("load checkpoint: %v", err))
		return summary
	}

	messages, fetchErr := o.mailProvider.FetchSince(ctx, checkpoint.LastProcessedAt, checkpoint.LastMessageID)

	var rateLimited *syncdomain.RateLimitedError
	if fetchErr != nil && errors.As(fetchErr, &rateLimited) {
		// Throttled: process what we got, the rest waits for the next run
		log.Printf("[Orchestrator] Mailbox rate limited, continuing with %d fetched messages", len(messages))
		fetchErr = nil
	}

	if len(messages) > 0 {
		openApps, err := o.appRepo.GetOpenApplications()
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("load open applications: %v", err))
			return summary
		}

		for _, msg := range messages {
			stop := o.processMessage(ctx, msg, openApps, checkpoint, summary)
			if stop {
				return summary
			}
		}
	}

	if fetchErr != nil {
		summary.Errors = append(summary.Errors, fetchErr.Error())
		log.Printf("[Orchestrator] Run aborted by fetch error: %v", fetchErr)
		return summary
	}

	log.Printf("[Orchestrator] Run complete: scanned=%d signals=%d updated=%d ambiguous=%d errors=%d",
		summary.MessagesScanned, summary.SignalsFound, summary.ApplicationsUpdated,
		summary.AmbiguousMatches, len(summary.Errors))
	return summary
}

// processMessage handles one message through classify -> match -> update and
// advances the checkpoint past it. Returns true when the pass must stop with
// the checkpoint left before this message (store conflict).
func (o *Orchestrator) processMessage(ctx context.Context, msg *syncdomain.MailMessage, openApps []*appdomain.JobApplication, checkpoint *syncdomain.SyncCheckpoint, summary *syncdomain.SyncRunSummary) bool {
	summary.MessagesScanned++

	result, err := o.classifyWithRetry(ctx, msg)
	if err != nil {
		// Skip the message rather than block on it forever
		summary.Errors = append(summary.Errors, err.Error())
		o.advanceCheckpoint(checkpoint, msg, summary)
		return false
	}

	// Confidence below threshold is treated as no signal, per policy
	if !result.HasSignal || result.Confidence < o.confidenceThreshold {
		o.advanceCheckpoint(checkpoint, msg, summary)
		return false
	}

	summary.SignalsFound++

	outcome, candidates := o.matcher.Match(result, openApps)
	switch outcome {
	case MatchNone:
		log.Printf("[Orchestrator] No application matches message %s (company %q)", msg.ID, result.Company)

	case MatchAmbiguous:
		summary.AmbiguousMatches++
		log.Printf("[Orchestrator] Ambiguous match for message %s: %q could be %d applications, not applying",
			msg.ID, result.Company, len(candidates))

	case MatchSingle:
		app := candidates[0].Application
		updateOutcome, err := o.updater.Apply(app, result.ProposedStatus, msg.ID)
		if err != nil {
			var conflict *syncdomain.StoreConflictError
			if errors.As(err, &conflict) {
				// Leave the checkpoint before this message so the next run
				// retries it against the store's new state
				summary.Errors = append(summary.Errors, err.Error())
				log.Printf("[Orchestrator] Store conflict on application %s, stopping pass before message %s", app.ID, msg.ID)
				return true
			}

			var invalid *syncdomain.InvalidTransitionError
			if errors.As(err, &invalid) {
				// Policy rejection, logged by the updater; not a run error
				break
			}

			summary.Errors = append(summary.Errors, err.Error())
			break
		}

		if updateOutcome == UpdateApplied {
			summary.ApplicationsUpdated++
			// Keep the in-run view consistent for later messages
			app.Status = result.ProposedStatus
			app.LastSyncedMessageID = msg.ID
			app.UpdatedAt = time.Now()
		}
	}

	o.advanceCheckpoint(checkpoint, msg, summary)
	return false
}

// classifyWithRetry calls the classifier with a bounded attempt budget and
// linear backoff. The classifier itself never retries.
func (o *Orchestrator) classifyWithRetry(ctx context.Context, msg *syncdomain.MailMessage) (*syncdomain.ClassificationResult, error) {
	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := o.retryDelay * time.Duration(attempt-1)
			log.Printf("[Orchestrator] Retrying classification of message %s (attempt %d/%d) after %s",
				msg.ID, attempt, o.maxAttempts, delay)
			select {
			case <-ctx.Done():
				return nil, &syncdomain.ClassificationError{MessageID: msg.ID, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		result, err := o.classifier.ClassifyMessage(ctx, msg)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, &syncdomain.ClassificationError{MessageID: msg.ID, Err: lastErr}
}

// advanceCheckpoint persists the cursor past a fully-handled message.
// Persisting per message is what lets a crashed run re-enter at the next
// unprocessed message instead of the beginning.
func (o *Orchestrator) advanceCheckpoint(checkpoint *syncdomain.SyncCheckpoint, msg *syncdomain.MailMessage, summary *syncdomain.SyncRunSummary) {
	checkpoint.LastProcessedAt = msg.ReceivedAt
	checkpoint.LastMessageID = msg.ID
	if err := o.checkpointRepo.Save(checkpoint); err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("save checkpoint: %v", err))
	}
}

// recordRun persists the compact per-run row for the dashboards
func (o *Orchestrator) recordRun(summary *syncdomain.SyncRunSummary) {
	if o.runRecordRepo == nil {
		return
	}
	record := &syncdomain.SyncRunRecord{
		StartedAt:           summary.StartedAt,
		FinishedAt:          summary.FinishedAt,
		MessagesScanned:     summary.MessagesScanned,
		SignalsFound:        summary.SignalsFound,
		ApplicationsUpdated: summary.ApplicationsUpdated,
		AmbiguousMatches:    summary.AmbiguousMatches,
		ErrorCount:          len(summary.Errors),
	}
	if err := o.runRecordRepo.Create(record); err != nil {
		log.Printf("[Orchestrator] Failed to persist run record: %v", err)
	}
}
