package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	appdomain "jobtrack-backend/internal/application/domain"
	syncdomain "jobtrack-backend/internal/sync/domain"
)

type mockMailProvider struct {
	messages []*syncdomain.MailMessage
	err      error

	calls      int
	gotSince   time.Time
	gotSinceID string
}

func (m *mockMailProvider) FetchSince(ctx context.Context, since time.Time, sinceMessageID string) ([]*syncdomain.MailMessage, error) {
	m.calls++
	m.gotSince = since
	m.gotSinceID = sinceMessageID
	return m.messages, m.err
}

type mockClassifier struct {
	calls int
	fn    func(msg *syncdomain.MailMessage) (*syncdomain.ClassificationResult, error)
}

func (m *mockClassifier) ClassifyMessage(ctx context.Context, msg *syncdomain.MailMessage) (*syncdomain.ClassificationResult, error) {
	m.calls++
	return m.fn(msg)
}

type mockCheckpointRepo struct {
	checkpoint syncdomain.SyncCheckpoint
	saveCalls  int
}

func (m *mockCheckpointRepo) Load() (*syncdomain.SyncCheckpoint, error) {
	cp := m.checkpoint
	return &cp, nil
}

func (m *mockCheckpointRepo) Save(checkpoint *syncdomain.SyncCheckpoint) error {
	m.saveCalls++
	m.checkpoint = *checkpoint
	return nil
}

func (m *mockCheckpointRepo) Reset() error {
	m.checkpoint = syncdomain.SyncCheckpoint{ID: m.checkpoint.ID}
	return nil
}

type mockRunRecordRepo struct {
	records []*syncdomain.SyncRunRecord
}

func (m *mockRunRecordRepo) Create(record *syncdomain.SyncRunRecord) error {
	m.records = append(m.records, record)
	return nil
}

func (m *mockRunRecordRepo) Latest(limit int) ([]*syncdomain.SyncRunRecord, error) {
	return m.records, nil
}

func signalClassifier(company, title string, status appdomain.Status, confidence float64) *mockClassifier {
	return &mockClassifier{
		fn: func(msg *syncdomain.MailMessage) (*syncdomain.ClassificationResult, error) {
			return &syncdomain.ClassificationResult{
				HasSignal:      true,
				Confidence:     confidence,
				Company:        company,
				JobTitle:       title,
				ProposedStatus: status,
			}, nil
		},
	}
}

func newTestOrchestrator(provider *mockMailProvider, classifier *mockClassifier, appRepo *mockApplicationRepo, cpRepo *mockCheckpointRepo, rrRepo *mockRunRecordRepo) *Orchestrator {
	return NewOrchestrator(
		provider,
		classifier,
		NewApplicationMatcher(0.4, 0.05),
		NewStateUpdater(appRepo),
		appRepo,
		cpRepo,
		rrRepo,
		0.6, // confidence threshold
		2,   // classification attempt budget
		0,   // no backoff in tests
	)
}

func testMessage(id string, receivedAt time.Time) *syncdomain.MailMessage {
	return &syncdomain.MailMessage{
		ID:         id,
		ReceivedAt: receivedAt,
		Sender:     "recruiting@globex.example",
		Subject:    "Interview invitation",
		BodyText:   "We would like to schedule an interview.",
	}
}

func TestRunSync_EndToEndStatusUpdate(t *testing.T) {
	received := time.Now()
	provider := &mockMailProvider{messages: []*syncdomain.MailMessage{testMessage("msg-1", received)}}
	classifier := signalClassifier("Globex", "Backend Engineer", appdomain.StatusInterview, 0.9)
	appRepo := &mockApplicationRepo{
		openApps: []*appdomain.JobApplication{
			{ID: "app-1", CompanyName: "Globex", JobTitle: "Backend Engineer", Status: appdomain.StatusApplied, UpdatedAt: time.Now()},
		},
	}
	cpRepo := &mockCheckpointRepo{}
	rrRepo := &mockRunRecordRepo{}

	summary := newTestOrchestrator(provider, classifier, appRepo, cpRepo, rrRepo).RunSync(context.Background())

	if summary.MessagesScanned != 1 || summary.SignalsFound != 1 || summary.ApplicationsUpdated != 1 {
		t.Fatalf("unexpected summary: scanned=%d signals=%d updated=%d",
			summary.MessagesScanned, summary.SignalsFound, summary.ApplicationsUpdated)
	}
	if summary.Failed() {
		t.Fatalf("unexpected errors: %v", summary.Errors)
	}
	if appRepo.updateStatusCalls != 1 {
		t.Errorf("expected one store update, got %d", appRepo.updateStatusCalls)
	}
	if cpRepo.checkpoint.LastMessageID != "msg-1" || !cpRepo.checkpoint.LastProcessedAt.Equal(received) {
		t.Errorf("checkpoint not advanced past the handled message: %+v", cpRepo.checkpoint)
	}
	if appRepo.openApps[0].Status != appdomain.StatusInterview || appRepo.openApps[0].LastSyncedMessageID != "msg-1" {
		t.Errorf("in-run application view not updated: %+v", appRepo.openApps[0])
	}
	if len(rrRepo.records) != 1 || rrRepo.records[0].ApplicationsUpdated != 1 {
		t.Errorf("expected one persisted run record, got %+v", rrRepo.records)
	}
}

func TestRunSync_ReplayedMessageIsIdempotent(t *testing.T) {
	provider := &mockMailProvider{messages: []*syncdomain.MailMessage{testMessage("msg-1", time.Now())}}
	classifier := signalClassifier("Globex", "", appdomain.StatusInterview, 0.9)
	appRepo := &mockApplicationRepo{
		openApps: []*appdomain.JobApplication{
			{ID: "app-1", CompanyName: "Globex", Status: appdomain.StatusInterview, LastSyncedMessageID: "msg-1", UpdatedAt: time.Now()},
		},
	}
	cpRepo := &mockCheckpointRepo{}

	summary := newTestOrchestrator(provider, classifier, appRepo, cpRepo, &mockRunRecordRepo{}).RunSync(context.Background())

	if appRepo.updateStatusCalls != 0 {
		t.Fatalf("replaying an already-applied message must not touch the store, got %d updates", appRepo.updateStatusCalls)
	}
	if summary.ApplicationsUpdated != 0 || summary.Failed() {
		t.Fatalf("unexpected summary: updated=%d errors=%v", summary.ApplicationsUpdated, summary.Errors)
	}
	if cpRepo.checkpoint.LastMessageID != "msg-1" {
		t.Errorf("checkpoint must still advance past a replayed message")
	}
}

func TestRunSync_LowConfidenceTreatedAsNoSignal(t *testing.T) {
	provider := &mockMailProvider{messages: []*syncdomain.MailMessage{testMessage("msg-1", time.Now())}}
	classifier := signalClassifier("Globex", "", appdomain.StatusInterview, 0.5)
	appRepo := &mockApplicationRepo{
		openApps: []*appdomain.JobApplication{
			{ID: "app-1", CompanyName: "Globex", Status: appdomain.StatusApplied, UpdatedAt: time.Now()},
		},
	}
	cpRepo := &mockCheckpointRepo{}

	summary := newTestOrchestrator(provider, classifier, appRepo, cpRepo, &mockRunRecordRepo{}).RunSync(context.Background())

	if summary.SignalsFound != 0 || summary.ApplicationsUpdated != 0 {
		t.Fatalf("below-threshold classification must be dropped, got signals=%d updated=%d",
			summary.SignalsFound, summary.ApplicationsUpdated)
	}
	if cpRepo.checkpoint.LastMessageID != "msg-1" {
		t.Errorf("checkpoint must advance past a dropped message")
	}
}

func TestRunSync_ClassifierRetryBudgetExhausted(t *testing.T) {
	provider := &mockMailProvider{messages: []*syncdomain.MailMessage{testMessage("msg-1", time.Now())}}
	classifier := &mockClassifier{
		fn: func(msg *syncdomain.MailMessage) (*syncdomain.ClassificationResult, error) {
			return nil, errors.New("model unavailable")
		},
	}
	appRepo := &mockApplicationRepo{}
	cpRepo := &mockCheckpointRepo{}

	summary := newTestOrchestrator(provider, classifier, appRepo, cpRepo, &mockRunRecordRepo{}).RunSync(context.Background())

	if classifier.calls != 2 {
		t.Fatalf("attempt budget of 2 means exactly 2 classifier calls, got %d", classifier.calls)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("expected the skipped message recorded as one error, got %v", summary.Errors)
	}
	if summary.MessagesScanned != 1 || summary.SignalsFound != 0 {
		t.Errorf("unexpected summary: scanned=%d signals=%d", summary.MessagesScanned, summary.SignalsFound)
	}
	if cpRepo.checkpoint.LastMessageID != "msg-1" {
		t.Errorf("checkpoint must advance past an unclassifiable message")
	}
}

func TestRunSync_RetrySucceedsWithinBudget(t *testing.T) {
	provider := &mockMailProvider{messages: []*syncdomain.MailMessage{testMessage("msg-1", time.Now())}}
	classifier := &mockClassifier{}
	classifier.fn = func(msg *syncdomain.MailMessage) (*syncdomain.ClassificationResult, error) {
		if classifier.calls == 1 {
			return nil, errors.New("transient timeout")
		}
		return &syncdomain.ClassificationResult{
			HasSignal:      true,
			Confidence:     0.9,
			Company:        "Globex",
			ProposedStatus: appdomain.StatusInterview,
		}, nil
	}
	appRepo := &mockApplicationRepo{
		openApps: []*appdomain.JobApplication{
			{ID: "app-1", CompanyName: "Globex", Status: appdomain.StatusApplied, UpdatedAt: time.Now()},
		},
	}
	cpRepo := &mockCheckpointRepo{}

	summary := newTestOrchestrator(provider, classifier, appRepo, cpRepo, &mockRunRecordRepo{}).RunSync(context.Background())

	if classifier.calls != 2 {
		t.Fatalf("expected the second attempt to run, got %d calls", classifier.calls)
	}
	if summary.ApplicationsUpdated != 1 || summary.Failed() {
		t.Fatalf("expected a clean update after retry, got updated=%d errors=%v",
			summary.ApplicationsUpdated, summary.Errors)
	}
}

func TestRunSync_RateLimitProcessesPartialBatch(t *testing.T) {
	provider := &mockMailProvider{
		messages: []*syncdomain.MailMessage{testMessage("msg-1", time.Now())},
		err:      &syncdomain.RateLimitedError{Err: errors.New("too many requests")},
	}
	classifier := signalClassifier("Globex", "", appdomain.StatusInterview, 0.9)
	appRepo := &mockApplicationRepo{
		openApps: []*appdomain.JobApplication{
			{ID: "app-1", CompanyName: "Globex", Status: appdomain.StatusApplied, UpdatedAt: time.Now()},
		},
	}
	cpRepo := &mockCheckpointRepo{}

	summary := newTestOrchestrator(provider, classifier, appRepo, cpRepo, &mockRunRecordRepo{}).RunSync(context.Background())

	if summary.Failed() {
		t.Fatalf("a throttled fetch with partial results is not a failed run, got %v", summary.Errors)
	}
	if summary.ApplicationsUpdated != 1 {
		t.Fatalf("partial batch must still be processed, got updated=%d", summary.ApplicationsUpdated)
	}
	if cpRepo.checkpoint.LastMessageID != "msg-1" {
		t.Errorf("checkpoint must cover the processed partial batch")
	}
}

func TestRunSync_FetchErrorKeepsPartialProgress(t *testing.T) {
	provider := &mockMailProvider{
		messages: []*syncdomain.MailMessage{testMessage("msg-1", time.Now())},
		err:      &syncdomain.FetchError{Err: errors.New("connection reset")},
	}
	classifier := signalClassifier("Globex", "", appdomain.StatusInterview, 0.9)
	appRepo := &mockApplicationRepo{
		openApps: []*appdomain.JobApplication{
			{ID: "app-1", CompanyName: "Globex", Status: appdomain.StatusApplied, UpdatedAt: time.Now()},
		},
	}
	cpRepo := &mockCheckpointRepo{}

	summary := newTestOrchestrator(provider, classifier, appRepo, cpRepo, &mockRunRecordRepo{}).RunSync(context.Background())

	if !summary.Failed() {
		t.Fatalf("a fetch failure must mark the run failed")
	}
	if summary.ApplicationsUpdated != 1 {
		t.Fatalf("messages fetched before the failure must still be processed, got updated=%d", summary.ApplicationsUpdated)
	}
	if cpRepo.checkpoint.LastMessageID != "msg-1" {
		t.Errorf("checkpoint must keep the partial progress")
	}
}

func TestRunSync_AmbiguousMatchIsCountedNotApplied(t *testing.T) {
	provider := &mockMailProvider{messages: []*syncdomain.MailMessage{testMessage("msg-1", time.Now())}}
	classifier := signalClassifier("Acme", "", appdomain.StatusRejected, 0.9)
	appRepo := &mockApplicationRepo{
		openApps: []*appdomain.JobApplication{
			{ID: "app-1", CompanyName: "Acme Corp", Status: appdomain.StatusApplied, UpdatedAt: time.Now()},
			{ID: "app-2", CompanyName: "Acme Corporation", Status: appdomain.StatusApplied, UpdatedAt: time.Now()},
		},
	}
	cpRepo := &mockCheckpointRepo{}

	summary := newTestOrchestrator(provider, classifier, appRepo, cpRepo, &mockRunRecordRepo{}).RunSync(context.Background())

	if summary.AmbiguousMatches != 1 {
		t.Fatalf("expected one ambiguous outcome, got %d", summary.AmbiguousMatches)
	}
	if appRepo.updateStatusCalls != 0 {
		t.Fatalf("ambiguous matches must never be applied, got %d updates", appRepo.updateStatusCalls)
	}
	if summary.Failed() {
		t.Errorf("ambiguity is not a run error, got %v", summary.Errors)
	}
	if cpRepo.checkpoint.LastMessageID != "msg-1" {
		t.Errorf("checkpoint must advance past an ambiguous message")
	}
}

func TestRunSync_StoreConflictStopsPassBeforeMessage(t *testing.T) {
	first := testMessage("msg-1", time.Now().Add(-time.Minute))
	second := testMessage("msg-2", time.Now())
	provider := &mockMailProvider{messages: []*syncdomain.MailMessage{first, second}}
	classifier := signalClassifier("Globex", "", appdomain.StatusInterview, 0.9)
	appRepo := &mockApplicationRepo{
		openApps: []*appdomain.JobApplication{
			{ID: "app-1", CompanyName: "Globex", Status: appdomain.StatusApplied, UpdatedAt: time.Now()},
		},
		updateStatusFn: func(id string, from, to appdomain.Status, sourceMessageID string) error {
			return &syncdomain.StoreConflictError{ApplicationID: id}
		},
	}
	cpRepo := &mockCheckpointRepo{}

	summary := newTestOrchestrator(provider, classifier, appRepo, cpRepo, &mockRunRecordRepo{}).RunSync(context.Background())

	if summary.MessagesScanned != 1 {
		t.Fatalf("pass must stop at the conflicted message, scanned %d", summary.MessagesScanned)
	}
	if !summary.Failed() {
		t.Fatalf("conflict must be recorded as a run error")
	}
	if cpRepo.checkpoint.LastMessageID != "" {
		t.Errorf("checkpoint must stay before the conflicted message so the next run retries it, got %q",
			cpRepo.checkpoint.LastMessageID)
	}
}

func TestRunSync_PassesCheckpointCursorToProvider(t *testing.T) {
	since := time.Now().Add(-24 * time.Hour)
	provider := &mockMailProvider{}
	cpRepo := &mockCheckpointRepo{
		checkpoint: syncdomain.SyncCheckpoint{ID: 1, LastProcessedAt: since, LastMessageID: "msg-9"},
	}

	newTestOrchestrator(provider, &mockClassifier{}, &mockApplicationRepo{}, cpRepo, &mockRunRecordRepo{}).RunSync(context.Background())

	if provider.calls != 1 {
		t.Fatalf("expected one fetch, got %d", provider.calls)
	}
	if !provider.gotSince.Equal(since) || provider.gotSinceID != "msg-9" {
		t.Errorf("provider did not receive the stored cursor: since=%v id=%q", provider.gotSince, provider.gotSinceID)
	}
}
