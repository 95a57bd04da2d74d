package usecase

import (
	"testing"
	"time"

	appdomain "jobtrack-backend/internal/application/domain"
	syncdomain "jobtrack-backend/internal/sync/domain"
)

func newTestMatcher() *ApplicationMatcher {
	return NewApplicationMatcher(0.4, 0.05)
}

func openApp(id, company, title string, updatedAt time.Time) *appdomain.JobApplication {
	return &appdomain.JobApplication{
		ID:          id,
		CompanyName: company,
		JobTitle:    title,
		Status:      appdomain.StatusApplied,
		UpdatedAt:   updatedAt,
	}
}

func TestMatcher_SingleExactCompanyMatch(t *testing.T) {
	m := newTestMatcher()
	apps := []*appdomain.JobApplication{
		openApp("app-1", "Globex", "Backend Engineer", time.Now()),
		openApp("app-2", "Initech", "Data Analyst", time.Now()),
	}
	result := &syncdomain.ClassificationResult{
		HasSignal:      true,
		Confidence:     0.9,
		Company:        "Globex",
		ProposedStatus: appdomain.StatusInterview,
	}

	outcome, candidates := m.Match(result, apps)
	if outcome != MatchSingle {
		t.Fatalf("expected MatchSingle, got %v", outcome)
	}
	if candidates[0].Application.ID != "app-1" {
		t.Fatalf("expected app-1 as top candidate, got %s", candidates[0].Application.ID)
	}
	if candidates[0].CompanyTerm != 1.0 {
		t.Errorf("expected exact company term 1.0, got %f", candidates[0].CompanyTerm)
	}
}

func TestMatcher_CompanyMatchIsCaseInsensitive(t *testing.T) {
	m := newTestMatcher()
	apps := []*appdomain.JobApplication{
		openApp("app-1", "GLOBEX", "Backend Engineer", time.Now()),
	}
	result := &syncdomain.ClassificationResult{HasSignal: true, Company: "globex"}

	outcome, candidates := m.Match(result, apps)
	if outcome != MatchSingle || candidates[0].CompanyTerm != 1.0 {
		t.Fatalf("expected case-insensitive exact company match, got outcome %v", outcome)
	}
}

func TestMatcher_NoCandidateAboveThreshold(t *testing.T) {
	m := newTestMatcher()
	apps := []*appdomain.JobApplication{
		openApp("app-1", "Globex", "Backend Engineer", time.Now()),
	}
	result := &syncdomain.ClassificationResult{HasSignal: true, Company: "Initech"}

	outcome, candidates := m.Match(result, apps)
	if outcome != MatchNone {
		t.Fatalf("expected MatchNone, got %v with %d candidates", outcome, len(candidates))
	}
}

func TestMatcher_AmbiguousNearEqualScores(t *testing.T) {
	// The central correctness guarantee: the engine must never guess between
	// two plausible applications.
	m := newTestMatcher()
	apps := []*appdomain.JobApplication{
		openApp("app-1", "Acme Corp", "Software Engineer", time.Now()),
		openApp("app-2", "Acme Corporation", "Software Engineer", time.Now()),
	}
	result := &syncdomain.ClassificationResult{
		HasSignal:      true,
		Confidence:     0.9,
		Company:        "Acme",
		ProposedStatus: appdomain.StatusRejected,
	}

	outcome, candidates := m.Match(result, apps)
	if outcome != MatchAmbiguous {
		t.Fatalf("expected MatchAmbiguous, got %v", outcome)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected both candidates recorded, got %d", len(candidates))
	}
}

func TestMatcher_ExactBeatsPartialCompany(t *testing.T) {
	m := newTestMatcher()
	apps := []*appdomain.JobApplication{
		openApp("app-1", "Acme Corp", "Software Engineer", time.Now()),
		openApp("app-2", "Acme Corporation", "Software Engineer", time.Now()),
	}
	result := &syncdomain.ClassificationResult{HasSignal: true, Company: "Acme Corp"}

	outcome, candidates := m.Match(result, apps)
	if outcome != MatchSingle {
		t.Fatalf("expected MatchSingle, got %v", outcome)
	}
	if candidates[0].Application.ID != "app-1" {
		t.Fatalf("expected exact company name to win, got %s", candidates[0].Application.ID)
	}
}

func TestMatcher_TitleBreaksCompanyTie(t *testing.T) {
	m := newTestMatcher()
	apps := []*appdomain.JobApplication{
		openApp("app-1", "Globex", "Backend Engineer", time.Now()),
		openApp("app-2", "Globex", "Product Designer", time.Now()),
	}
	result := &syncdomain.ClassificationResult{
		HasSignal: true,
		Company:   "Globex",
		JobTitle:  "Backend Engineer",
	}

	outcome, candidates := m.Match(result, apps)
	if outcome != MatchSingle {
		t.Fatalf("expected title to disambiguate, got %v", outcome)
	}
	if candidates[0].Application.ID != "app-1" {
		t.Fatalf("expected app-1 to win on title, got %s", candidates[0].Application.ID)
	}
}

func TestMatcher_StaleApplicationLosesRecencyBonus(t *testing.T) {
	m := newTestMatcher()
	fresh := openApp("fresh", "Globex", "Backend Engineer", time.Now())
	stale := openApp("stale", "Globex", "Backend Engineer", time.Now().Add(-60*24*time.Hour))
	result := &syncdomain.ClassificationResult{HasSignal: true, Company: "Globex", JobTitle: "Backend Engineer"}

	outcome, candidates := m.Match(result, []*appdomain.JobApplication{stale, fresh})
	if outcome != MatchSingle {
		t.Fatalf("expected MatchSingle, got %v", outcome)
	}
	if candidates[0].Application.ID != "fresh" {
		t.Fatalf("expected recently-updated application to rank first, got %s", candidates[0].Application.ID)
	}
	if candidates[0].RecencyTerm != 1.0 || candidates[1].RecencyTerm != 0.0 {
		t.Errorf("unexpected recency terms: %f, %f", candidates[0].RecencyTerm, candidates[1].RecencyTerm)
	}
}
