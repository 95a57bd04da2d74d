package usecase

import (
	"sort"
	"strings"
	"time"

	appdomain "jobtrack-backend/internal/application/domain"
	syncdomain "jobtrack-backend/internal/sync/domain"
	"jobtrack-backend/pkg/fuzzy"
)

// Composite score weights and thresholds. Company identity dominates, title
// refines, recency breaks near-ties between old and active applications.
const (
	companyWeight = 0.5
	titleWeight   = 0.3
	recencyWeight = 0.2

	recencyWindow = 30 * 24 * time.Hour
)

// MatchOutcome is what the matcher decided for one classified message
type MatchOutcome int

const (
	MatchNone MatchOutcome = iota
	MatchSingle
	MatchAmbiguous
)

// ApplicationMatcher resolves a classification to open application records
type ApplicationMatcher struct {
	minScore       float64
	ambiguityDelta float64
}

// NewApplicationMatcher creates a matcher with the given score policy
func NewApplicationMatcher(minScore, ambiguityDelta float64) *ApplicationMatcher {
	return &ApplicationMatcher{
		minScore:       minScore,
		ambiguityDelta: ambiguityDelta,
	}
}

// Match ranks the open applications against the classification and applies
// the tie-break policy: one clear winner proceeds, near-equal top scores are
// ambiguous and must never be guessed between.
func (m *ApplicationMatcher) Match(result *syncdomain.ClassificationResult, openApps []*appdomain.JobApplication) (MatchOutcome, []*syncdomain.MatchCandidate) {
	now := time.Now()

	var candidates []*syncdomain.MatchCandidate
	for _, app := range openApps {
		candidate := m.score(result, app, now)
		if candidate.Score >= m.minScore {
			candidates = append(candidates, candidate)
		}
	}

	if len(candidates) == 0 {
		return MatchNone, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) == 1 {
		return MatchSingle, candidates
	}

	if candidates[0].Score-candidates[1].Score < m.ambiguityDelta {
		return MatchAmbiguous, candidates
	}

	return MatchSingle, candidates
}

// score computes the composite match score for one application
func (m *ApplicationMatcher) score(result *syncdomain.ClassificationResult, app *appdomain.JobApplication, now time.Time) *syncdomain.MatchCandidate {
	companyTerm := companySimilarity(result.Company, app.CompanyName)

	titleTerm := 0.0
	if result.JobTitle != "" {
		titleTerm = fuzzy.TokenOverlap(result.JobTitle, app.JobTitle)
	}

	recencyTerm := 0.0
	if now.Sub(app.UpdatedAt) <= recencyWindow {
		recencyTerm = 1.0
	}

	return &syncdomain.MatchCandidate{
		Application: app,
		Score:       companyWeight*companyTerm + titleWeight*titleTerm + recencyWeight*recencyTerm,
		CompanyTerm: companyTerm,
		TitleTerm:   titleTerm,
		RecencyTerm: recencyTerm,
	}
}

// companySimilarity is 1.0 on a case-insensitive exact match, otherwise the
// token overlap of the two names ("Acme" vs "Acme Corp" scores 0.5)
func companySimilarity(extracted, recorded string) float64 {
	if extracted == "" {
		return 0
	}
	if strings.EqualFold(strings.TrimSpace(extracted), strings.TrimSpace(recorded)) {
		return 1.0
	}
	return fuzzy.TokenOverlap(extracted, recorded)
}
