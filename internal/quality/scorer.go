// Package quality scores how informative a retrieved fragment is and
// re-ranks retrieval candidates by a similarity/quality composite.
package quality

import (
	"sort"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
)

const (
	baseScore = 10
	minScore  = 0
	maxScore  = 10
)

// Scorer applies a rule table to text
type Scorer struct {
	rules            []Rule
	similarityWeight float64
	qualityWeight    float64
}

// NewScorer creates a scorer. Nil rules means DefaultRules; non-positive
// weights fall back to 0.7 / 0.3.
func NewScorer(rules []Rule, similarityWeight, qualityWeight float64) *Scorer {
	if rules == nil {
		rules = DefaultRules()
	}
	if similarityWeight <= 0 && qualityWeight <= 0 {
		similarityWeight, qualityWeight = 0.7, 0.3
	}
	return &Scorer{
		rules:            rules,
		similarityWeight: similarityWeight,
		qualityWeight:    qualityWeight,
	}
}

var defaultScorer = NewScorer(nil, 0.7, 0.3)

// Score scores text with the default rules
func Score(text string) int {
	return defaultScorer.Score(text)
}

// Score returns an integer in [0, 10]. Each category contributes at most
// once, using the first of its rules that matches.
func (s *Scorer) Score(text string) int {
	score := baseScore
	applied := make(map[Category]bool, 4)
	for _, r := range s.rules {
		if applied[r.Category] {
			continue
		}
		if r.Matches(text) {
			applied[r.Category] = true
			score += r.Weight
		}
	}
	return clamp(score)
}

// Matched returns the names of the rules that decided the score, for diagnostics
func (s *Scorer) Matched(text string) []string {
	var names []string
	applied := make(map[Category]bool, 4)
	for _, r := range s.rules {
		if !applied[r.Category] && r.Matches(text) {
			applied[r.Category] = true
			names = append(names, r.Name)
		}
	}
	return names
}

// Composite weighs similarity against quality normalized to [0, 1]
func (s *Scorer) Composite(similarity float64, qualityScore int) float64 {
	return s.similarityWeight*similarity + s.qualityWeight*(float64(qualityScore)/maxScore)
}

// FilterLowQuality scores each candidate, drops those below minQuality and
// orders the rest by composite score descending. Equal composites keep
// their input order.
func (s *Scorer) FilterLowQuality(candidates []domain.Candidate, minQuality int) []domain.ScoredCandidate {
	kept := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		q := s.Score(c.Content)
		if q < minQuality {
			continue
		}
		kept = append(kept, domain.ScoredCandidate{
			Candidate:      c,
			QualityScore:   q,
			CompositeScore: s.Composite(c.Similarity, q),
		})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].CompositeScore > kept[j].CompositeScore
	})
	return kept
}

// FilterLowQuality filters with the default scorer
func FilterLowQuality(candidates []domain.Candidate, minQuality int) []domain.ScoredCandidate {
	return defaultScorer.FilterLowQuality(candidates, minQuality)
}

func clamp(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
