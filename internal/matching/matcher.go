package matching

import (
	"log/slog"
	"math"
	"sort"

	"github.com/teacheasy/teacheasy/internal/store"
)

type MatchLevel string

const (
	MatchHigh    MatchLevel = "High"
	MatchMedium  MatchLevel = "Medium"
	MatchLow     MatchLevel = "Low"
	MatchVeryLow MatchLevel = "Very Low"
)

// LevelFor buckets a score into a match level.
func LevelFor(score float64) MatchLevel {
	switch {
	case score >= 0.8:
		return MatchHigh
	case score >= 0.6:
		return MatchMedium
	case score >= 0.4:
		return MatchLow
	default:
		return MatchVeryLow
	}
}

// SuccessPrediction is a slightly optimistic estimate derived from the score.
func SuccessPrediction(score float64) float64 {
	return math.Min(0.9, score+0.1)
}

// ScoredScholarship is a scholarship annotated with its match against a profile.
type ScoredScholarship struct {
	*store.Scholarship
	MatchScore        float64        `json:"matchScore"`
	OverallScore      float64        `json:"overallScore"`
	MatchLevel        MatchLevel     `json:"matchLevel"`
	SemanticScore     float64        `json:"semanticScore"`
	SuccessPrediction float64        `json:"successPrediction"`
	Factors           []FactorResult `json:"factors"`
}

// Matcher is the weighted additive scholarship matcher.
type Matcher struct {
	weights WeightSet
	logger  *slog.Logger
}

// NewMatcher creates a Matcher. Invalid weights fall back to DefaultWeights.
func NewMatcher(weights WeightSet, logger *slog.Logger) *Matcher {
	if err := weights.Validate(); err != nil {
		logger.Warn("invalid matching weights, using defaults", "error", err)
		weights = DefaultWeights()
	}
	return &Matcher{weights: weights, logger: logger}
}

func (m *Matcher) Weights() WeightSet {
	return m.weights
}

// Score computes the match score in [0,1] and the per-factor breakdown.
func (m *Matcher) Score(s *store.Scholarship, p *Profile) (float64, []FactorResult) {
	factors := []FactorResult{
		GradeFactor(s, p),
		SubjectFactor(s, p),
		DistrictFactor(s, p),
		FundingFactor(s, p),
		AmountFactor(s, p),
	}
	weights := m.weights.asList()

	var total, maxScore float64
	for i := range factors {
		factors[i].Weight = weights[i]
		factors[i].Weighted = factors[i].Score * weights[i]
		total += factors[i].Weighted
		maxScore += weights[i]
	}
	if maxScore <= 0 {
		return 0, factors
	}
	return clamp01(total / maxScore), factors
}

// ScoreAll scores every scholarship and orders the results by overall score,
// highest first. Ties keep their input order.
func (m *Matcher) ScoreAll(p *Profile, scholarships []*store.Scholarship) []*ScoredScholarship {
	scored := make([]*ScoredScholarship, 0, len(scholarships))
	for _, s := range scholarships {
		score, factors := m.Score(s, p)
		rounded := round2(score)
		scored = append(scored, &ScoredScholarship{
			Scholarship:       s,
			MatchScore:        rounded,
			OverallScore:      rounded,
			MatchLevel:        LevelFor(score),
			SemanticScore:     score,
			SuccessPrediction: SuccessPrediction(score),
			Factors:           factors,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].OverallScore > scored[j].OverallScore
	})
	return scored
}

// Top returns at most limit results from ScoreAll.
func (m *Matcher) Top(p *Profile, scholarships []*store.Scholarship, limit int) []*ScoredScholarship {
	scored := m.ScoreAll(p, scholarships)
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
