package matching

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/teacheasy/teacheasy/internal/store"
)

// FactorResult captures one factor's contribution to the total score.
type FactorResult struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
	Reason   string  `json:"reason,omitempty"`
}

// amountNormalizer is the distance, in currency units, at which a
// non-overlapping amount range scores zero.
const amountNormalizer = 10000

// defaultPreferredMax stands in for an open upper bound on the preferred amount.
const defaultPreferredMax = 1000000

// GradeFactor scores grade-level fit. With several profile grades the best
// sub-score wins.
func GradeFactor(s *store.Scholarship, p *Profile) FactorResult {
	grades := s.Eligibility.GradeLevels
	if len(p.GradeLevel) == 0 || contains(grades, store.AnyValue) {
		return FactorResult{Name: "gradeLevel", Score: 1.0, Reason: "open to all grades"}
	}

	best := 0.0
	for _, g := range p.GradeLevel {
		if sc := gradeScore(grades, g); sc > best {
			best = sc
		}
	}
	return FactorResult{Name: "gradeLevel", Score: best}
}

func gradeScore(grades []string, userGrade string) float64 {
	if userGrade == "" {
		return 1.0
	}
	userNum, ok := gradeToNumber(userGrade)
	if !ok {
		return 0.5
	}
	for _, g := range grades {
		if g == store.AnyValue || g == userGrade {
			return 1.0
		}
		if strings.Contains(g, "-") {
			parts := strings.Split(g, "-")
			lo, okLo := gradeToNumber(parts[0])
			hi, okHi := gradeToNumber(parts[1])
			if okLo && okHi && userNum >= lo && userNum <= hi {
				return 1.0
			}
		}
	}
	return 0.3
}

// gradeToNumber maps a grade label onto an ordinal: Pre-K is -1, K is 0 and
// numeric grades parse from their leading integer ("6th" is 6).
func gradeToNumber(grade string) (int, bool) {
	switch grade {
	case "K", "Kindergarten":
		return 0, true
	case "Pre-K":
		return -1, true
	}

	s := strings.TrimLeftFunc(grade, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SubjectFactor is the fraction of the profile's subjects the scholarship covers.
func SubjectFactor(s *store.Scholarship, p *Profile) FactorResult {
	subjects := s.Eligibility.Subjects
	if len(p.Subjects) == 0 || contains(subjects, store.AnyValue) {
		return FactorResult{Name: "subject", Score: 1.0, Reason: "open to all subjects"}
	}
	return FactorResult{Name: "subject", Score: fractionMatched(p.Subjects, subjects)}
}

// DistrictFactor scores district eligibility.
func DistrictFactor(s *store.Scholarship, p *Profile) FactorResult {
	districts := s.Eligibility.Districts
	if p.SchoolDistrict == "" || contains(districts, store.NationalRegion) || contains(districts, store.AnyValue) {
		return FactorResult{Name: "district", Score: 1.0, Reason: "not restricted by district"}
	}
	if contains(districts, p.SchoolDistrict) {
		return FactorResult{Name: "district", Score: 1.0, Reason: "district eligible"}
	}
	return FactorResult{Name: "district", Score: 0.2, Reason: "district not listed"}
}

// FundingFactor is the fraction of the profile's funding needs the scholarship covers.
func FundingFactor(s *store.Scholarship, p *Profile) FactorResult {
	if len(p.FundingNeeds) == 0 {
		return FactorResult{Name: "fundingType", Score: 0.5, Reason: "no funding needs"}
	}
	return FactorResult{Name: "fundingType", Score: fractionMatched(p.FundingNeeds, s.Eligibility.FundingTypes)}
}

// AmountFactor scores overlap between the award range and the preferred range.
// Disjoint ranges decay linearly with the gap between them.
func AmountFactor(s *store.Scholarship, p *Profile) FactorResult {
	if p.PreferredAmount == nil {
		return FactorResult{Name: "amount", Score: 0.5, Reason: "no amount preference"}
	}

	userMin := p.PreferredAmount.Min
	userMax := p.PreferredAmount.Max
	if userMax == 0 {
		userMax = defaultPreferredMax
	}

	if userMin <= s.Amount.Max && userMax >= s.Amount.Min {
		return FactorResult{Name: "amount", Score: 1.0, Reason: "ranges overlap"}
	}

	distance := math.Min(math.Abs(userMin-s.Amount.Max), math.Abs(userMax-s.Amount.Min))
	return FactorResult{Name: "amount", Score: math.Max(0, 1-distance/amountNormalizer)}
}

func fractionMatched(want, have []string) float64 {
	if len(want) == 0 {
		return 0
	}
	matched := 0
	for _, w := range want {
		if contains(have, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(want))
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
