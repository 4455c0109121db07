package matching

import (
	"fmt"
	"math"
)

// WeightSet defines the relative importance of each matching factor.
// All weights must be non-negative and sum to 1.0 (±0.001 tolerance).
type WeightSet struct {
	GradeLevel  float64
	Subject     float64
	District    float64
	FundingType float64
	Amount      float64
}

func DefaultWeights() WeightSet {
	return WeightSet{
		GradeLevel:  0.30,
		Subject:     0.25,
		District:    0.20,
		FundingType: 0.15,
		Amount:      0.10,
	}
}

// Sum returns the total of all weights.
func (w WeightSet) Sum() float64 {
	return w.GradeLevel + w.Subject + w.District + w.FundingType + w.Amount
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w WeightSet) Validate() error {
	for _, v := range w.asList() {
		if v < 0 {
			return fmt.Errorf("negative weight: %f", v)
		}
	}
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	return nil
}

func (w WeightSet) asList() []float64 {
	return []float64{w.GradeLevel, w.Subject, w.District, w.FundingType, w.Amount}
}
