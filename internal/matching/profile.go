package matching

import (
	"encoding/json"
	"fmt"

	"github.com/teacheasy/teacheasy/internal/store"
)

// AmountRange is a preferred funding range. A zero Min means no lower bound
// and a zero Max means no upper bound.
type AmountRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// GradeList holds one or more grade levels. It decodes from either a JSON
// string or an array of strings.
type GradeList []string

func (g *GradeList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*g = nil
		} else {
			*g = GradeList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("gradeLevel must be a string or list of strings: %w", err)
	}
	*g = many
	return nil
}

// Profile is the user-side input to the matcher.
type Profile struct {
	GradeLevel      GradeList    `json:"gradeLevel"`
	Subjects        []string     `json:"subjects"`
	SchoolDistrict  string       `json:"schoolDistrict"`
	FundingNeeds    []string     `json:"fundingNeeds"`
	PreferredAmount *AmountRange `json:"preferredAmount"`
}

// ParseProfile decodes a profile supplied as a JSON document.
func ParseProfile(raw string) (*Profile, error) {
	p := &Profile{}
	if err := json.Unmarshal([]byte(raw), p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}

// ProfileFromUser builds a matcher profile from a stored user. The user's
// amount preferences become the preferred range.
func ProfileFromUser(u *store.User) *Profile {
	p := &Profile{
		GradeLevel:     GradeList(u.GradeLevel),
		Subjects:       u.Subjects,
		SchoolDistrict: u.SchoolDistrict,
		FundingNeeds:   u.FundingNeeds,
	}
	if u.Preferences.MinAmount > 0 || u.Preferences.MaxAmount > 0 {
		p.PreferredAmount = &AmountRange{Min: u.Preferences.MinAmount, Max: u.Preferences.MaxAmount}
	}
	return p
}
