package scrape

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/teacheasy/teacheasy/internal/store"
)

const minDescription = 50

var discountSources = []string{"NEA Perks", "Retailer Website", "Corporate Partnership", "Educational Institution", "Other"}

// BuildScholarship turns a classified listing into a catalog record. Amounts
// and deadlines come from the listing text; short descriptions are expanded
// from the title.
func BuildScholarship(l Listing, c Classification, now time.Time) *store.Scholarship {
	amountText := l.AmountText
	if amountText == "" {
		amountText = l.Text
	}
	min, max, _ := ExtractAmount(amountText)

	deadlineText := l.DeadlineText
	if deadlineText == "" {
		deadlineText = l.Text
	}
	deadline, recurring := ParseDeadline(deadlineText, now)

	org := l.Organization
	if org == "" {
		org = "Various Organizations"
	}
	requirements := l.Requirements
	if requirements == "" {
		requirements = "See website for eligibility details"
	}
	kind := c.Type
	if kind == "" {
		kind = TypeGrant
	}

	return &store.Scholarship{
		Title:        Truncate(l.Title, 200),
		Description:  describe(l.Title, l.Description, kind),
		Organization: org,
		Website:      l.Link,
		Amount:       store.Amount{Min: min, Max: max, Currency: store.DefaultCurrency},
		Eligibility: store.Eligibility{
			GradeLevels:  c.GradeLevels,
			Subjects:     c.Subjects,
			Regions:      []string{store.NationalRegion},
			Districts:    []string{store.NationalRegion},
			FundingTypes: c.FundingTypes,
			Requirements: requirements,
		},
		Application: store.ApplicationDetails{
			Deadline:          deadline,
			ApplicationURL:    l.Link,
			ApplicationMethod: "Online",
			IsRecurring:       recurring,
		},
		Tags:       []string{kind, "education", "teacher"},
		Difficulty: "Medium",
		Popularity: 50,
		Source:     l.Origin,
	}
}

func describe(title, description, kind string) string {
	description = strings.TrimSpace(description)
	if len([]rune(description)) >= minDescription {
		return Truncate(description, maxDescription)
	}
	var extra string
	if kind == TypeScholarship {
		extra = "This scholarship supports teacher education, certification, and professional growth."
	} else {
		extra = "This grant supports classroom projects, resources, and educational initiatives."
	}
	if description == "" {
		description = title
	}
	return Truncate(fmt.Sprintf("Funding opportunity for teachers: %s. %s", strings.TrimRight(description, "."), extra), maxDescription)
}

var (
	titleSeparators = regexp.MustCompile(`\s[|:\-–—]\s|:\s`)
	titleSuffix     = regexp.MustCompile(`(?i)\s+(teacher|educator|education|school)?\s*(discounts?|deals?|offers?|savings|perks?|benefits?)$`)
	neaMember       = regexp.MustCompile(`\bNEA\b`)
	aftMember       = regexp.MustCompile(`\bAFT\b`)
)

// CompanyFromTitle guesses the offering company from a listing title such as
// "Apple - Teacher Discount".
func CompanyFromTitle(title string) string {
	name := title
	if loc := titleSeparators.FindStringIndex(title); loc != nil && loc[0] > 0 {
		name = title[:loc[0]]
	}
	name = strings.TrimSpace(titleSuffix.ReplaceAllString(strings.TrimSpace(name), ""))
	if name == "" {
		return strings.TrimSpace(title)
	}
	return name
}

// BuildDiscount turns a listing into a discount record.
func BuildDiscount(l Listing, now time.Time) *store.Discount {
	value, discountType := NormalizeDiscountValue(l.Text)

	expiryText := l.DeadlineText
	if expiryText == "" {
		expiryText = l.Text
	}
	until, ongoing := ParseExpiry(expiryText, now)

	company := l.Organization
	if company == "" {
		company = CompanyFromTitle(l.Title)
	}
	source, ok := canonical(discountSources, l.Origin)
	if !ok {
		source = "Other"
	}
	membership := "None"
	switch {
	case neaMember.MatchString(l.Text) || source == "NEA Perks":
		membership = "NEA"
	case aftMember.MatchString(l.Text):
		membership = "AFT"
	}
	category := NormalizeCategory(l.Text)
	description := l.Description
	if description == "" {
		description = fmt.Sprintf("Teacher discount from %s.", company)
	}

	return &store.Discount{
		Title:         Truncate(l.Title, 200),
		Description:   Truncate(description, maxDescription),
		Company:       company,
		Category:      category,
		DiscountType:  discountType,
		DiscountValue: value,
		Website:       l.Link,
		PromoCode:     PromoCode(l.Text),
		ValidFrom:     now,
		ValidUntil:    until,
		Requirements: store.DiscountRequirements{
			TeacherID:  RequiresTeacherID(l.Text),
			Membership: membership,
			Other:      l.Requirements,
		},
		Source:      source,
		Status:      store.DiscountActive,
		IsRecurring: ongoing,
		Popularity:  50,
		Tags:        []string{"teacher discount", strings.ToLower(category)},
	}
}
