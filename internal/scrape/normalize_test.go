package scrape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var refNow = time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)

func TestExtractAmount(t *testing.T) {
	cases := []struct {
		text     string
		min, max float64
		ok       bool
	}{
		{"Awards up to $2,500 for classroom kits", 0, 2500, true},
		{"Grants range from $1,000 to $5,000.", 1000, 5000, true},
		{"A $750 award", 750, 750, true},
		{"Three awards of $500, $1,500 and $10,000.50", 500, 10000.5, true},
		{"Funding amount varies", 0, 0, false},
	}
	for _, c := range cases {
		min, max, ok := ExtractAmount(c.text)
		assert.Equal(t, c.ok, ok, c.text)
		assert.Equal(t, c.min, min, c.text)
		assert.Equal(t, c.max, max, c.text)
	}
}

func TestParseDeadline(t *testing.T) {
	cases := []struct {
		name          string
		text          string
		want          time.Time
		wantRecurring bool
	}{
		{"long month", "Deadline: March 15, 2030", time.Date(2030, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"ordinal", "Apply by April 1st, 2030", time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC), false},
		{"short month", "Due Sept. 5, 2030", time.Date(2030, 9, 5, 0, 0, 0, 0, time.UTC), false},
		{"numeric", "Closes 6/30/2030", time.Date(2030, 6, 30, 0, 0, 0, 0, time.UTC), false},
		{"iso", "deadline 2030-11-01", time.Date(2030, 11, 1, 0, 0, 0, 0, time.UTC), false},
		{"past rolls forward", "Deadline: October 1, 2029", time.Date(2030, 10, 1, 0, 0, 0, 0, time.UTC), true},
		{"rolling", "Applications accepted on a rolling basis", refNow.AddDate(1, 0, 0), true},
		{"annual", "Awarded annually. Deadline May 1, 2030", time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"no date", "See website", refNow.AddDate(0, 0, 180), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, recurring := ParseDeadline(c.text, refNow)
			assert.Equal(t, c.want, got)
			assert.Equal(t, c.wantRecurring, recurring)
		})
	}
}

func TestParseExpiry(t *testing.T) {
	until, ongoing := ParseExpiry("Offer ends December 31, 2031.", refNow)
	assert.Equal(t, time.Date(2031, 12, 31, 0, 0, 0, 0, time.UTC), until)
	assert.False(t, ongoing)

	until, ongoing = ParseExpiry("Ended January 1, 2020", refNow)
	assert.Equal(t, refNow.AddDate(1, 0, 0), until)
	assert.True(t, ongoing)
}

func TestNormalizeGrades(t *testing.T) {
	cases := map[string][]string{
		"For middle school teachers":            {"6", "7", "8"},
		"Open to K-12 educators":                {"K", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"},
		"Pre-K and kindergarten classrooms":     {"Pre-K", "K"},
		"Teachers of grades 3 to 5":             {"3", "4", "5"},
		"High school and college instructors":   {"9", "10", "11", "12", "College"},
		"For all teachers of the kids in Texas": {"Any"},
	}
	for text, want := range cases {
		assert.Equal(t, want, NormalizeGrades(text), text)
	}
}

func TestNormalizeSubjects(t *testing.T) {
	cases := map[string][]string{
		"Supports STEM and robotics clubs":      {"Science", "Computer Science"},
		"Math and reading intervention":         {"Mathematics", "Reading"},
		"Special education and ESL classrooms":  {"Special Education", "ESL/ELL"},
		"Band, choir and orchestra programs":    {"Music"},
		"Open to every teacher in the district": {"Any"},
	}
	for text, want := range cases {
		assert.Equal(t, want, NormalizeSubjects(text), text)
	}
}

func TestNormalizeFundingTypes(t *testing.T) {
	assert.Equal(t, []string{"Technology Equipment", "Books and Materials"}, NormalizeFundingTypes("Buy tablets and library books"))
	assert.Equal(t, []string{"Professional Development"}, NormalizeFundingTypes("Attend a summer conference"))
	assert.Equal(t, []string{"General"}, NormalizeFundingTypes("Unrestricted cash award"))
}

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"Save on laptops and software":    "Technology",
		"Hotel and car rental savings":    "Travel",
		"Auto insurance for educators":    "Insurance",
		"Restaurant gift cards":           "Food & Dining",
		"Museum tickets for the family":   "Entertainment",
		"Discounts on classroom supplies": "Shopping",
		"Something else entirely":         "Other",
	}
	for text, want := range cases {
		assert.Equal(t, want, NormalizeCategory(text), text)
	}
}

func TestNormalizeDiscountValue(t *testing.T) {
	cases := []struct {
		text, value, kind string
	}{
		{"Save up to 10% on Mac", "Up to 10% off", "Percentage"},
		{"15% off every order", "15% off", "Percentage"},
		{"Get $20 off orders over $100", "$20 off", "Fixed Amount"},
		{"Free shipping on all classroom orders", "Free shipping", "Free Shipping"},
		{"Buy one, get one free coffee", "Buy one, get one", "Buy One Get One"},
		{"Exclusive pricing for members", "Member pricing", "Membership Benefit"},
		{"A special deal for teachers", "Special offer", "Special Offer"},
	}
	for _, c := range cases {
		value, kind := NormalizeDiscountValue(c.text)
		assert.Equal(t, c.value, value, c.text)
		assert.Equal(t, c.kind, kind, c.text)
	}
}

func TestPromoCodeAndTeacherID(t *testing.T) {
	assert.Equal(t, "TEACH20", PromoCode("Use code TEACH20 at checkout"))
	assert.Equal(t, "SCHOOL5", PromoCode("Promo code: SCHOOL5"))
	assert.Empty(t, PromoCode("No code needed for teachers"))

	assert.True(t, RequiresTeacherID("Teacher ID required in store"))
	assert.True(t, RequiresTeacherID("Verify your status online"))
	assert.False(t, RequiresTeacherID("Open to everyone"))
}

func TestCompanyFromTitle(t *testing.T) {
	cases := map[string]string{
		"Apple - Teacher Discount":      "Apple",
		"Office Depot Teacher Savings":  "Office Depot",
		"Dell: Educator Pricing":        "Dell",
		"Verizon Teacher Discounts":     "Verizon",
		"Barnes & Noble Educator Perks": "Barnes & Noble",
	}
	for title, want := range cases {
		assert.Equal(t, want, CompanyFromTitle(title), title)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("  short ", 10))
	got := Truncate("one two three four five six seven", 20)
	assert.Equal(t, "one two three...", got)
	assert.LessOrEqual(t, len([]rune(got)), 21)
	assert.Equal(t, "ééééééé...", Truncate("éééééééééééééé", 10))
}
