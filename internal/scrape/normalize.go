package scrape

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teacheasy/teacheasy/internal/store"
)

var (
	dollarPattern  = regexp.MustCompile(`\$\s?((?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?)`)
	upToPattern    = regexp.MustCompile(`(?i)\bup to\b`)
	rollingPattern = regexp.MustCompile(`(?i)\b(rolling|ongoing|continuous|year[- ]round)\b`)
	annualPattern  = regexp.MustCompile(`(?i)\b(annual(ly)?|each year|every year|yearly)\b`)
	percentPattern = regexp.MustCompile(`(\d{1,3})\s?%`)
	promoPattern   = regexp.MustCompile(`\b(?:(?i:promo|coupon|discount)\s+)?(?i:code)[:\s]+([A-Z0-9]{4,20})\b`)
	teacherIDRule  = regexp.MustCompile(`(?i)\b(teacher|educator|school|staff)\s+id\b|\bverif(y|ied|ication)\b`)
)

// ExtractAmount returns the smallest and largest dollar figures in text. A
// single figure introduced by "up to" is a ceiling with no floor.
func ExtractAmount(text string) (min, max float64, ok bool) {
	matches := dollarPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, 0, false
	}
	values := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil || v <= 0 {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return 0, 0, false
	}
	sort.Float64s(values)
	min, max = values[0], values[len(values)-1]
	if len(values) == 1 && upToPattern.MatchString(text) {
		min = 0
	}
	return min, max, true
}

var dateLayouts = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}\b`), "January 2 2006"},
	{regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|jun|jul|aug|sept?|oct|nov|dec)\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}\b`), "Jan 2 2006"},
	{regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`), "1/2/2006"},
	{regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`), "2006-01-02"},
}

var ordinalSuffix = regexp.MustCompile(`(?i)(\d)(st|nd|rd|th)\b`)

// FindDate returns the first calendar date written in text.
func FindDate(text string) (time.Time, bool) {
	for _, d := range dateLayouts {
		m := d.re.FindString(text)
		if m == "" {
			continue
		}
		m = ordinalSuffix.ReplaceAllString(m, "$1")
		m = strings.NewReplacer(",", "", ".", "").Replace(m)
		m = strings.Join(strings.Fields(m), " ")
		if strings.HasPrefix(strings.ToLower(m), "sept ") {
			m = "Sep" + m[4:]
		}
		if t, err := time.Parse(d.layout, m); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDeadline reads an application deadline from text. Rolling deadlines
// fall a year out, a date already past moves to next year, and text without a
// date defaults to six months out. recurring reports whether the listing
// repeats.
func ParseDeadline(text string, now time.Time) (deadline time.Time, recurring bool) {
	recurring = annualPattern.MatchString(text)
	if rollingPattern.MatchString(text) {
		return now.AddDate(1, 0, 0), true
	}
	t, ok := FindDate(text)
	if !ok {
		return now.AddDate(0, 0, 180), recurring
	}
	if t.Before(now) {
		return t.AddDate(1, 0, 0), true
	}
	return t, recurring
}

// ParseExpiry reads the end of a discount offer, defaulting to one year out.
// ongoing reports that no end date was found.
func ParseExpiry(text string, now time.Time) (until time.Time, ongoing bool) {
	if t, ok := FindDate(text); ok && t.After(now) {
		return t, false
	}
	return now.AddDate(1, 0, 0), true
}

type keywordRule struct {
	re     *regexp.Regexp
	values []string
}

func rule(pattern string, values ...string) keywordRule {
	return keywordRule{re: regexp.MustCompile(`(?i)` + pattern), values: values}
}

var gradeRules = []keywordRule{
	rule(`\bpre-?k\b|\bpre-?kindergarten\b|\bpreschool\b`, "Pre-K"),
	rule(`\bk-12\b|\ball grades\b`, "K", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"),
	rule(`\bk-8\b`, "K", "1", "2", "3", "4", "5", "6", "7", "8"),
	rule(`\bk-5\b|\belementary\b`, "K", "1", "2", "3", "4", "5"),
	rule(`\bkindergarten\b`, "K"),
	rule(`\b6-8\b|\bmiddle school\b|\bjunior high\b`, "6", "7", "8"),
	rule(`\b6-12\b`, "6", "7", "8", "9", "10", "11", "12"),
	rule(`\b9-12\b|\bhigh school\b|\bsecondary\b`, "9", "10", "11", "12"),
	rule(`\bcollege\b|\buniversity\b|\bundergraduate\b`, "College"),
	rule(`\badult education\b|\badult learners?\b`, "Adult Education"),
}

var gradeNumber = regexp.MustCompile(`(?i)\bgrades?\s+(\d{1,2})(?:\s*(?:-|to|through)\s*(\d{1,2}))?\b`)

// NormalizeGrades maps grade wording onto the grade vocabulary, in school
// order. Text naming no grade yields Any.
func NormalizeGrades(text string) []string {
	found := map[string]bool{}
	for _, r := range gradeRules {
		if r.re.MatchString(text) {
			for _, v := range r.values {
				found[v] = true
			}
		}
	}
	for _, m := range gradeNumber.FindAllStringSubmatch(text, -1) {
		lo, _ := strconv.Atoi(m[1])
		hi := lo
		if m[2] != "" {
			hi, _ = strconv.Atoi(m[2])
		}
		for g := lo; g <= hi && g <= 12; g++ {
			if g >= 1 {
				found[strconv.Itoa(g)] = true
			}
		}
	}
	return ordered(store.GradeLevels, found, store.AnyValue)
}

var subjectRules = []keywordRule{
	rule(`\bmath(ematics|s)?\b|\balgebra\b|\bgeometry\b`, "Mathematics"),
	rule(`\bscience\b|\bbiology\b|\bchemistry\b|\bphysics\b|\bstem\b|\bsteam\b`, "Science"),
	rule(`\benglish\b|\blanguage arts\b|\bela\b|\bliteracy\b`, "English/Language Arts"),
	rule(`\breading\b`, "Reading"),
	rule(`\bwriting\b`, "Writing"),
	rule(`\bsocial studies\b|\bcivics\b|\bgeography\b`, "Social Studies"),
	rule(`\bhistory\b`, "History"),
	rule(`\barts?\b|\bvisual arts\b|\btheat(er|re)\b|\bdrama\b`, "Art"),
	rule(`\bmusic\b|\bband\b|\bchoir\b|\borchestra\b`, "Music"),
	rule(`\bphysical education\b|\bp\.?e\.?\b|\bhealth and fitness\b`, "Physical Education"),
	rule(`\bforeign languages?\b|\bworld languages?\b|\bspanish\b|\bfrench\b`, "Foreign Language"),
	rule(`\bcomputer science\b|\bcoding\b|\bprogramming\b|\brobotics\b`, "Computer Science"),
	rule(`\bspecial (ed|education|needs)\b|\bdisabilit(y|ies)\b`, "Special Education"),
	rule(`\besl\b|\bell\b|\benglish learners?\b|\bbilingual\b`, "ESL/ELL"),
}

// NormalizeSubjects maps subject wording onto the subject vocabulary. Text
// naming no subject yields Any.
func NormalizeSubjects(text string) []string {
	return matchRules(subjectRules, store.SubjectNames, text, store.AnyValue)
}

var fundingRules = []keywordRule{
	rule(`\bsupplies\b|\bclassroom needs\b`, "Classroom Supplies"),
	rule(`\btechnology\b|\btech\b|\bcomputers?\b|\blaptops?\b|\btablets?\b|\bdevices?\b`, "Technology Equipment"),
	rule(`\bbooks?\b|\bmaterials\b|\bresources\b|\blibrary\b`, "Books and Materials"),
	rule(`\bprofessional development\b|\btraining\b|\bconferences?\b|\bworkshops?\b|\bcertification\b`, "Professional Development"),
	rule(`\bfield trips?\b|\bexcursions?\b`, "Field Trips"),
	rule(`\bprograms?\b|\bprojects?\b|\binitiatives?\b`, "Special Programs"),
	rule(`\bstudent (support|needs|wellness)\b|\bmentoring\b|\btutoring\b`, "Student Support"),
	rule(`\bfurniture\b|\bflexible seating\b`, "Classroom Furniture"),
	rule(`\bstem\b|\bsteam\b|\brobotics\b|\blab equipment\b`, "STEM Materials"),
}

// NormalizeFundingTypes maps funding wording onto the funding vocabulary. Text
// naming no funding use yields General.
func NormalizeFundingTypes(text string) []string {
	return matchRules(fundingRules, store.FundingNeeds, text, store.GeneralFunding)
}

func matchRules(rules []keywordRule, vocabulary []string, text, fallback string) []string {
	found := map[string]bool{}
	for _, r := range rules {
		if r.re.MatchString(text) {
			for _, v := range r.values {
				found[v] = true
			}
		}
	}
	return ordered(vocabulary, found, fallback)
}

// ordered lists the found values in vocabulary order.
func ordered(vocabulary []string, found map[string]bool, fallback string) []string {
	var out []string
	for _, v := range vocabulary {
		if found[v] {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return []string{fallback}
	}
	return out
}

// canonical returns the vocabulary entry equal to v ignoring case.
func canonical(vocabulary []string, v string) (string, bool) {
	v = strings.TrimSpace(v)
	for _, item := range vocabulary {
		if strings.EqualFold(item, v) {
			return item, true
		}
	}
	return "", false
}

var categoryRules = []keywordRule{
	rule(`\btechnology\b|\bcomputers?\b|\blaptops?\b|\bsoftware\b|\belectronics\b|\bphones?\b|\bwireless\b`, "Technology"),
	rule(`\btravel\b|\bhotels?\b|\bcar rentals?\b|\bairlines?\b|\bflights?\b|\bvacations?\b|\bcruises?\b`, "Travel"),
	rule(`\binsurance\b`, "Insurance"),
	rule(`\bbank(ing)?\b|\bloans?\b|\bmortgages?\b|\bcredit\b|\bfinancial\b|\bretirement\b|\binvest`, "Financial Services"),
	rule(`\bhealth\b|\bwellness\b|\bfitness\b|\bgym\b|\bvision\b|\bdental\b|\bpharmacy\b`, "Health & Wellness"),
	rule(`\bbooks?\b|\bmagazines?\b|\bmedia\b|\bstreaming\b|\bnews\b`, "Books & Media"),
	rule(`\bfood\b|\bdining\b|\brestaurants?\b|\bmeals?\b|\bgrocer(y|ies)\b`, "Food & Dining"),
	rule(`\bentertainment\b|\bmovies?\b|\btheme parks?\b|\btickets?\b|\bconcerts?\b|\bmuseums?\b`, "Entertainment"),
	rule(`\bcourses?\b|\btuition\b|\blearning\b|\bdegrees?\b|\bclasses\b`, "Education"),
	rule(`\bshop(ping)?\b|\bstores?\b|\bretail(er)?\b|\bsupplies\b|\bapparel\b|\bclothing\b`, "Shopping"),
}

// NormalizeCategory picks the first discount category whose keywords appear in
// text, or Other.
func NormalizeCategory(text string) string {
	for _, r := range categoryRules {
		if r.re.MatchString(text) {
			return r.values[0]
		}
	}
	return "Other"
}

var (
	freeShipping = regexp.MustCompile(`(?i)\bfree shipping\b`)
	bogo         = regexp.MustCompile(`(?i)\bbuy one,? get one\b|\bbogo\b`)
	membership   = regexp.MustCompile(`(?i)\bmembers?(hip)?\b`)
)

// NormalizeDiscountValue returns the offer's display value and its discount
// type.
func NormalizeDiscountValue(text string) (value, discountType string) {
	if m := percentPattern.FindStringSubmatch(text); m != nil {
		prefix := ""
		if upToPattern.MatchString(text) {
			prefix = "Up to "
		}
		return prefix + m[1] + "% off", "Percentage"
	}
	if m := dollarPattern.FindString(text); m != "" {
		return strings.ReplaceAll(m, " ", "") + " off", "Fixed Amount"
	}
	switch {
	case freeShipping.MatchString(text):
		return "Free shipping", "Free Shipping"
	case bogo.MatchString(text):
		return "Buy one, get one", "Buy One Get One"
	case membership.MatchString(text):
		return "Member pricing", "Membership Benefit"
	}
	return "Special offer", "Special Offer"
}

// PromoCode returns an uppercase code introduced by "code:" in text.
func PromoCode(text string) string {
	if m := promoPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// RequiresTeacherID reports whether text asks for proof of employment.
func RequiresTeacherID(text string) bool {
	return teacherIDRule.MatchString(text)
}

// Truncate shortens s to at most n runes on a word boundary, marking the cut.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n-3])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}
