package store

import (
	"fmt"
	"strings"
)

// defaultRecommendationMax is the upper bound used when a user sets only a
// minimum amount preference.
const defaultRecommendationMax = 100000

// scholarshipWhere builds the WHERE clause for catalog listings.
func scholarshipWhere(f ScholarshipFilter) (string, []interface{}) {
	where := " WHERE is_active = true AND is_verified = true"
	args := []interface{}{}
	n := 0

	if f.MinAmount != nil {
		n++
		where += fmt.Sprintf(" AND amount_max >= $%d", n)
		args = append(args, *f.MinAmount)
	}
	if f.MaxAmount != nil {
		n++
		where += fmt.Sprintf(" AND amount_min <= $%d", n)
		args = append(args, *f.MaxAmount)
	}
	for _, c := range []struct {
		column string
		values []string
	}{
		{"regions", f.Regions},
		{"grade_levels", f.GradeLevels},
		{"subjects", f.Subjects},
		{"funding_types", f.FundingTypes},
	} {
		if len(c.values) == 0 {
			continue
		}
		n++
		where += fmt.Sprintf(" AND %s && $%d", c.column, n)
		args = append(args, c.values)
	}
	if f.Search != "" {
		n++
		where += fmt.Sprintf(" AND search @@ plainto_tsquery('english', $%d)", n)
		args = append(args, f.Search)
	}
	return where, args
}

func scholarshipOrder(sortBy ScholarshipSort, desc bool) string {
	col := "deadline"
	switch sortBy {
	case SortByAmount:
		col = "amount_max"
	case SortByPopularity:
		col = "popularity"
	case SortByCreatedAt:
		col = "created_at"
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", col, dir)
}

// recommendationWhere matches scholarships whose eligibility overlaps the
// user's profile or carries the matching sentinel.
func recommendationWhere(u *User) (string, []interface{}) {
	where := ` WHERE is_active = true AND is_verified = true
		AND (grade_levels && $1 OR 'Any' = ANY(grade_levels))
		AND (subjects && $2 OR 'Any' = ANY(subjects))
		AND (regions && $3 OR regions && ARRAY['National', 'International'])
		AND (funding_types && $4 OR 'General' = ANY(funding_types))`
	args := []interface{}{
		emptyIfNil(u.GradeLevel),
		emptyIfNil(u.Subjects),
		[]string{u.SchoolRegion},
		emptyIfNil(u.FundingNeeds),
	}

	p := u.Preferences
	if p.MinAmount > 0 || p.MaxAmount > 0 {
		maxAmount := p.MaxAmount
		if maxAmount <= 0 {
			maxAmount = defaultRecommendationMax
		}
		where += " AND amount_max >= $5 AND amount_min <= $6"
		args = append(args, p.MinAmount, maxAmount)
	}
	return where, args
}

// discountWhere builds the WHERE clause for discount listings.
func discountWhere(f DiscountFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}
	n := 0

	switch {
	case f.Status == DiscountActive:
		n++
		where += fmt.Sprintf(" AND status = 'Active' AND valid_from <= $%d AND valid_until >= $%d", n, n)
		args = append(args, f.Now)
	case f.Status != "":
		n++
		where += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, f.Status)
	}
	if len(f.Categories) > 0 {
		n++
		where += fmt.Sprintf(" AND category = ANY($%d)", n)
		args = append(args, f.Categories)
	}
	if f.Company != "" {
		n++
		where += fmt.Sprintf(" AND company ILIKE $%d", n)
		args = append(args, containsPattern(f.Company))
	}
	if len(f.Sources) > 0 {
		n++
		where += fmt.Sprintf(" AND source = ANY($%d)", n)
		args = append(args, f.Sources)
	}
	if f.Featured {
		where += " AND featured = true"
	}
	if f.Search != "" {
		n++
		where += fmt.Sprintf(` AND (title ILIKE $%d OR description ILIKE $%d OR company ILIKE $%d
			OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $%d))`, n, n, n, n)
		args = append(args, containsPattern(f.Search))
	}
	return where, args
}

func discountOrder(sortBy DiscountSort, desc bool) string {
	col := "created_at"
	switch sortBy {
	case DiscountSortValidUntil:
		col = "valid_until"
	case DiscountSortPopularity:
		col = "popularity"
	case DiscountSortTitle:
		col = "title"
	case DiscountSortCompany:
		col = "company"
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", col, dir)
}

// containsPattern turns s into an ILIKE substring pattern with wildcards escaped.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func limitOffset(limit, offset, n int) (string, []interface{}) {
	if limit <= 0 {
		limit = 20
	}
	clause := fmt.Sprintf(" LIMIT $%d", n+1)
	args := []interface{}{limit}
	if offset > 0 {
		clause += fmt.Sprintf(" OFFSET $%d", n+2)
		args = append(args, offset)
	}
	return clause, args
}
