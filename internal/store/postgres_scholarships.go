package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const scholarshipColumns = `id, title, description, organization, website,
	amount_min, amount_max, currency,
	grade_levels, subjects, regions, districts, funding_types, requirements,
	deadline, application_url, application_method, documents_required, is_recurring, next_deadline,
	contact, tags, difficulty, popularity,
	is_active, is_verified, view_count, bookmark_count, status, source,
	created_at, updated_at, published_at`

func (s *PostgresStore) CreateScholarship(ctx context.Context, sc *Scholarship) error {
	sc.ApplyDefaults()
	contactJSON, err := json.Marshal(sc.Contact)
	if err != nil {
		return fmt.Errorf("encode contact: %w", err)
	}
	e := sc.Eligibility
	a := sc.Application

	return s.pool.QueryRow(ctx, `
		INSERT INTO scholarships (title, description, organization, website,
			amount_min, amount_max, currency,
			grade_levels, subjects, regions, districts, funding_types, requirements,
			deadline, application_url, application_method, documents_required, is_recurring, next_deadline,
			contact, tags, difficulty, popularity,
			is_active, is_verified, status, source, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
		RETURNING id, created_at, updated_at`,
		sc.Title, sc.Description, sc.Organization, nullString(sc.Website),
		sc.Amount.Min, sc.Amount.Max, sc.Amount.Currency,
		emptyIfNil(e.GradeLevels), emptyIfNil(e.Subjects), emptyIfNil(e.Regions),
		emptyIfNil(e.Districts), emptyIfNil(e.FundingTypes), e.Requirements,
		a.Deadline, nullString(a.ApplicationURL), a.ApplicationMethod, emptyIfNil(a.DocumentsRequired),
		a.IsRecurring, a.NextDeadline,
		contactJSON, emptyIfNil(sc.Tags), sc.Difficulty, sc.Popularity,
		sc.IsActive, sc.IsVerified, sc.Status, sc.Source, sc.PublishedAt,
	).Scan(&sc.ID, &sc.CreatedAt, &sc.UpdatedAt)
}

func (s *PostgresStore) GetScholarship(ctx context.Context, id uuid.UUID) (*Scholarship, error) {
	sc, err := scanScholarship(s.pool.QueryRow(ctx, `
		SELECT `+scholarshipColumns+` FROM scholarships WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return sc, err
}

func (s *PostgresStore) UpdateScholarship(ctx context.Context, sc *Scholarship) error {
	sc.ApplyDefaults()
	contactJSON, err := json.Marshal(sc.Contact)
	if err != nil {
		return fmt.Errorf("encode contact: %w", err)
	}
	e := sc.Eligibility
	a := sc.Application

	err = s.pool.QueryRow(ctx, `
		UPDATE scholarships SET
			title = $2, description = $3, organization = $4, website = $5,
			amount_min = $6, amount_max = $7, currency = $8,
			grade_levels = $9, subjects = $10, regions = $11, districts = $12,
			funding_types = $13, requirements = $14,
			deadline = $15, application_url = $16, application_method = $17,
			documents_required = $18, is_recurring = $19, next_deadline = $20,
			contact = $21, tags = $22, difficulty = $23, popularity = $24,
			is_active = $25, is_verified = $26, status = $27, source = $28, published_at = $29,
			updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at, view_count, bookmark_count`,
		sc.ID, sc.Title, sc.Description, sc.Organization, nullString(sc.Website),
		sc.Amount.Min, sc.Amount.Max, sc.Amount.Currency,
		emptyIfNil(e.GradeLevels), emptyIfNil(e.Subjects), emptyIfNil(e.Regions),
		emptyIfNil(e.Districts), emptyIfNil(e.FundingTypes), e.Requirements,
		a.Deadline, nullString(a.ApplicationURL), a.ApplicationMethod,
		emptyIfNil(a.DocumentsRequired), a.IsRecurring, a.NextDeadline,
		contactJSON, emptyIfNil(sc.Tags), sc.Difficulty, sc.Popularity,
		sc.IsActive, sc.IsVerified, sc.Status, sc.Source, sc.PublishedAt,
	).Scan(&sc.CreatedAt, &sc.UpdatedAt, &sc.ViewCount, &sc.BookmarkCount)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	return err
}

func (s *PostgresStore) DeactivateScholarship(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE scholarships SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListScholarships(ctx context.Context, filter ScholarshipFilter) ([]*Scholarship, int, error) {
	where, args := scholarshipWhere(filter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM scholarships`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count scholarships: %w", err)
	}

	page, pageArgs := limitOffset(filter.Limit, filter.Offset, len(args))
	query := `SELECT ` + scholarshipColumns + ` FROM scholarships` + where +
		scholarshipOrder(filter.SortBy, filter.Descending) + page

	rows, err := s.pool.Query(ctx, query, append(args, pageArgs...)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	scholarships, err := scanScholarships(rows)
	return scholarships, total, err
}

func (s *PostgresStore) FeaturedScholarships(ctx context.Context, limit int) ([]*Scholarship, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+scholarshipColumns+` FROM scholarships
		WHERE is_active = true AND is_verified = true
		ORDER BY popularity DESC, view_count DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScholarships(rows)
}

func (s *PostgresStore) SuggestScholarships(ctx context.Context, q string, limit int) ([]*ScholarshipSuggestion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, organization, tags FROM scholarships
		WHERE is_active = true AND is_verified = true
			AND (title ILIKE $1 OR organization ILIKE $1
				OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $1))
		LIMIT $2`, containsPattern(q), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suggestions := []*ScholarshipSuggestion{}
	for rows.Next() {
		sg := &ScholarshipSuggestion{}
		if err := rows.Scan(&sg.ID, &sg.Title, &sg.Organization, &sg.Tags); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, sg)
	}
	return suggestions, rows.Err()
}

func (s *PostgresStore) RecommendScholarships(ctx context.Context, user *User, limit int) ([]*Scholarship, error) {
	where, args := recommendationWhere(user)
	args = append(args, limit)
	query := `SELECT ` + scholarshipColumns + ` FROM scholarships` + where +
		fmt.Sprintf(" ORDER BY popularity DESC, view_count DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScholarships(rows)
}

func (s *PostgresStore) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `UPDATE scholarships SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) ActiveScholarships(ctx context.Context) ([]*Scholarship, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+scholarshipColumns+` FROM scholarships
		WHERE is_active = true
		ORDER BY deadline ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScholarships(rows)
}

func (s *PostgresStore) DeleteAllScholarships(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scholarships`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ScholarshipExists matches title and organization case-insensitively.
func (s *PostgresStore) ScholarshipExists(ctx context.Context, title, organization string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM scholarships WHERE lower(title) = lower($1) AND lower(organization) = lower($2)
		)`, title, organization).Scan(&exists)
	return exists, err
}

// RollRecurringDeadlines advances recurring scholarships whose deadline has
// passed: the deadline takes the next deadline (or one year on when none is
// set) and the next deadline moves one year past the new deadline.
func (s *PostgresStore) RollRecurringDeadlines(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE scholarships SET
			deadline = COALESCE(next_deadline, deadline + INTERVAL '1 year'),
			next_deadline = COALESCE(next_deadline, deadline + INTERVAL '1 year') + INTERVAL '1 year',
			updated_at = now()
		WHERE is_recurring = true AND is_active = true AND deadline < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanScholarship(row pgx.Row) (*Scholarship, error) {
	sc := &Scholarship{}
	var website, applicationURL sql.NullString
	var contactJSON []byte
	err := row.Scan(
		&sc.ID, &sc.Title, &sc.Description, &sc.Organization, &website,
		&sc.Amount.Min, &sc.Amount.Max, &sc.Amount.Currency,
		&sc.Eligibility.GradeLevels, &sc.Eligibility.Subjects, &sc.Eligibility.Regions,
		&sc.Eligibility.Districts, &sc.Eligibility.FundingTypes, &sc.Eligibility.Requirements,
		&sc.Application.Deadline, &applicationURL, &sc.Application.ApplicationMethod,
		&sc.Application.DocumentsRequired, &sc.Application.IsRecurring, &sc.Application.NextDeadline,
		&contactJSON, &sc.Tags, &sc.Difficulty, &sc.Popularity,
		&sc.IsActive, &sc.IsVerified, &sc.ViewCount, &sc.BookmarkCount, &sc.Status, &sc.Source,
		&sc.CreatedAt, &sc.UpdatedAt, &sc.PublishedAt,
	)
	if err != nil {
		return nil, err
	}
	if website.Valid {
		sc.Website = website.String
	}
	if applicationURL.Valid {
		sc.Application.ApplicationURL = applicationURL.String
	}
	if err := decodeContact(contactJSON, &sc.Contact); err != nil {
		return nil, fmt.Errorf("scholarship %s: %w", sc.ID, err)
	}
	return sc, nil
}

func decodeContact(raw []byte, c *Contact) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("decode contact: %w", err)
	}
	return nil
}

func scanScholarships(rows pgx.Rows) ([]*Scholarship, error) {
	scholarships := []*Scholarship{}
	for rows.Next() {
		sc, err := scanScholarship(rows)
		if err != nil {
			return nil, err
		}
		scholarships = append(scholarships, sc)
	}
	return scholarships, rows.Err()
}
