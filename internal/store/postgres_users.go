package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, auth0_id, email, name, school_name, school_region, school_district,
	grade_level, subjects, funding_needs, resume_url,
	pref_min_amount, pref_max_amount, pref_deadline,
	is_active, created_at, updated_at`

func (s *PostgresStore) GetUserByAuth0ID(ctx context.Context, auth0ID string) (*User, error) {
	u := &User{}
	var district, resumeURL sql.NullString
	err := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE auth0_id = $1`, auth0ID,
	).Scan(
		&u.ID, &u.Auth0ID, &u.Email, &u.Name, &u.SchoolName, &u.SchoolRegion, &district,
		&u.GradeLevel, &u.Subjects, &u.FundingNeeds, &resumeURL,
		&u.Preferences.MinAmount, &u.Preferences.MaxAmount, &u.Preferences.PreferredDeadline,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if district.Valid {
		u.SchoolDistrict = district.String
	}
	if resumeURL.Valid {
		u.ResumeURL = resumeURL.String
	}
	return u, nil
}

// UpsertUser writes the profile. An existing resume URL survives an update
// that omits it; preferences are written as given, so callers merge first.
func (s *PostgresStore) UpsertUser(ctx context.Context, u *User) (bool, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	var created bool
	var resumeURL sql.NullString
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (auth0_id, email, name, school_name, school_region, school_district,
			grade_level, subjects, funding_needs, resume_url,
			pref_min_amount, pref_max_amount, pref_deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (auth0_id) DO UPDATE SET
			email = EXCLUDED.email, name = EXCLUDED.name,
			school_name = EXCLUDED.school_name, school_region = EXCLUDED.school_region,
			school_district = EXCLUDED.school_district,
			grade_level = EXCLUDED.grade_level, subjects = EXCLUDED.subjects,
			funding_needs = EXCLUDED.funding_needs,
			resume_url = COALESCE(EXCLUDED.resume_url, users.resume_url),
			pref_min_amount = EXCLUDED.pref_min_amount, pref_max_amount = EXCLUDED.pref_max_amount,
			pref_deadline = EXCLUDED.pref_deadline,
			updated_at = now()
		RETURNING id, resume_url, is_active, created_at, updated_at, (xmax = 0)`,
		u.Auth0ID, u.Email, u.Name, u.SchoolName, u.SchoolRegion, nullString(u.SchoolDistrict),
		emptyIfNil(u.GradeLevel), emptyIfNil(u.Subjects), emptyIfNil(u.FundingNeeds), nullString(u.ResumeURL),
		u.Preferences.MinAmount, u.Preferences.MaxAmount, u.Preferences.PreferredDeadline,
	).Scan(&u.ID, &resumeURL, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &created)
	if err != nil {
		if isUniqueViolation(err) {
			return false, fmt.Errorf("email %s: %w", u.Email, ErrDuplicate)
		}
		return false, err
	}
	if resumeURL.Valid {
		u.ResumeURL = resumeURL.String
	}
	return created, nil
}

func (s *PostgresStore) SetResumeURL(ctx context.Context, auth0ID, url string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET resume_url = $2, updated_at = now() WHERE auth0_id = $1`, auth0ID, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddBookmark records the bookmark and bumps the scholarship's counter in one
// transaction. It returns ErrDuplicate when the bookmark already exists.
func (s *PostgresStore) AddBookmark(ctx context.Context, userID, scholarshipID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO bookmarks (user_id, scholarship_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, scholarshipID)
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	if _, err := tx.Exec(ctx, `
		UPDATE scholarships SET bookmark_count = bookmark_count + 1 WHERE id = $1`, scholarshipID); err != nil {
		return fmt.Errorf("increment bookmark count: %w", err)
	}
	return tx.Commit(ctx)
}

// RemoveBookmark deletes the bookmark and reports whether one existed. The
// counter is only decremented for an actual removal and never drops below zero.
func (s *PostgresStore) RemoveBookmark(ctx context.Context, userID, scholarshipID uuid.UUID) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		DELETE FROM bookmarks WHERE user_id = $1 AND scholarship_id = $2`, userID, scholarshipID)
	if err != nil {
		return false, fmt.Errorf("delete bookmark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := tx.Exec(ctx, `
		UPDATE scholarships SET bookmark_count = GREATEST(bookmark_count - 1, 0) WHERE id = $1`, scholarshipID); err != nil {
		return false, fmt.Errorf("decrement bookmark count: %w", err)
	}
	return true, tx.Commit(ctx)
}

func (s *PostgresStore) ListBookmarks(ctx context.Context, userID uuid.UUID) ([]*Scholarship, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+prefixed("s.", scholarshipColumns)+`
		FROM bookmarks b JOIN scholarships s ON s.id = b.scholarship_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScholarships(rows)
}

// RecordView upserts the view and trims the user's history to MaxViewHistory
// most recent entries.
func (s *PostgresStore) RecordView(ctx context.Context, userID, scholarshipID uuid.UUID, at time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO view_history (user_id, scholarship_id, viewed_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, scholarship_id) DO UPDATE SET viewed_at = EXCLUDED.viewed_at`,
		userID, scholarshipID, at); err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM view_history
		WHERE user_id = $1 AND scholarship_id NOT IN (
			SELECT scholarship_id FROM view_history
			WHERE user_id = $1
			ORDER BY viewed_at DESC
			LIMIT $2)`, userID, MaxViewHistory); err != nil {
		return fmt.Errorf("trim view history: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ListViewHistory(ctx context.Context, userID uuid.UUID) ([]*ViewHistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT v.scholarship_id, v.viewed_at, `+prefixed("s.", scholarshipColumns)+`
		FROM view_history v JOIN scholarships s ON s.id = v.scholarship_id
		WHERE v.user_id = $1
		ORDER BY v.viewed_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*ViewHistoryEntry{}
	for rows.Next() {
		e := &ViewHistoryEntry{}
		sc, err := scanScholarship(&prefixedRow{rows: rows, head: []interface{}{&e.ScholarshipID, &e.ViewedAt}})
		if err != nil {
			return nil, err
		}
		e.Scholarship = sc
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// prefixedRow scans leading columns into head before handing the rest to
// the wrapped scan destinations.
type prefixedRow struct {
	rows pgx.Rows
	head []interface{}
}

func (r *prefixedRow) Scan(dest ...interface{}) error {
	return r.rows.Scan(append(r.head, dest...)...)
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
