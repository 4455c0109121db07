package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const applicationColumns = `id, user_id, scholarship_id, scholarship_title, organization,
	amount_min, amount_max, amount_display, application_url, deadline,
	status, applied_at, notes, is_active, created_at, updated_at`

// CreateApplication inserts the application, or reactivates a previously
// withdrawn one for the same (scholarship, user) pair with fresh snapshot
// fields. It returns ErrDuplicate when an active application already exists.
func (s *PostgresStore) CreateApplication(ctx context.Context, a *Application) error {
	if a.Status == "" {
		a.Status = ApplicationUnderReview
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO applications (user_id, scholarship_id, scholarship_title, organization,
			amount_min, amount_max, amount_display, application_url, deadline, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (scholarship_id, user_id) DO UPDATE SET
			scholarship_title = EXCLUDED.scholarship_title, organization = EXCLUDED.organization,
			amount_min = EXCLUDED.amount_min, amount_max = EXCLUDED.amount_max,
			amount_display = EXCLUDED.amount_display, application_url = EXCLUDED.application_url,
			deadline = EXCLUDED.deadline, status = EXCLUDED.status, notes = EXCLUDED.notes,
			applied_at = now(), is_active = true, updated_at = now()
		WHERE applications.is_active = false
		RETURNING id, applied_at, is_active, created_at, updated_at`,
		a.UserID, a.ScholarshipID, a.ScholarshipTitle, a.Organization,
		a.Amount.Min, a.Amount.Max, a.Amount.Display, a.ApplicationURL, a.Deadline, a.Status, a.Notes,
	).Scan(&a.ID, &a.AppliedAt, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	a.Derive(time.Now())
	return nil
}

func (s *PostgresStore) GetApplication(ctx context.Context, id uuid.UUID) (*Application, error) {
	a, err := scanApplication(s.pool.QueryRow(ctx, `
		SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (s *PostgresStore) UpdateApplication(ctx context.Context, a *Application) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE applications SET status = $2, notes = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.Status, a.Notes,
	).Scan(&a.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	return err
}

func (s *PostgresStore) DeactivateApplication(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE applications SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListApplications(ctx context.Context, userID string, status ApplicationStatus) ([]*Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE user_id = $1 AND is_active = true`
	args := []interface{}{userID}
	if status != "" {
		query += " AND status = $2"
		args = append(args, string(status))
	}
	query += " ORDER BY applied_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []*Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func (s *PostgresStore) FindActiveApplication(ctx context.Context, userID string, scholarshipID uuid.UUID) (*Application, error) {
	a, err := scanApplication(s.pool.QueryRow(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE user_id = $1 AND scholarship_id = $2 AND is_active = true`, userID, scholarshipID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (s *PostgresStore) GetApplicationStats(ctx context.Context, userID string) (*ApplicationStats, error) {
	stats := &ApplicationStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Under Review'),
			COUNT(*) FILTER (WHERE status = 'Approved'),
			COUNT(*) FILTER (WHERE status = 'Rejected')
		FROM applications WHERE user_id = $1 AND is_active = true`, userID,
	).Scan(&stats.Total, &stats.UnderReview, &stats.Approved, &stats.Rejected)
	if err != nil {
		return nil, fmt.Errorf("application stats: %w", err)
	}
	return stats, nil
}

func scanApplication(row pgx.Row) (*Application, error) {
	a := &Application{}
	if err := row.Scan(
		&a.ID, &a.UserID, &a.ScholarshipID, &a.ScholarshipTitle, &a.Organization,
		&a.Amount.Min, &a.Amount.Max, &a.Amount.Display, &a.ApplicationURL, &a.Deadline,
		&a.Status, &a.AppliedAt, &a.Notes, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Derive(time.Now())
	return a, nil
}
