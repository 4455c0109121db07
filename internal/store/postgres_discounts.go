package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const discountColumns = `id, title, description, company, category, discount_type, discount_value,
	original_price, discounted_price, website, promo_code, valid_from, valid_until,
	req_teacher_id, req_membership, req_minimum_spend, req_other,
	source, status, is_recurring, next_cycle_date, popularity, tags, image_url, featured,
	created_at, updated_at`

func (s *PostgresStore) CreateDiscount(ctx context.Context, d *Discount) error {
	d.ApplyDefaults()
	r := d.Requirements
	err := s.pool.QueryRow(ctx, `
		INSERT INTO discounts (title, description, company, category, discount_type, discount_value,
			original_price, discounted_price, website, promo_code, valid_from, valid_until,
			req_teacher_id, req_membership, req_minimum_spend, req_other,
			source, status, is_recurring, next_cycle_date, popularity, tags, image_url, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING id, created_at, updated_at`,
		d.Title, d.Description, d.Company, d.Category, d.DiscountType, d.DiscountValue,
		nullString(d.OriginalPrice), nullString(d.DiscountedPrice), d.Website, nullString(d.PromoCode),
		d.ValidFrom, d.ValidUntil,
		r.TeacherID, r.Membership, nullString(r.MinimumSpend), nullString(r.Other),
		d.Source, d.Status, d.IsRecurring, d.NextCycleDate, d.Popularity, emptyIfNil(d.Tags),
		nullString(d.ImageURL), d.Featured,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return err
	}
	d.Derive(time.Now())
	return nil
}

func (s *PostgresStore) GetDiscount(ctx context.Context, id uuid.UUID) (*Discount, error) {
	d, err := scanDiscount(s.pool.QueryRow(ctx, `
		SELECT `+discountColumns+` FROM discounts WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return d, err
}

// ReplaceDiscount overwrites every editable field of the discount.
func (s *PostgresStore) ReplaceDiscount(ctx context.Context, d *Discount) error {
	d.ApplyDefaults()
	r := d.Requirements
	err := s.pool.QueryRow(ctx, `
		UPDATE discounts SET
			title = $2, description = $3, company = $4, category = $5, discount_type = $6,
			discount_value = $7, original_price = $8, discounted_price = $9, website = $10,
			promo_code = $11, valid_from = $12, valid_until = $13,
			req_teacher_id = $14, req_membership = $15, req_minimum_spend = $16, req_other = $17,
			source = $18, status = $19, is_recurring = $20, next_cycle_date = $21,
			popularity = $22, tags = $23, image_url = $24, featured = $25,
			updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		d.ID, d.Title, d.Description, d.Company, d.Category, d.DiscountType,
		d.DiscountValue, nullString(d.OriginalPrice), nullString(d.DiscountedPrice), d.Website,
		nullString(d.PromoCode), d.ValidFrom, d.ValidUntil,
		r.TeacherID, r.Membership, nullString(r.MinimumSpend), nullString(r.Other),
		d.Source, d.Status, d.IsRecurring, d.NextCycleDate,
		d.Popularity, emptyIfNil(d.Tags), nullString(d.ImageURL), d.Featured,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	d.Derive(time.Now())
	return nil
}

func (s *PostgresStore) DeleteDiscount(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM discounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListDiscounts(ctx context.Context, filter DiscountFilter) ([]*Discount, int, error) {
	if filter.Now.IsZero() {
		filter.Now = time.Now()
	}
	where, args := discountWhere(filter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM discounts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count discounts: %w", err)
	}

	page, pageArgs := limitOffset(filter.Limit, filter.Offset, len(args))
	query := `SELECT ` + discountColumns + ` FROM discounts` + where +
		discountOrder(filter.SortBy, filter.Descending) + page

	rows, err := s.pool.Query(ctx, query, append(args, pageArgs...)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	discounts, err := scanDiscounts(rows, filter.Now)
	return discounts, total, err
}

func (s *PostgresStore) FeaturedDiscounts(ctx context.Context, now time.Time, limit int) ([]*Discount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+discountColumns+` FROM discounts
		WHERE featured = true AND status = 'Active' AND valid_from <= $1 AND valid_until >= $1
		ORDER BY popularity DESC, created_at DESC
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDiscounts(rows, now)
}

func (s *PostgresStore) DistinctDiscountValues(ctx context.Context, field DiscountField) ([]string, error) {
	switch field {
	case DiscountFieldCategory, DiscountFieldCompany, DiscountFieldSource:
	default:
		return nil, fmt.Errorf("unsupported discount field %q", field)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT DISTINCT %[1]s FROM discounts ORDER BY %[1]s ASC`, field))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (s *PostgresStore) GetDiscountOverview(ctx context.Context, now time.Time) (*DiscountOverview, error) {
	o := &DiscountOverview{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Active' AND valid_from <= $1 AND valid_until >= $1),
			COUNT(*) FILTER (WHERE status = 'Expired'),
			COUNT(*) FILTER (WHERE featured)
		FROM discounts`, now,
	).Scan(&o.Total, &o.Active, &o.Expired, &o.Featured)
	if err != nil {
		return nil, fmt.Errorf("discount totals: %w", err)
	}

	if o.Categories, err = s.groupCounts(ctx, DiscountFieldCategory); err != nil {
		return nil, err
	}
	if o.Sources, err = s.groupCounts(ctx, DiscountFieldSource); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PostgresStore) groupCounts(ctx context.Context, field DiscountField) ([]GroupCount, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT %[1]s, COUNT(*) AS n FROM discounts GROUP BY %[1]s ORDER BY n DESC, %[1]s ASC`, field))
	if err != nil {
		return nil, fmt.Errorf("group discounts by %s: %w", field, err)
	}
	defer rows.Close()

	counts := []GroupCount{}
	for rows.Next() {
		var g GroupCount
		if err := rows.Scan(&g.Name, &g.Count); err != nil {
			return nil, err
		}
		counts = append(counts, g)
	}
	return counts, rows.Err()
}

// ExpireDiscounts marks non-expired discounts whose window closed before now.
func (s *PostgresStore) ExpireDiscounts(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE discounts SET status = 'Expired', updated_at = now()
		WHERE status <> 'Expired' AND valid_until < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ActivateUpcomingDiscounts activates Coming Soon discounts whose window is open.
func (s *PostgresStore) ActivateUpcomingDiscounts(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE discounts SET status = 'Active', updated_at = now()
		WHERE status = 'Coming Soon' AND valid_from <= $1 AND valid_until >= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) DeleteAllDiscounts(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM discounts`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) DiscountExists(ctx context.Context, title, company string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM discounts WHERE lower(title) = lower($1) AND lower(company) = lower($2)
		)`, title, company).Scan(&exists)
	return exists, err
}

func scanDiscount(row pgx.Row) (*Discount, error) {
	d := &Discount{}
	var originalPrice, discountedPrice, promoCode, minimumSpend, other, imageURL sql.NullString
	if err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.Company, &d.Category, &d.DiscountType, &d.DiscountValue,
		&originalPrice, &discountedPrice, &d.Website, &promoCode, &d.ValidFrom, &d.ValidUntil,
		&d.Requirements.TeacherID, &d.Requirements.Membership, &minimumSpend, &other,
		&d.Source, &d.Status, &d.IsRecurring, &d.NextCycleDate, &d.Popularity, &d.Tags, &imageURL, &d.Featured,
		&d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.OriginalPrice = originalPrice.String
	d.DiscountedPrice = discountedPrice.String
	d.PromoCode = promoCode.String
	d.Requirements.MinimumSpend = minimumSpend.String
	d.Requirements.Other = other.String
	d.ImageURL = imageURL.String
	d.Derive(time.Now())
	return d, nil
}

func scanDiscounts(rows pgx.Rows, now time.Time) ([]*Discount, error) {
	discounts := []*Discount{}
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		d.Derive(now)
		discounts = append(discounts, d)
	}
	return discounts, rows.Err()
}
