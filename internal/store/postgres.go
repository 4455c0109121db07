package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetCatalogStats(ctx context.Context, now time.Time) (*CatalogStats, error) {
	stats := &CatalogStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM scholarships WHERE is_active AND is_verified),
			(SELECT COUNT(*) FROM discounts WHERE status = 'Active' AND valid_from <= $1 AND valid_until >= $1),
			(SELECT COUNT(*) FROM users WHERE is_active),
			(SELECT COUNT(*) FROM applications WHERE is_active)`, now,
	).Scan(&stats.ActiveScholarships, &stats.ActiveDiscounts, &stats.Users, &stats.Applications)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}
	return stats, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
