package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/synthera/backend/internal/db"
	"github.com/synthera/backend/internal/models"
)

// PostgresCreatorRepository provides PostgreSQL-backed persistence for
// creator profiles.
type PostgresCreatorRepository struct {
	pool db.Pool
}

var _ CreatorRepository = (*PostgresCreatorRepository)(nil)

// NewPostgresCreatorRepository constructs a creator repository backed by PostgreSQL.
func NewPostgresCreatorRepository(pool db.Pool) *PostgresCreatorRepository {
	return &PostgresCreatorRepository{pool: pool}
}

// Upsert creates the creator row for a user if none exists. Counters of
// an existing row are left untouched.
func (r *PostgresCreatorRepository) Upsert(ctx context.Context, creator models.Creator) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO creators (
            id, user_id, specialties, total_earnings, monthly_earnings,
            lifetime_revenue, total_purchases, total_videos, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (user_id) DO NOTHING
    `, creator.ID, creator.UserID, creator.Specialties, creator.TotalEarnings,
		creator.MonthlyEarnings, creator.LifetimeRevenue, creator.TotalPurchases,
		creator.TotalVideos, creator.CreatedAt, creator.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("upsert creator: %w", err)
	}

	return nil
}

// FindByUserID fetches the creator profile belonging to a user.
func (r *PostgresCreatorRepository) FindByUserID(ctx context.Context, userID string) (models.Creator, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Creator{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, user_id, specialties, total_earnings, monthly_earnings,
               lifetime_revenue, total_purchases, total_videos, created_at, updated_at
        FROM creators
        WHERE user_id = $1
    `, userID)

	var creator models.Creator
	if err := row.Scan(
		&creator.ID, &creator.UserID, &creator.Specialties,
		&creator.TotalEarnings, &creator.MonthlyEarnings, &creator.LifetimeRevenue,
		&creator.TotalPurchases, &creator.TotalVideos,
		&creator.CreatedAt, &creator.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Creator{}, ErrNotFound
		}
		return models.Creator{}, fmt.Errorf("select creator: %w", err)
	}

	return creator, nil
}

// IncrementVideos bumps the published-video counter, creating the
// creator row on first upload.
func (r *PostgresCreatorRepository) IncrementVideos(ctx context.Context, userID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO creators (id, user_id, total_videos, created_at, updated_at)
        VALUES (gen_random_uuid()::text, $1, 1, now(), now())
        ON CONFLICT (user_id)
        DO UPDATE SET total_videos = creators.total_videos + 1, updated_at = now()
    `, userID)
	if err != nil {
		return fmt.Errorf("increment creator videos: %w", err)
	}

	return nil
}

// AddEarnings credits net revenue to the running earnings counters. The
// monthly counter is reset out of band; here it only accumulates.
func (r *PostgresCreatorRepository) AddEarnings(ctx context.Context, userID string, net float64, countPurchase bool) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	purchaseDelta := 0
	if countPurchase {
		purchaseDelta = 1
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO creators (
            id, user_id, total_earnings, monthly_earnings, lifetime_revenue,
            total_purchases, created_at, updated_at
        )
        VALUES (gen_random_uuid()::text, $1, $2, $2, $2, $3, now(), now())
        ON CONFLICT (user_id)
        DO UPDATE SET
            total_earnings = creators.total_earnings + EXCLUDED.total_earnings,
            monthly_earnings = creators.monthly_earnings + EXCLUDED.monthly_earnings,
            lifetime_revenue = creators.lifetime_revenue + EXCLUDED.lifetime_revenue,
            total_purchases = creators.total_purchases + EXCLUDED.total_purchases,
            updated_at = now()
    `, userID, net, purchaseDelta)
	if err != nil {
		return fmt.Errorf("add creator earnings: %w", err)
	}

	return nil
}

// Search returns one page of creators whose username or display name
// matches the query, ordered by lifetime revenue.
func (r *PostgresCreatorRepository) Search(ctx context.Context, query string, page, limit int) ([]CreatorProfile, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	var total int64
	if err := conn.QueryRow(ctx, `
        SELECT count(*)
        FROM creators c
        JOIN users u ON u.id = c.user_id
        WHERE lower(u.username) LIKE $1 OR lower(u.display_name) LIKE $1
    `, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count creators: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.user_id, c.specialties, c.total_earnings, c.monthly_earnings,
               c.lifetime_revenue, c.total_purchases, c.total_videos,
               c.created_at, c.updated_at,
               u.username, u.display_name, u.avatar, u.is_verified,
               (SELECT count(*) FROM follows f WHERE f.following_id = u.id) AS followers
        FROM creators c
        JOIN users u ON u.id = c.user_id
        WHERE lower(u.username) LIKE $1 OR lower(u.display_name) LIKE $1
        ORDER BY c.lifetime_revenue DESC, u.username ASC
        LIMIT $2 OFFSET $3
    `, pattern, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("select creators: %w", err)
	}
	defer rows.Close()

	var profiles []CreatorProfile
	for rows.Next() {
		var p CreatorProfile
		if err := rows.Scan(
			&p.Creator.ID, &p.Creator.UserID, &p.Creator.Specialties,
			&p.Creator.TotalEarnings, &p.Creator.MonthlyEarnings,
			&p.Creator.LifetimeRevenue, &p.Creator.TotalPurchases,
			&p.Creator.TotalVideos, &p.Creator.CreatedAt, &p.Creator.UpdatedAt,
			&p.Username, &p.DisplayName, &p.Avatar, &p.IsVerified, &p.Followers,
		); err != nil {
			return nil, 0, fmt.Errorf("scan creator: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate creators: %w", err)
	}

	return profiles, total, nil
}
