package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/synthera/backend/internal/db"
)

// PostgresStatsRepository runs the cross-table aggregation queries for
// dashboards and trending feeds.
type PostgresStatsRepository struct {
	pool db.Pool
}

var _ StatsRepository = (*PostgresStatsRepository)(nil)

// NewPostgresStatsRepository constructs a stats repository backed by PostgreSQL.
func NewPostgresStatsRepository(pool db.Pool) *PostgresStatsRepository {
	return &PostgresStatsRepository{pool: pool}
}

// Dashboard aggregates sales figures for one creator. Lifetime totals
// come from the denormalized creator counters; the month-scoped values
// are computed from completed purchases against the creator's videos.
func (r *PostgresStatsRepository) Dashboard(ctx context.Context, creatorUserID string, monthStart, prevMonthStart time.Time) (DashboardStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var stats DashboardStats
	err = conn.QueryRow(ctx, `
        SELECT c.total_earnings, c.total_purchases, c.total_videos
        FROM creators c
        WHERE c.user_id = $1
    `, creatorUserID).Scan(&stats.TotalEarnings, &stats.TotalPurchases, &stats.TotalVideos)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DashboardStats{}, ErrNotFound
		}
		return DashboardStats{}, fmt.Errorf("select creator totals: %w", err)
	}

	err = conn.QueryRow(ctx, `
        SELECT
            coalesce(sum(p.amount) FILTER (WHERE p.created_at >= $2), 0),
            coalesce(sum(p.amount) FILTER (WHERE p.created_at >= $3 AND p.created_at < $2), 0),
            count(*) FILTER (WHERE p.created_at >= $2)
        FROM purchases p
        JOIN videos v ON v.id = p.video_id
        WHERE v.creator_id = $1 AND p.status = 'COMPLETED'
    `, creatorUserID, monthStart.UTC(), prevMonthStart.UTC()).
		Scan(&stats.MonthlyEarnings, &stats.PreviousEarnings, &stats.MonthlyPurchases)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("aggregate monthly sales: %w", err)
	}

	err = conn.QueryRow(ctx, `
        SELECT
            coalesce((SELECT sum(views) FROM videos WHERE creator_id = $1), 0),
            (SELECT count(*) FROM likes l JOIN videos v ON v.id = l.video_id WHERE v.creator_id = $1),
            (SELECT count(*) FROM follows WHERE following_id = $1)
    `, creatorUserID).Scan(&stats.TotalViews, &stats.TotalLikes, &stats.Followers)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("aggregate audience: %w", err)
	}

	return stats, nil
}

// hotViewThreshold is the view count a day-old public video needs to
// count as hot.
const hotViewThreshold = 100

// Trending summarizes recent marketplace activity. A video counts as
// hot when it was uploaded within the last day and already cleared the
// view threshold.
func (r *PostgresStatsRepository) Trending(ctx context.Context, now time.Time) (TrendingStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return TrendingStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	dayAgo := now.Add(-24 * time.Hour).UTC()
	weekAgo := now.Add(-7 * 24 * time.Hour).UTC()

	var stats TrendingStats
	err = conn.QueryRow(ctx, `
        SELECT
            (SELECT count(*) FROM videos
             WHERE is_public AND created_at >= $1 AND views >= $3),
            (SELECT count(*) FROM videos WHERE created_at >= $2)
    `, dayAgo, weekAgo, hotViewThreshold).Scan(&stats.HotVideos, &stats.WeeklyUploads)
	if err != nil {
		return TrendingStats{}, fmt.Errorf("aggregate trending counts: %w", err)
	}

	err = conn.QueryRow(ctx, `
        SELECT coalesce((
            SELECT category
            FROM videos
            WHERE is_public AND created_at >= $1
            GROUP BY category
            ORDER BY count(*) DESC
            LIMIT 1
        ), '')
    `, weekAgo).Scan(&stats.TopCategory)
	if err != nil {
		return TrendingStats{}, fmt.Errorf("select top category: %w", err)
	}

	err = conn.QueryRow(ctx, `
        SELECT coalesce((
            SELECT u.username
            FROM users u
            JOIN creators c ON c.user_id = u.id
            LEFT JOIN follows f ON f.following_id = u.id
            GROUP BY u.id, u.username
            ORDER BY count(f.id) DESC
            LIMIT 1
        ), '')
    `).Scan(&stats.RisingCreator)
	if err != nil {
		return TrendingStats{}, fmt.Errorf("select rising creator: %w", err)
	}

	return stats, nil
}
