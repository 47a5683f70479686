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

const videoColumns = `
    id, creator_id, title, description, thumbnail_url, video_url,
    duration, file_size, resolution, aspect_ratio, fps, ai_model,
    prompts, tags, category, style,
    personal_license, commercial_license, extended_license, exclusive_rights,
    is_available_for_sale, is_public, is_featured,
    views, purchases, revenue, created_at, updated_at`

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (
            id, creator_id, title, description, thumbnail_url, video_url,
            duration, file_size, resolution, aspect_ratio, fps, ai_model,
            prompts, tags, category, style,
            personal_license, commercial_license, extended_license, exclusive_rights,
            is_available_for_sale, is_public, is_featured,
            views, purchases, revenue, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
                $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
    `, video.ID, video.CreatorID, video.Title, video.Description,
		video.ThumbnailURL, video.VideoURL, video.Duration, video.FileSize,
		video.Resolution, video.AspectRatio, video.FPS, video.AIModel,
		video.Prompts, video.Tags, video.Category, video.Style,
		video.PersonalLicense, video.CommercialLicense, video.ExtendedLicense,
		video.ExclusiveRights, video.IsAvailableForSale, video.IsPublic,
		video.IsFeatured, video.Views, video.Purchases, video.Revenue,
		video.CreatedAt, video.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a single video by id.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s
        FROM videos
        WHERE id = $1
    `, videoColumns), id)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// SetThumbnail attaches the rendered thumbnail URL to an existing video.
func (r *PostgresVideoRepository) SetThumbnail(ctx context.Context, id, thumbnailURL string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET thumbnail_url = $2, updated_at = now()
        WHERE id = $1
    `, id, thumbnailURL)
	if err != nil {
		return fmt.Errorf("update video thumbnail: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a video record.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM videos
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// List returns one page of videos matching the filter plus the total
// match count.
func (r *PostgresVideoRepository) List(ctx context.Context, filter VideoFilter) ([]models.Video, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	where, args := buildVideoFilter(filter)

	var total int64
	if err := conn.QueryRow(ctx, "SELECT count(*) FROM videos"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	query := fmt.Sprintf(`SELECT %s FROM videos%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		videoColumns, where, videoOrder(filter.Sort), len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, total, nil
}

// IncrementViews bumps the view counter for a video.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET views = views + 1
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("increment video views: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// RecordPurchase bumps the purchase counter and credits gross revenue.
func (r *PostgresVideoRepository) RecordPurchase(ctx context.Context, id string, amount float64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET purchases = purchases + 1,
            revenue = revenue + $2,
            updated_at = now()
        WHERE id = $1
    `, id, amount)
	if err != nil {
		return fmt.Errorf("record video purchase: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SuggestTitles returns public video titles starting with the prefix.
func (r *PostgresVideoRepository) SuggestTitles(ctx context.Context, prefix string, limit int) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if limit < 1 {
		limit = 5
	}

	rows, err := conn.Query(ctx, `
        SELECT title
        FROM videos
        WHERE is_public AND lower(title) LIKE $1
        ORDER BY views DESC
        LIMIT $2
    `, strings.ToLower(strings.TrimSpace(prefix))+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("query title suggestions: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan title suggestion: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate title suggestions: %w", err)
	}

	return titles, nil
}

// buildVideoFilter renders the WHERE clause and positional args for a
// listing filter.
func buildVideoFilter(filter VideoFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CreatorID != "" {
		clauses = append(clauses, "creator_id = "+arg(filter.CreatorID))
		if !filter.IncludePrivate {
			clauses = append(clauses, "is_public")
		}
	} else {
		clauses = append(clauses, "is_public")
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		p := arg("%" + strings.ToLower(q) + "%")
		clauses = append(clauses, fmt.Sprintf(
			"(lower(title) LIKE %s OR lower(description) LIKE %s OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE lower(t) LIKE %s))",
			p, p, p))
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = "+arg(filter.Category))
	}
	if filter.Style != "" {
		clauses = append(clauses, "style = "+arg(filter.Style))
	}
	if filter.AIModel != "" {
		clauses = append(clauses, "ai_model = "+arg(filter.AIModel))
	}
	if filter.FeaturedOnly {
		clauses = append(clauses, "is_featured")
	}
	switch filter.Duration {
	case DurationShort:
		clauses = append(clauses, "duration < 30")
	case DurationMedium:
		clauses = append(clauses, "duration BETWEEN 30 AND 120")
	case DurationLong:
		clauses = append(clauses, "duration > 120")
	}
	if !filter.CreatedAfter.IsZero() {
		clauses = append(clauses, "created_at >= "+arg(filter.CreatedAfter.UTC()))
	}
	if filter.MinPrice > 0 {
		clauses = append(clauses, "personal_license >= "+arg(filter.MinPrice))
	}
	if filter.MaxPrice > 0 {
		clauses = append(clauses, "personal_license <= "+arg(filter.MaxPrice))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func videoOrder(sort VideoSort) string {
	switch sort {
	case SortPopular:
		return "views DESC, created_at DESC"
	case SortTrending:
		return "purchases DESC, views DESC, created_at DESC"
	case SortPriceAsc:
		return "personal_license ASC, created_at DESC"
	case SortPriceDesc:
		return "personal_license DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (models.Video, error) {
	var video models.Video
	err := row.Scan(
		&video.ID, &video.CreatorID, &video.Title, &video.Description,
		&video.ThumbnailURL, &video.VideoURL, &video.Duration, &video.FileSize,
		&video.Resolution, &video.AspectRatio, &video.FPS, &video.AIModel,
		&video.Prompts, &video.Tags, &video.Category, &video.Style,
		&video.PersonalLicense, &video.CommercialLicense, &video.ExtendedLicense,
		&video.ExclusiveRights, &video.IsAvailableForSale, &video.IsPublic,
		&video.IsFeatured, &video.Views, &video.Purchases, &video.Revenue,
		&video.CreatedAt, &video.UpdatedAt,
	)
	return video, err
}
