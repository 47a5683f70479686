package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/synthera/backend/internal/db"
	"github.com/synthera/backend/internal/models"
)

// PostgresLibraryRepository provides PostgreSQL-backed persistence for
// likes, collections and follows.
type PostgresLibraryRepository struct {
	pool db.Pool
}

var _ LibraryRepository = (*PostgresLibraryRepository)(nil)

// NewPostgresLibraryRepository constructs a library repository backed by PostgreSQL.
func NewPostgresLibraryRepository(pool db.Pool) *PostgresLibraryRepository {
	return &PostgresLibraryRepository{pool: pool}
}

// ToggleLike likes the video if no like exists and removes the like
// otherwise. It reports whether the video is liked after the call.
func (r *PostgresLibraryRepository) ToggleLike(ctx context.Context, userID, videoID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM likes
        WHERE user_id = $1 AND video_id = $2
    `, userID, videoID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, user_id, video_id, created_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (user_id, video_id) DO NOTHING
    `, uuid.NewString(), userID, videoID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("insert like: %w", err)
	}

	return true, nil
}

// ListLikes returns the videos a user has liked, newest like first.
func (r *PostgresLibraryRepository) ListLikes(ctx context.Context, userID string) ([]LikedVideo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.title, v.thumbnail_url, v.duration, v.category, v.style,
               v.creator_id, u.display_name, l.created_at,
               v.personal_license, v.is_available_for_sale
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        JOIN users u ON u.id = v.creator_id
        WHERE l.user_id = $1
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	var likes []LikedVideo
	for rows.Next() {
		var lv LikedVideo
		if err := rows.Scan(
			&lv.VideoID, &lv.Title, &lv.ThumbnailURL, &lv.Duration,
			&lv.Category, &lv.Style, &lv.CreatorID, &lv.CreatorName,
			&lv.LikedAt, &lv.PersonalPrice, &lv.AvailableForSale,
		); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		likes = append(likes, lv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}

	return likes, nil
}

// CreateCollection persists a new, empty collection.
func (r *PostgresLibraryRepository) CreateCollection(ctx context.Context, collection models.Collection) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO collections (id, user_id, name, description, is_public, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, collection.ID, collection.UserID, collection.Name,
		collection.Description, collection.IsPublic,
		collection.CreatedAt, collection.UpdatedAt)
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
		return fmt.Errorf("insert collection: %w", err)
	}

	return nil
}

// ListCollections returns the user's collections with video counts,
// newest first.
func (r *PostgresLibraryRepository) ListCollections(ctx context.Context, userID string) ([]models.Collection, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.user_id, c.name, c.description, c.is_public,
               (SELECT count(*) FROM collection_videos cv WHERE cv.collection_id = c.id),
               c.created_at, c.updated_at
        FROM collections c
        WHERE c.user_id = $1
        ORDER BY c.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	var collections []models.Collection
	for rows.Next() {
		var c models.Collection
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Name, &c.Description, &c.IsPublic,
			&c.VideoCount, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}

	return collections, nil
}

// AddToCollection places a video into a collection owned by the user.
// Adding the same video twice is a no-op.
func (r *PostgresLibraryRepository) AddToCollection(ctx context.Context, userID, collectionID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO collection_videos (collection_id, video_id, added_at)
        SELECT c.id, $3, now()
        FROM collections c
        WHERE c.id = $2 AND c.user_id = $1
        ON CONFLICT (collection_id, video_id) DO NOTHING
    `, userID, collectionID, videoID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("insert collection video: %w", err)
	}

	// Zero rows means either the collection does not belong to the user
	// or the video was already present; distinguish by probing ownership.
	if tag.RowsAffected() == 0 {
		var owned bool
		if err := conn.QueryRow(ctx, `
            SELECT EXISTS (SELECT 1 FROM collections WHERE id = $2 AND user_id = $1)
        `, userID, collectionID).Scan(&owned); err != nil {
			return fmt.Errorf("check collection ownership: %w", err)
		}
		if !owned {
			return ErrNotFound
		}
	}

	return nil
}

// FollowerCount returns how many users follow the given user.
func (r *PostgresLibraryRepository) FollowerCount(ctx context.Context, userID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `
        SELECT count(*)
        FROM follows
        WHERE following_id = $1
    `, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count followers: %w", err)
	}

	return count, nil
}
