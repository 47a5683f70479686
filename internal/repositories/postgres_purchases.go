package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/synthera/backend/internal/db"
	"github.com/synthera/backend/internal/models"
)

const purchaseColumns = `
    id, user_id, video_id, license_type, amount, currency,
    stripe_payment_id, status, created_at, updated_at`

// PostgresPurchaseRepository provides PostgreSQL-backed persistence for
// license purchases.
type PostgresPurchaseRepository struct {
	pool db.Pool
}

var _ PurchaseRepository = (*PostgresPurchaseRepository)(nil)

// NewPostgresPurchaseRepository constructs a purchase repository backed by PostgreSQL.
func NewPostgresPurchaseRepository(pool db.Pool) *PostgresPurchaseRepository {
	return &PostgresPurchaseRepository{pool: pool}
}

// Create persists a new purchase record, typically in PENDING state.
func (r *PostgresPurchaseRepository) Create(ctx context.Context, purchase models.Purchase) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO purchases (
            id, user_id, video_id, license_type, amount, currency,
            stripe_payment_id, status, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, purchase.ID, purchase.UserID, purchase.VideoID, purchase.LicenseType,
		purchase.Amount, purchase.Currency, purchase.StripePaymentID,
		purchase.Status, purchase.CreatedAt, purchase.UpdatedAt)
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
		return fmt.Errorf("insert purchase: %w", err)
	}

	return nil
}

// CompleteByPaymentID marks the purchase for a payment intent as
// COMPLETED. The intent id is unique, so replaying the same event
// updates the existing row instead of inserting a duplicate.
func (r *PostgresPurchaseRepository) CompleteByPaymentID(ctx context.Context, purchase models.Purchase) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO purchases (
            id, user_id, video_id, license_type, amount, currency,
            stripe_payment_id, status, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, 'COMPLETED', $8, $9)
        ON CONFLICT (stripe_payment_id)
        DO UPDATE SET status = 'COMPLETED', updated_at = EXCLUDED.updated_at
    `, purchase.ID, purchase.UserID, purchase.VideoID, purchase.LicenseType,
		purchase.Amount, purchase.Currency, purchase.StripePaymentID,
		purchase.CreatedAt, purchase.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// A different payment already completed this license grant.
			return ErrConflict
		}
		return fmt.Errorf("complete purchase: %w", err)
	}

	return nil
}

// FailByPaymentID marks the purchase for a payment intent as FAILED.
func (r *PostgresPurchaseRepository) FailByPaymentID(ctx context.Context, stripePaymentID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE purchases
        SET status = 'FAILED', updated_at = now()
        WHERE stripe_payment_id = $1
    `, stripePaymentID)
	if err != nil {
		return fmt.Errorf("fail purchase: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// FindByPaymentID fetches the purchase tied to a payment intent.
func (r *PostgresPurchaseRepository) FindByPaymentID(ctx context.Context, stripePaymentID string) (models.Purchase, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Purchase{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s
        FROM purchases
        WHERE stripe_payment_id = $1
    `, purchaseColumns), stripePaymentID)

	return scanPurchase(row, "select purchase by payment id")
}

// FindCompleted returns the completed purchase a user holds for a
// video/license pair.
func (r *PostgresPurchaseRepository) FindCompleted(ctx context.Context, userID, videoID string, license models.LicenseType) (models.Purchase, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Purchase{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s
        FROM purchases
        WHERE user_id = $1 AND video_id = $2 AND license_type = $3 AND status = 'COMPLETED'
    `, purchaseColumns), userID, videoID, license)

	return scanPurchase(row, "select completed purchase")
}

// ListForUser returns the user's completed purchases joined with video
// and creator display fields, newest first.
func (r *PostgresPurchaseRepository) ListForUser(ctx context.Context, userID string) ([]LibraryPurchase, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT p.id, p.user_id, p.video_id, p.license_type, p.amount, p.currency,
               p.stripe_payment_id, p.status, p.created_at, p.updated_at,
               v.title, v.thumbnail_url, v.duration, v.category, v.style,
               u.username, u.display_name, u.avatar, u.is_verified
        FROM purchases p
        JOIN videos v ON v.id = p.video_id
        JOIN users u ON u.id = v.creator_id
        WHERE p.user_id = $1 AND p.status = 'COMPLETED'
        ORDER BY p.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query user purchases: %w", err)
	}
	defer rows.Close()

	var purchases []LibraryPurchase
	for rows.Next() {
		var lp LibraryPurchase
		if err := rows.Scan(
			&lp.Purchase.ID, &lp.Purchase.UserID, &lp.Purchase.VideoID,
			&lp.Purchase.LicenseType, &lp.Purchase.Amount, &lp.Purchase.Currency,
			&lp.Purchase.StripePaymentID, &lp.Purchase.Status,
			&lp.Purchase.CreatedAt, &lp.Purchase.UpdatedAt,
			&lp.VideoTitle, &lp.VideoThumbnail, &lp.VideoDuration,
			&lp.VideoCategory, &lp.VideoStyle,
			&lp.CreatorUsername, &lp.CreatorDisplayName, &lp.CreatorAvatar,
			&lp.CreatorVerified,
		); err != nil {
			return nil, fmt.Errorf("scan user purchase: %w", err)
		}
		purchases = append(purchases, lp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user purchases: %w", err)
	}

	return purchases, nil
}

func scanPurchase(row rowScanner, op string) (models.Purchase, error) {
	var p models.Purchase
	if err := row.Scan(
		&p.ID, &p.UserID, &p.VideoID, &p.LicenseType, &p.Amount, &p.Currency,
		&p.StripePaymentID, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Purchase{}, ErrNotFound
		}
		return models.Purchase{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}
