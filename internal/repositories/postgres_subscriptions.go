package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/synthera/backend/internal/db"
	"github.com/synthera/backend/internal/models"
)

const subscriptionColumns = `
    id, user_id, tier, status, stripe_subscription_id,
    current_period_start, current_period_end, created_at, updated_at`

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence
// for billing subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Create persists a new subscription record.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, subscription models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (
            id, user_id, tier, status, stripe_subscription_id,
            current_period_start, current_period_end, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, subscription.ID, subscription.UserID, subscription.Tier,
		subscription.Status, subscription.StripeSubscriptionID,
		subscription.CurrentPeriodStart, subscription.CurrentPeriodEnd,
		subscription.CreatedAt, subscription.UpdatedAt)
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
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// FindByProviderID fetches a subscription by the provider's id.
func (r *PostgresSubscriptionRepository) FindByProviderID(ctx context.Context, stripeSubscriptionID string) (models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s
        FROM subscriptions
        WHERE stripe_subscription_id = $1
    `, subscriptionColumns), stripeSubscriptionID)

	return scanSubscription(row, "select subscription by provider id")
}

// FindCurrentForUser returns the user's most recent ACTIVE or PAST_DUE
// subscription.
func (r *PostgresSubscriptionRepository) FindCurrentForUser(ctx context.Context, userID string) (models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s
        FROM subscriptions
        WHERE user_id = $1 AND status IN ('ACTIVE', 'PAST_DUE')
        ORDER BY created_at DESC
        LIMIT 1
    `, subscriptionColumns), userID)

	return scanSubscription(row, "select current subscription")
}

// UpdateByProviderID sets the status and, when provided, the billing
// period window of the subscription with the given provider id.
func (r *PostgresSubscriptionRepository) UpdateByProviderID(ctx context.Context, stripeSubscriptionID string, status models.SubscriptionStatus, periodStart, periodEnd time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE subscriptions
        SET status = $2,
            current_period_start = CASE WHEN $3::timestamptz = 'epoch' THEN current_period_start ELSE $3 END,
            current_period_end = CASE WHEN $4::timestamptz = 'epoch' THEN current_period_end ELSE $4 END,
            updated_at = now()
        WHERE stripe_subscription_id = $1
    `, stripeSubscriptionID, status, zeroToEpoch(periodStart), zeroToEpoch(periodEnd))
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// zeroToEpoch maps the zero time onto the Unix epoch so the SQL side
// can recognize "not provided" without a nullable parameter.
func zeroToEpoch(t time.Time) time.Time {
	if t.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return t.UTC()
}

func scanSubscription(row rowScanner, op string) (models.Subscription, error) {
	var s models.Subscription
	if err := row.Scan(
		&s.ID, &s.UserID, &s.Tier, &s.Status, &s.StripeSubscriptionID,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Subscription{}, ErrNotFound
		}
		return models.Subscription{}, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}
