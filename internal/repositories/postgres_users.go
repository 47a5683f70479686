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

const userColumns = `
    id, email, username, display_name, password_hash, avatar, bio,
    user_type, subscription_tier, is_verified, stripe_customer_id,
    created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

var _ UserRepository = (*PostgresUserRepository)(nil)

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (
            id, email, username, display_name, password_hash, avatar, bio,
            user_type, subscription_tier, is_verified, stripe_customer_id,
            created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, user.ID, user.Email, user.Username, user.DisplayName, user.Password,
		user.Avatar, user.Bio, user.Type, user.SubscriptionTier,
		user.IsVerified, user.StripeCustomerID, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by their id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findBy(ctx, "id", id)
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findBy(ctx, "email", email)
}

// FindByUsername fetches a user by their unique username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findBy(ctx, "username", username)
}

// FindByStripeCustomerID fetches the user owning a payment-provider
// customer id.
func (r *PostgresUserRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (models.User, error) {
	return r.findBy(ctx, "stripe_customer_id", customerID)
}

func (r *PostgresUserRepository) findBy(ctx context.Context, column, value string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s
        FROM users
        WHERE %s = $1
    `, userColumns, column), value)

	var user models.User
	if err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.DisplayName,
		&user.Password, &user.Avatar, &user.Bio, &user.Type,
		&user.SubscriptionTier, &user.IsVerified, &user.StripeCustomerID,
		&user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by %s: %w", column, err)
	}

	return user, nil
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, username = $3, display_name = $4, password_hash = $5,
            avatar = $6, bio = $7, user_type = $8, subscription_tier = $9,
            is_verified = $10, stripe_customer_id = $11, updated_at = $12
        WHERE id = $1
    `, user.ID, user.Email, user.Username, user.DisplayName, user.Password,
		user.Avatar, user.Bio, user.Type, user.SubscriptionTier,
		user.IsVerified, user.StripeCustomerID, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetStripeCustomerID records the payment-provider customer id for a user.
func (r *PostgresUserRepository) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	return r.setColumn(ctx, userID, "stripe_customer_id", customerID)
}

// SetSubscriptionTier moves a user onto a new billing tier.
func (r *PostgresUserRepository) SetSubscriptionTier(ctx context.Context, userID string, tier models.SubscriptionTier) error {
	return r.setColumn(ctx, userID, "subscription_tier", string(tier))
}

func (r *PostgresUserRepository) setColumn(ctx context.Context, userID, column, value string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, fmt.Sprintf(`
        UPDATE users
        SET %s = $2, updated_at = now()
        WHERE id = $1
    `, column), userID, value)
	if err != nil {
		return fmt.Errorf("update user %s: %w", column, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
