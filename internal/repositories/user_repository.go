package repositories

import (
	"context"

	"github.com/synthera/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (models.User, error)
	Update(ctx context.Context, user models.User) error
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
	SetSubscriptionTier(ctx context.Context, userID string, tier models.SubscriptionTier) error
}
