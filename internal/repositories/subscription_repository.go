package repositories

import (
	"context"
	"time"

	"github.com/synthera/backend/internal/models"
)

// SubscriptionRepository defines the data access contract for billing
// subscriptions, keyed externally by the provider's subscription id.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription models.Subscription) error
	FindByProviderID(ctx context.Context, stripeSubscriptionID string) (models.Subscription, error)
	// FindCurrentForUser returns the user's most recent ACTIVE or
	// PAST_DUE subscription, or ErrNotFound.
	FindCurrentForUser(ctx context.Context, userID string) (models.Subscription, error)
	// UpdateByProviderID sets the status and, when non-zero, the billing
	// period window of the subscription with the given provider id.
	UpdateByProviderID(ctx context.Context, stripeSubscriptionID string, status models.SubscriptionStatus, periodStart, periodEnd time.Time) error
}
