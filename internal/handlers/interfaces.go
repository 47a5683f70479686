package handlers

import (
	"context"
	"time"

	"github.com/synthera/backend/internal/models"
	"github.com/synthera/backend/internal/payments"
	"github.com/synthera/backend/internal/repositories"
	"github.com/synthera/backend/internal/uploads"
)

// UserStore captures the persistence operations required by the auth
// and profile handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (models.User, error)
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
	SetSubscriptionTier(ctx context.Context, userID string, tier models.SubscriptionTier) error
}

// SessionManager issues, validates and refreshes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Validate(ctx context.Context, accessToken string) (string, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// VideoCatalog captures the read and maintenance operations the video
// handlers need.
type VideoCatalog interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
	List(ctx context.Context, filter repositories.VideoFilter) ([]models.Video, int64, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	RecordPurchase(ctx context.Context, id string, amount float64) error
	SuggestTitles(ctx context.Context, prefix string, limit int) ([]string, error)
}

// CreatorStore captures creator profile reads and counter updates.
type CreatorStore interface {
	FindByUserID(ctx context.Context, userID string) (models.Creator, error)
	AddEarnings(ctx context.Context, userID string, net float64, countPurchase bool) error
	Search(ctx context.Context, query string, page, limit int) ([]repositories.CreatorProfile, int64, error)
}

// PurchaseStore captures purchase persistence for the checkout and
// reconciliation handlers.
type PurchaseStore interface {
	Create(ctx context.Context, purchase models.Purchase) error
	CompleteByPaymentID(ctx context.Context, purchase models.Purchase) error
	FailByPaymentID(ctx context.Context, stripePaymentID string) error
	FindByPaymentID(ctx context.Context, stripePaymentID string) (models.Purchase, error)
	FindCompleted(ctx context.Context, userID, videoID string, license models.LicenseType) (models.Purchase, error)
	ListForUser(ctx context.Context, userID string) ([]repositories.LibraryPurchase, error)
}

// SubscriptionStore captures subscription persistence.
type SubscriptionStore interface {
	Create(ctx context.Context, subscription models.Subscription) error
	FindByProviderID(ctx context.Context, stripeSubscriptionID string) (models.Subscription, error)
	FindCurrentForUser(ctx context.Context, userID string) (models.Subscription, error)
	UpdateByProviderID(ctx context.Context, stripeSubscriptionID string, status models.SubscriptionStatus, periodStart, periodEnd time.Time) error
}

// LibraryStore captures likes, collections and follower counts.
type LibraryStore interface {
	ToggleLike(ctx context.Context, userID, videoID string) (bool, error)
	ListLikes(ctx context.Context, userID string) ([]repositories.LikedVideo, error)
	CreateCollection(ctx context.Context, collection models.Collection) error
	ListCollections(ctx context.Context, userID string) ([]models.Collection, error)
	AddToCollection(ctx context.Context, userID, collectionID, videoID string) error
	FollowerCount(ctx context.Context, userID string) (int64, error)
}

// StatsStore runs the cross-table aggregations behind dashboards and
// trending feeds.
type StatsStore interface {
	Dashboard(ctx context.Context, creatorUserID string, monthStart, prevMonthStart time.Time) (repositories.DashboardStats, error)
	Trending(ctx context.Context, now time.Time) (repositories.TrendingStats, error)
}

// PaymentGateway abstracts the payment provider for checkout handlers.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, email, name, userID string) (string, error)
	CreateLicenseIntent(ctx context.Context, p payments.LicenseIntentParams) (payments.Intent, error)
	CreateTipIntent(ctx context.Context, p payments.TipIntentParams) (payments.Intent, error)
	CreateSubscriptionCheckout(ctx context.Context, p payments.SubscriptionCheckoutParams) (payments.CheckoutSession, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	ConstructEvent(payload []byte, sigHeader string) (payments.Event, error)
}

// VideoUploader runs the synchronous upload pipeline.
type VideoUploader interface {
	Upload(ctx context.Context, req uploads.Request) (models.Video, error)
}
