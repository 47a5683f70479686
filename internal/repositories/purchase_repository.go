package repositories

import (
	"context"

	"github.com/synthera/backend/internal/models"
)

// LibraryPurchase is a completed purchase joined with the video and
// creator fields the library view renders.
type LibraryPurchase struct {
	Purchase models.Purchase

	VideoTitle     string
	VideoThumbnail string
	VideoDuration  int
	VideoCategory  string
	VideoStyle     string

	CreatorUsername    string
	CreatorDisplayName string
	CreatorAvatar      string
	CreatorVerified    bool
}

// PurchaseRepository defines the data access contract for license
// purchases. The payment intent id is the reconciliation idempotency
// key: completing the same intent twice must not create a second row.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase models.Purchase) error
	// CompleteByPaymentID marks the purchase for a payment intent as
	// COMPLETED, inserting the row if the pending record was never
	// persisted. Replays of the same intent id are absorbed.
	CompleteByPaymentID(ctx context.Context, purchase models.Purchase) error
	// FailByPaymentID marks the purchase for a payment intent as FAILED.
	FailByPaymentID(ctx context.Context, stripePaymentID string) error
	FindByPaymentID(ctx context.Context, stripePaymentID string) (models.Purchase, error)
	// FindCompleted returns the completed purchase a user holds for a
	// video/license pair, or ErrNotFound.
	FindCompleted(ctx context.Context, userID, videoID string, license models.LicenseType) (models.Purchase, error)
	ListForUser(ctx context.Context, userID string) ([]LibraryPurchase, error)
}
