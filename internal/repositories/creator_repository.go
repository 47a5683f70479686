package repositories

import (
	"context"

	"github.com/synthera/backend/internal/models"
)

// CreatorProfile pairs a creator row with the display fields of the
// owning user, as returned by listing and search queries.
type CreatorProfile struct {
	Creator     models.Creator
	Username    string
	DisplayName string
	Avatar      string
	IsVerified  bool
	Followers   int64
}

// CreatorRepository defines the data access contract for creator
// profiles and their denormalized earnings counters.
type CreatorRepository interface {
	// Upsert creates the creator row for a user if it does not exist yet.
	Upsert(ctx context.Context, creator models.Creator) error
	FindByUserID(ctx context.Context, userID string) (models.Creator, error)
	// IncrementVideos bumps the published-video counter for a creator,
	// creating the creator row on first use.
	IncrementVideos(ctx context.Context, userID string) error
	// AddEarnings credits net revenue to all earnings counters and, when
	// countPurchase is set, bumps the purchase counter as well.
	AddEarnings(ctx context.Context, userID string, net float64, countPurchase bool) error
	Search(ctx context.Context, query string, page, limit int) ([]CreatorProfile, int64, error)
}
