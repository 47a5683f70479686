package repositories

import (
	"context"
	"time"

	"github.com/synthera/backend/internal/models"
)

// LikedVideo is a like joined with the public fields of the liked video.
type LikedVideo struct {
	VideoID          string
	Title            string
	ThumbnailURL     string
	Duration         int
	Category         string
	Style            string
	CreatorID        string
	CreatorName      string
	LikedAt          time.Time
	PersonalPrice    float64
	AvailableForSale bool
}

// LibraryRepository defines the data access contract for the
// user-curated side of the marketplace: likes, collections and follows.
type LibraryRepository interface {
	// ToggleLike likes the video if no like exists and removes the like
	// otherwise. It reports whether the video is liked after the call.
	ToggleLike(ctx context.Context, userID, videoID string) (bool, error)
	ListLikes(ctx context.Context, userID string) ([]LikedVideo, error)
	CreateCollection(ctx context.Context, collection models.Collection) error
	ListCollections(ctx context.Context, userID string) ([]models.Collection, error)
	// AddToCollection places a video into a collection owned by the user.
	AddToCollection(ctx context.Context, userID, collectionID, videoID string) error
	// FollowerCount returns how many users follow the given user.
	FollowerCount(ctx context.Context, userID string) (int64, error)
}
