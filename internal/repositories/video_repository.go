package repositories

import (
	"context"
	"time"

	"github.com/synthera/backend/internal/models"
)

// VideoSort names the supported orderings for video listings.
type VideoSort string

const (
	SortNewest    VideoSort = "newest"
	SortPopular   VideoSort = "popular"
	SortTrending  VideoSort = "trending"
	SortPriceAsc  VideoSort = "price_asc"
	SortPriceDesc VideoSort = "price_desc"
)

// DurationBucket groups videos by runtime in seconds.
type DurationBucket string

const (
	DurationShort  DurationBucket = "short"  // under 30s
	DurationMedium DurationBucket = "medium" // 30 to 120s
	DurationLong   DurationBucket = "long"   // over 120s
)

// VideoFilter narrows and orders a video listing. Zero values are
// ignored. Only public videos are returned unless CreatorID is set
// together with IncludePrivate.
type VideoFilter struct {
	Query          string
	Category       string
	Style          string
	AIModel        string
	CreatorID      string
	IncludePrivate bool
	FeaturedOnly   bool
	Duration       DurationBucket
	CreatedAfter   time.Time
	MinPrice       float64
	MaxPrice       float64
	Sort           VideoSort
	Page           int
	Limit          int
}

// VideoRepository defines the data access contract for videos and their
// denormalized view/purchase counters.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	// SetThumbnail attaches the rendered thumbnail URL to an existing video.
	SetThumbnail(ctx context.Context, id, thumbnailURL string) error
	Delete(ctx context.Context, id string) error
	// List returns one page of videos matching the filter plus the total
	// match count for pagination.
	List(ctx context.Context, filter VideoFilter) ([]models.Video, int64, error)
	IncrementViews(ctx context.Context, id string) error
	// RecordPurchase bumps the purchase counter and credits gross revenue.
	RecordPurchase(ctx context.Context, id string, amount float64) error
	// SuggestTitles returns up to limit public video titles starting with
	// the given prefix, for search autocomplete.
	SuggestTitles(ctx context.Context, prefix string, limit int) ([]string, error)
}
