package repositories

import (
	"context"
	"time"
)

// DashboardStats aggregates a creator's sales figures for the earnings
// dashboard. Monthly values cover the current calendar month; growth is
// measured against the previous one.
type DashboardStats struct {
	TotalEarnings    float64
	MonthlyEarnings  float64
	PreviousEarnings float64
	TotalPurchases   int64
	MonthlyPurchases int64
	TotalVideos      int64
	TotalViews       int64
	TotalLikes       int64
	Followers        int64
}

// TrendingStats summarizes marketplace activity for the trending feed.
type TrendingStats struct {
	HotVideos     int64
	TopCategory   string
	RisingCreator string
	WeeklyUploads int64
}

// Suggestion is a single autocomplete entry.
type Suggestion struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// StatsRepository defines the read-side aggregation queries that span
// multiple tables.
type StatsRepository interface {
	Dashboard(ctx context.Context, creatorUserID string, monthStart, prevMonthStart time.Time) (DashboardStats, error)
	Trending(ctx context.Context, now time.Time) (TrendingStats, error)
}
