package handlers

import (
	"net/http"
	"time"

	"github.com/synthera/backend/internal/logging"
	"github.com/synthera/backend/internal/repositories"
)

// trendingWindow is how far back the trending feed looks.
const trendingWindow = 7 * 24 * time.Hour

// TrendingHandler serves the public trending feed.
type TrendingHandler struct {
	Videos VideoCatalog
	Stats  StatsStore
}

// Handle processes GET /api/v1/trending.
func (h TrendingHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	now := time.Now().UTC()
	since := now.Add(-trendingWindow)

	videos, _, err := h.Videos.List(ctx, repositories.VideoFilter{
		CreatedAfter: since,
		Sort:         repositories.SortTrending,
		Limit:        20,
	})
	if err != nil {
		logger.Error("list trending videos failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load trending videos")
		return
	}

	featured, _, err := h.Videos.List(ctx, repositories.VideoFilter{
		FeaturedOnly: true,
		Sort:         repositories.SortPopular,
		Limit:        10,
	})
	if err != nil {
		logger.Error("list featured videos failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load featured videos")
		return
	}

	stats, err := h.Stats.Trending(ctx, now)
	if err != nil {
		logger.Warn("trending stats failed", "error", err)
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"trending": videoPayloads(videos),
		"featured": videoPayloads(featured),
		"stats": map[string]any{
			"hotVideos":     stats.HotVideos,
			"topCategory":   stats.TopCategory,
			"risingCreator": stats.RisingCreator,
			"weeklyUploads": stats.WeeklyUploads,
		},
	})
}
