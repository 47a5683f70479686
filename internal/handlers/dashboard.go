package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/synthera/backend/internal/logging"
	"github.com/synthera/backend/internal/models"
	"github.com/synthera/backend/internal/repositories"
)

// DashboardHandler serves the creator earnings dashboard.
type DashboardHandler struct {
	Stats    StatsStore
	Users    UserStore
	Sessions SessionManager
	NowFunc  func() time.Time
}

// Handle processes GET /api/v1/dashboard.
func (h DashboardHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := authenticate(w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	if user.Type != models.UserTypeCreator {
		respondError(ctx, w, http.StatusForbidden, "dashboard is only available to creators")
		return
	}

	now := h.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	stats, err := h.Stats.Dashboard(ctx, user.ID, monthStart, prevMonthStart)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// No sales yet; an empty dashboard is still a dashboard.
			stats = repositories.DashboardStats{}
		} else {
			logger.Error("load dashboard failed", "userId", user.ID, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "unable to load dashboard")
			return
		}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"stats": map[string]any{
			"totalEarnings":    stats.TotalEarnings,
			"monthlyEarnings":  stats.MonthlyEarnings,
			"monthlyGrowth":    monthlyGrowth(stats.MonthlyEarnings, stats.PreviousEarnings),
			"totalPurchases":   stats.TotalPurchases,
			"monthlyPurchases": stats.MonthlyPurchases,
			"totalVideos":      stats.TotalVideos,
			"totalViews":       stats.TotalViews,
			"totalLikes":       stats.TotalLikes,
			"followers":        stats.Followers,
		},
	})
}

// monthlyGrowth is the percentage change against the previous month. A
// month with no prior sales reports 100% growth when anything sold.
func monthlyGrowth(current, previous float64) float64 {
	if previous <= 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

func (h DashboardHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
