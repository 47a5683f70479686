package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/synthera/backend/internal/models"
	"github.com/synthera/backend/internal/repositories"
)

func TestSearchVideos(t *testing.T) {
	videos := newMemVideoCatalog(models.Video{ID: "vid-1", Title: "Neon City", IsPublic: true})
	handler := SearchHandler{Videos: videos, Creators: newStubCreatorStore()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/videos?q=neon", nil)
	rec := httptest.NewRecorder()

	handler.SearchVideos(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp videoListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Videos) != 1 || resp.Videos[0].ID != "vid-1" {
		t.Fatalf("videos = %+v, want vid-1", resp.Videos)
	}
	if resp.Total != 1 || resp.Page != 1 || resp.Limit != 20 {
		t.Fatalf("pagination = total %d page %d limit %d", resp.Total, resp.Page, resp.Limit)
	}
}

func TestSearchVideosRejectsNonGet(t *testing.T) {
	handler := SearchHandler{Videos: newMemVideoCatalog(), Creators: newStubCreatorStore()}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/videos", nil)
	rec := httptest.NewRecorder()

	handler.SearchVideos(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestSearchCreators(t *testing.T) {
	creators := newStubCreatorStore()
	creators.profiles = []repositories.CreatorProfile{{
		Creator:     models.Creator{UserID: "creator-1", TotalVideos: 3, Specialties: []string{"CINEMATIC"}},
		Username:    "ada_l",
		DisplayName: "Ada",
		IsVerified:  true,
		Followers:   12,
	}}
	handler := SearchHandler{Videos: newMemVideoCatalog(), Creators: creators}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/creators?q=ada", nil)
	rec := httptest.NewRecorder()

	handler.SearchCreators(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Creators []map[string]any `json:"creators"`
		Total    int64            `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Creators) != 1 {
		t.Fatalf("expected one creator, got %+v", resp)
	}
	if resp.Creators[0]["username"] != "ada_l" || resp.Creators[0]["followers"] != float64(12) {
		t.Fatalf("unexpected creator payload: %+v", resp.Creators[0])
	}
}

func TestFilterFromQueryDurationAndDateRange(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		wantDuration repositories.DurationBucket
		wantDated    bool
	}{
		{"no filters", "/api/v1/search/videos", "", false},
		{"short", "/api/v1/search/videos?duration=short", repositories.DurationShort, false},
		{"medium", "/api/v1/search/videos?duration=medium", repositories.DurationMedium, false},
		{"long", "/api/v1/search/videos?duration=long", repositories.DurationLong, false},
		{"unknown bucket", "/api/v1/search/videos?duration=epic", "", false},
		{"week range", "/api/v1/search/videos?dateRange=week", "", true},
		{"combined", "/api/v1/search/videos?duration=short&dateRange=year", repositories.DurationShort, true},
		{"unknown range", "/api/v1/search/videos?dateRange=decade", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			filter := filterFromQuery(req)
			if filter.Duration != tt.wantDuration {
				t.Errorf("duration = %q, want %q", filter.Duration, tt.wantDuration)
			}
			if dated := !filter.CreatedAfter.IsZero(); dated != tt.wantDated {
				t.Errorf("createdAfter set = %v, want %v", dated, tt.wantDated)
			}
		})
	}
}

func TestDateRangeStart(t *testing.T) {
	now := time.Date(2026, time.August, 28, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		dateRange string
		want      time.Time
		wantOK    bool
	}{
		{"today", "today", time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC), true},
		{"week", "week", now.Add(-7 * 24 * time.Hour), true},
		{"month", "month", time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), true},
		{"year", "year", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), true},
		{"all", "all", time.Time{}, false},
		{"empty", "", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := dateRangeStart(now, tt.dateRange)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Fatalf("start = %v, want %v", got, tt.want)
			}
		})
	}
}
