package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/synthera/backend/internal/logging"
	"github.com/synthera/backend/internal/repositories"
)

// SearchHandler implements the marketplace search endpoints.
type SearchHandler struct {
	Videos   VideoCatalog
	Creators CreatorStore
}

// SearchVideos handles GET /api/v1/search/videos: full filtered search
// over the public catalog.
func (h SearchHandler) SearchVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	filter := filterFromQuery(r)
	videos, total, err := h.Videos.List(ctx, filter)
	if err != nil {
		logger.Error("search videos failed", "query", filter.Query, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to search videos")
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{
		Videos: videoPayloads(videos),
		Total:  total,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
}

// SearchCreators handles GET /api/v1/search/creators.
func (h SearchHandler) SearchCreators(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	profiles, total, err := h.Creators.Search(ctx, query, page, limit)
	if err != nil {
		logger.Error("search creators failed", "query", query, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to search creators")
		return
	}

	out := make([]map[string]any, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, map[string]any{
			"userId":      p.Creator.UserID,
			"username":    p.Username,
			"displayName": p.DisplayName,
			"avatar":      p.Avatar,
			"isVerified":  p.IsVerified,
			"specialties": p.Creator.Specialties,
			"totalVideos": p.Creator.TotalVideos,
			"followers":   p.Followers,
		})
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"creators": out,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// Suggestions handles GET /api/v1/search/suggestions: autocomplete over
// video titles and creator names.
func (h SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	prefix := strings.TrimSpace(r.URL.Query().Get("q"))
	if prefix == "" {
		respondJSON(ctx, w, http.StatusOK, map[string]any{"suggestions": []repositories.Suggestion{}})
		return
	}

	suggestions := make([]repositories.Suggestion, 0, 10)

	titles, err := h.Videos.SuggestTitles(ctx, prefix, 5)
	if err != nil {
		logger.Warn("title suggestions failed", "query", prefix, "error", err)
	}
	for _, title := range titles {
		suggestions = append(suggestions, repositories.Suggestion{Type: "video", Text: title})
	}

	creators, _, err := h.Creators.Search(ctx, prefix, 1, 5)
	if err != nil {
		logger.Warn("creator suggestions failed", "query", prefix, "error", err)
	}
	for _, p := range creators {
		suggestions = append(suggestions, repositories.Suggestion{Type: "creator", Text: p.Username})
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"suggestions": suggestions})
}
