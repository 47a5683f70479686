package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/synthera/backend/internal/logging"
	"github.com/synthera/backend/internal/models"
	"github.com/synthera/backend/internal/repositories"
)

// VideoHandler implements the public catalog endpoints.
type VideoHandler struct {
	Videos   VideoCatalog
	Users    UserStore
	Creators CreatorStore
	Library  LibraryStore
	Sessions SessionManager
}

// List handles GET /api/v1/videos with optional filter parameters.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	filter := filterFromQuery(r)
	videos, total, err := h.Videos.List(ctx, filter)
	if err != nil {
		logger.Error("list videos failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load videos")
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{
		Videos: videoPayloads(videos),
		Total:  total,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
}

// ByID dispatches GET and DELETE requests for /api/v1/videos/{id}.
func (h VideoHandler) ByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/videos/"), "/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("load video failed", "videoId", id, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load video")
		return
	}

	// Every detail view counts as a view. Losing the increment must not
	// fail the read.
	if err := h.Videos.IncrementViews(ctx, id); err != nil {
		logger.Warn("increment views failed", "videoId", id, "error", err)
	} else {
		video.Views++
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"video": videoPayloadFrom(video)})
}

func (h VideoHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := authenticate(w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	video, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("load video failed", "videoId", id, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load video")
		return
	}

	if video.CreatorID != user.ID {
		respondError(ctx, w, http.StatusForbidden, "you can only delete your own videos")
		return
	}

	if err := h.Videos.Delete(ctx, id); err != nil {
		logger.Error("delete video failed", "videoId", id, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to delete video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

// CreatorProfile handles GET /api/v1/creators/{username}: the public
// creator page with their published videos.
func (h VideoHandler) CreatorProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	username := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/creators/"), "/")
	if username == "" || strings.Contains(username, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	user, err := h.Users.FindByUsername(ctx, strings.ToLower(username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "creator not found")
			return
		}
		logger.Error("load creator user failed", "username", username, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load creator")
		return
	}

	creator, err := h.Creators.FindByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("load creator profile failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load creator")
		return
	}

	followers, err := h.Library.FollowerCount(ctx, user.ID)
	if err != nil {
		logger.Warn("count followers failed", "userId", user.ID, "error", err)
	}

	videos, _, err := h.Videos.List(ctx, repositories.VideoFilter{
		CreatorID: user.ID,
		Sort:      repositories.SortNewest,
		Limit:     50,
	})
	if err != nil {
		logger.Error("list creator videos failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load creator")
		return
	}

	profile := publicUser(user)
	profile.Email = ""
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"creator": map[string]any{
			"user":        profile,
			"specialties": creator.Specialties,
			"totalVideos": creator.TotalVideos,
			"followers":   followers,
		},
		"videos": videoPayloads(videos),
	})
}

func filterFromQuery(r *http.Request) repositories.VideoFilter {
	q := r.URL.Query()

	filter := repositories.VideoFilter{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: strings.ToUpper(strings.TrimSpace(q.Get("category"))),
		Style:    strings.ToUpper(strings.TrimSpace(q.Get("style"))),
		AIModel:  strings.TrimSpace(q.Get("aiModel")),
		Sort:     repositories.VideoSort(q.Get("sort")),
	}

	filter.Page, _ = strconv.Atoi(q.Get("page"))
	if filter.Page < 1 {
		filter.Page = 1
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	filter.MinPrice, _ = strconv.ParseFloat(q.Get("minPrice"), 64)
	filter.MaxPrice, _ = strconv.ParseFloat(q.Get("maxPrice"), 64)

	if q.Get("featured") == "true" {
		filter.FeaturedOnly = true
	}

	switch q.Get("duration") {
	case "short":
		filter.Duration = repositories.DurationShort
	case "medium":
		filter.Duration = repositories.DurationMedium
	case "long":
		filter.Duration = repositories.DurationLong
	}

	if start, ok := dateRangeStart(time.Now(), q.Get("dateRange")); ok {
		filter.CreatedAfter = start
	}

	return filter
}

// dateRangeStart resolves a dateRange query value to the inclusive lower
// bound on creation time. The second return is false for unknown values.
func dateRangeStart(now time.Time, dateRange string) (time.Time, bool) {
	switch dateRange {
	case "today":
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case "week":
		return now.Add(-7 * 24 * time.Hour), true
	case "month":
		y, m, _ := now.Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, now.Location()), true
	case "year":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}

type videoListResponse struct {
	Videos []videoPayload `json:"videos"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

type videoPayload struct {
	ID                 string    `json:"id"`
	CreatorID          string    `json:"creatorId"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	ThumbnailURL       string    `json:"thumbnailUrl"`
	VideoURL           string    `json:"videoUrl"`
	Duration           int       `json:"duration"`
	Resolution         string    `json:"resolution"`
	AspectRatio        string    `json:"aspectRatio"`
	FPS                int       `json:"fps"`
	AIModel            string    `json:"aiModel"`
	Prompts            []string  `json:"prompts,omitempty"`
	Tags               []string  `json:"tags,omitempty"`
	Category           string    `json:"category"`
	Style              string    `json:"style"`
	PersonalLicense    float64   `json:"personalLicense"`
	CommercialLicense  float64   `json:"commercialLicense"`
	ExtendedLicense    float64   `json:"extendedLicense"`
	ExclusiveRights    float64   `json:"exclusiveRights"`
	IsAvailableForSale bool      `json:"isAvailableForSale"`
	IsFeatured         bool      `json:"isFeatured"`
	Views              int64     `json:"views"`
	Purchases          int64     `json:"purchases"`
	CreatedAt          time.Time `json:"createdAt"`
}

func videoPayloadFrom(v models.Video) videoPayload {
	return videoPayload{
		ID:                 v.ID,
		CreatorID:          v.CreatorID,
		Title:              v.Title,
		Description:        v.Description,
		ThumbnailURL:       v.ThumbnailURL,
		VideoURL:           v.VideoURL,
		Duration:           v.Duration,
		Resolution:         v.Resolution,
		AspectRatio:        v.AspectRatio,
		FPS:                v.FPS,
		AIModel:            v.AIModel,
		Prompts:            v.Prompts,
		Tags:               v.Tags,
		Category:           v.Category,
		Style:              v.Style,
		PersonalLicense:    v.PersonalLicense,
		CommercialLicense:  v.CommercialLicense,
		ExtendedLicense:    v.ExtendedLicense,
		ExclusiveRights:    v.ExclusiveRights,
		IsAvailableForSale: v.IsAvailableForSale,
		IsFeatured:         v.IsFeatured,
		Views:              v.Views,
		Purchases:          v.Purchases,
		CreatedAt:          v.CreatedAt,
	}
}

func videoPayloads(videos []models.Video) []videoPayload {
	out := make([]videoPayload, 0, len(videos))
	for _, v := range videos {
		out = append(out, videoPayloadFrom(v))
	}
	return out
}
