package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/synthera/backend/internal/logging"
	"github.com/synthera/backend/internal/models"
	"github.com/synthera/backend/internal/repositories"
)

// LibraryHandler implements the authenticated library endpoints:
// owned licenses, likes and collections.
type LibraryHandler struct {
	Purchases PurchaseStore
	Library   LibraryStore
	Users     UserStore
	Sessions  SessionManager
}

// ListPurchases handles GET /api/v1/library/purchases.
func (h LibraryHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
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

	purchases, err := h.Purchases.ListForUser(ctx, user.ID)
	if err != nil {
		logger.Error("list purchases failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load purchases")
		return
	}

	out := make([]map[string]any, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, map[string]any{
			"id":          p.Purchase.ID,
			"licenseType": p.Purchase.LicenseType,
			"amount":      p.Purchase.Amount,
			"purchasedAt": p.Purchase.CreatedAt,
			"video": map[string]any{
				"id":           p.Purchase.VideoID,
				"title":        p.VideoTitle,
				"thumbnailUrl": p.VideoThumbnail,
				"duration":     p.VideoDuration,
				"category":     p.VideoCategory,
				"style":        p.VideoStyle,
			},
			"creator": map[string]any{
				"username":    p.CreatorUsername,
				"displayName": p.CreatorDisplayName,
				"avatar":      p.CreatorAvatar,
				"isVerified":  p.CreatorVerified,
			},
		})
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"purchases": out})
}

// Likes dispatches /api/v1/library/likes: GET lists, POST toggles.
func (h LibraryHandler) Likes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listLikes(w, r)
	case http.MethodPost:
		h.toggleLike(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h LibraryHandler) listLikes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := authenticate(w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	likes, err := h.Library.ListLikes(ctx, user.ID)
	if err != nil {
		logger.Error("list likes failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load likes")
		return
	}

	out := make([]map[string]any, 0, len(likes))
	for _, l := range likes {
		out = append(out, map[string]any{
			"videoId":            l.VideoID,
			"title":              l.Title,
			"thumbnailUrl":       l.ThumbnailURL,
			"duration":           l.Duration,
			"category":           l.Category,
			"style":              l.Style,
			"creatorId":          l.CreatorID,
			"creatorName":        l.CreatorName,
			"likedAt":            l.LikedAt,
			"personalLicense":    l.PersonalPrice,
			"isAvailableForSale": l.AvailableForSale,
		})
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"likes": out})
}

func (h LibraryHandler) toggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := authenticate(w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	var req struct {
		VideoID string `json:"videoId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.VideoID) == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	liked, err := h.Library.ToggleLike(ctx, user.ID, req.VideoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("toggle like failed", "userId", user.ID, "videoId", req.VideoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update like")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"liked": liked})
}

// Collections dispatches /api/v1/library/collections: GET lists,
// POST creates.
func (h LibraryHandler) Collections(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listCollections(w, r)
	case http.MethodPost:
		h.createCollection(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h LibraryHandler) listCollections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := authenticate(w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	collections, err := h.Library.ListCollections(ctx, user.ID)
	if err != nil {
		logger.Error("list collections failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load collections")
		return
	}

	out := make([]map[string]any, 0, len(collections))
	for _, c := range collections {
		out = append(out, map[string]any{
			"id":          c.ID,
			"name":        c.Name,
			"description": c.Description,
			"isPublic":    c.IsPublic,
			"videoCount":  c.VideoCount,
			"createdAt":   c.CreatedAt,
		})
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"collections": out})
}

func (h LibraryHandler) createCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := authenticate(w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		IsPublic    bool   `json:"isPublic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	now := time.Now().UTC()
	collection := models.Collection{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		IsPublic:    req.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Library.CreateCollection(ctx, collection); err != nil {
		logger.Error("create collection failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to create collection")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"collection": map[string]any{
			"id":          collection.ID,
			"name":        collection.Name,
			"description": collection.Description,
			"isPublic":    collection.IsPublic,
			"videoCount":  0,
			"createdAt":   collection.CreatedAt,
		},
	})
}

// CollectionVideos handles POST /api/v1/library/collections/videos,
// adding a video to one of the caller's collections.
func (h LibraryHandler) CollectionVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := authenticate(w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	var req struct {
		CollectionID string `json:"collectionId"`
		VideoID      string `json:"videoId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CollectionID == "" || req.VideoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "collectionId and videoId are required")
		return
	}

	if err := h.Library.AddToCollection(ctx, user.ID, req.CollectionID, req.VideoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "collection or video not found")
			return
		}
		logger.Error("add to collection failed", "userId", user.ID, "collectionId", req.CollectionID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update collection")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "added"})
}
