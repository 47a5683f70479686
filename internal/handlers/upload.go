package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/synthera/backend/internal/logging"
	"github.com/synthera/backend/internal/media"
	"github.com/synthera/backend/internal/uploads"
)

// uploadFormMemory bounds how much of the multipart form is held in
// memory; the video part itself is streamed to disk by the pipeline.
const uploadFormMemory = 10 << 20

// UploadHandler implements the synchronous video upload endpoint.
type UploadHandler struct {
	Uploader VideoUploader
	Users    UserStore
	Sessions SessionManager
	Limiter  RateLimiter
}

// Handle processes POST /api/v1/videos/upload multipart submissions.
func (h UploadHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "upload") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many uploads, try again later")
		return
	}

	user, ok := authenticate(w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(uploadFormMemory); err != nil {
		logger.Warn("invalid multipart form", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "video file is required")
		return
	}
	defer file.Close()

	req := uploads.Request{
		User:              user,
		Filename:          header.Filename,
		ContentType:       header.Header.Get("Content-Type"),
		Size:              header.Size,
		File:              file,
		Title:             strings.TrimSpace(r.FormValue("title")),
		Description:       strings.TrimSpace(r.FormValue("description")),
		AIModel:           strings.TrimSpace(r.FormValue("aiModel")),
		Prompts:           splitList(r.FormValue("prompts")),
		Tags:              splitList(r.FormValue("tags")),
		Category:          strings.ToUpper(strings.TrimSpace(r.FormValue("category"))),
		Style:             strings.ToUpper(strings.TrimSpace(r.FormValue("style"))),
		PersonalLicense:   parsePrice(r.FormValue("personalLicense")),
		CommercialLicense: parsePrice(r.FormValue("commercialLicense")),
		ExtendedLicense:   parsePrice(r.FormValue("extendedLicense")),
		ExclusiveRights:   parsePrice(r.FormValue("exclusiveRights")),
	}

	video, err := h.Uploader.Upload(ctx, req)
	if err != nil {
		var validationErr *media.ValidationError
		switch {
		case errors.Is(err, uploads.ErrNotCreator):
			respondError(ctx, w, http.StatusForbidden, "Only creators can upload videos")
		case errors.As(err, &validationErr):
			respondError(ctx, w, http.StatusBadRequest, validationErr.Reason)
		default:
			logger.Error("upload pipeline failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "Failed to process upload")
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"video": videoPayloadFrom(video)})
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parsePrice(raw string) float64 {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || price < 0 {
		return 0
	}
	return price
}
