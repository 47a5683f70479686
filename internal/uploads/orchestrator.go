package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/synthera/backend/internal/logging"
	"github.com/synthera/backend/internal/media"
	"github.com/synthera/backend/internal/models"
)

// ErrNotCreator indicates the account type is not allowed to upload.
var ErrNotCreator = errors.New("only creators can upload videos")

// VideoStore is the subset of video persistence the pipeline needs.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	SetThumbnail(ctx context.Context, id, thumbnailURL string) error
	Delete(ctx context.Context, id string) error
}

// CreatorCounter bumps the owning creator's published-video counter.
type CreatorCounter interface {
	IncrementVideos(ctx context.Context, userID string) error
}

// AssetStorage stores uploaded objects and returns their public URL.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
}

// Request carries one upload submission through the pipeline.
type Request struct {
	User models.User

	Filename    string
	ContentType string
	Size        int64
	File        io.Reader

	Title       string
	Description string
	AIModel     string
	Prompts     []string
	Tags        []string
	Category    string
	Style       string

	PersonalLicense   float64
	CommercialLicense float64
	ExtendedLicense   float64
	ExclusiveRights   float64
}

// Orchestrator runs the synchronous upload pipeline: validate, probe,
// store the asset, persist the record, then render a thumbnail. A
// thumbnail failure rolls the whole upload back so no video is ever
// published without one.
type Orchestrator struct {
	store      VideoStore
	creators   CreatorCounter
	assets     AssetStorage
	prober     media.Prober
	thumbnails media.Thumbnailer
	tempDir    string
	validation media.ValidationOptions
}

// NewOrchestrator wires an upload pipeline from its collaborators.
func NewOrchestrator(
	store VideoStore,
	creators CreatorCounter,
	assets AssetStorage,
	prober media.Prober,
	thumbnails media.Thumbnailer,
	tempDir string,
	validation media.ValidationOptions,
) *Orchestrator {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Orchestrator{
		store:      store,
		creators:   creators,
		assets:     assets,
		prober:     prober,
		thumbnails: thumbnails,
		tempDir:    tempDir,
		validation: validation,
	}
}

// Upload runs the full pipeline and returns the published video.
func (o *Orchestrator) Upload(ctx context.Context, req Request) (models.Video, error) {
	logger := logging.FromContext(ctx)

	if req.User.Type == models.UserTypeBrowser {
		return models.Video{}, ErrNotCreator
	}

	if err := validateSubmission(req); err != nil {
		return models.Video{}, err
	}

	if err := media.ValidateFile(req.Filename, req.ContentType, req.Size, o.validation); err != nil {
		return models.Video{}, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(req.Filename), "."))

	tempPath, err := o.spool(ctx, req.File, ext)
	if err != nil {
		return models.Video{}, err
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil {
			logger.Warn("remove temp upload", slog.String("path", tempPath), slog.String("error", err.Error()))
		}
	}()

	meta, err := o.probe(ctx, tempPath)
	if err != nil {
		return models.Video{}, err
	}

	videoKey := fmt.Sprintf("videos/%s/%d.%s", req.User.ID, time.Now().UnixNano(), ext)
	videoURL, err := o.storeAsset(ctx, "store video", tempPath, videoKey, req.ContentType)
	if err != nil {
		return models.Video{}, fmt.Errorf("store video asset: %w", err)
	}

	now := time.Now().UTC()
	video := models.Video{
		ID:                 uuid.NewString(),
		CreatorID:          req.User.ID,
		Title:              req.Title,
		Description:        req.Description,
		VideoURL:           videoURL,
		Duration:           int(math.Round(meta.Duration)),
		FileSize:           req.Size,
		Resolution:         meta.Resolution(),
		AspectRatio:        meta.AspectRatio(),
		FPS:                int(math.Round(meta.FPS)),
		AIModel:            req.AIModel,
		Prompts:            req.Prompts,
		Tags:               req.Tags,
		Category:           req.Category,
		Style:              req.Style,
		PersonalLicense:    req.PersonalLicense,
		CommercialLicense:  req.CommercialLicense,
		ExtendedLicense:    req.ExtendedLicense,
		ExclusiveRights:    req.ExclusiveRights,
		IsAvailableForSale: req.PersonalLicense > 0 || req.CommercialLicense > 0 || req.ExtendedLicense > 0 || req.ExclusiveRights > 0,
		IsPublic:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := o.store.Create(ctx, video); err != nil {
		return models.Video{}, fmt.Errorf("persist video: %w", err)
	}

	thumbnailURL, err := o.renderThumbnail(ctx, tempPath, req.User.ID, video.ID)
	if err == nil {
		err = o.store.SetThumbnail(ctx, video.ID, thumbnailURL)
	}
	if err != nil {
		// Roll the upload back so the catalog never lists a video
		// without a thumbnail.
		o.rollback(ctx, video.ID, videoKey)
		return models.Video{}, fmt.Errorf("render thumbnail: %w", err)
	}
	video.ThumbnailURL = thumbnailURL

	if err := o.creators.IncrementVideos(ctx, req.User.ID); err != nil {
		logger.Warn("increment creator video count",
			slog.String("user_id", req.User.ID),
			slog.String("error", err.Error()))
	}

	logger.Info("video published",
		slog.String("video_id", video.ID),
		slog.String("creator_id", req.User.ID),
		slog.Int("duration_seconds", video.Duration))

	return video, nil
}

func validateSubmission(req Request) error {
	if strings.TrimSpace(req.Title) == "" ||
		strings.TrimSpace(req.Category) == "" ||
		strings.TrimSpace(req.Style) == "" ||
		strings.TrimSpace(req.AIModel) == "" {
		return &media.ValidationError{Reason: "Missing required fields: title, category, style and aiModel are required"}
	}

	if !contains(models.ValidCategories, req.Category) {
		return &media.ValidationError{Reason: fmt.Sprintf("Unknown category %q", req.Category)}
	}
	if !contains(models.ValidStyles, req.Style) {
		return &media.ValidationError{Reason: fmt.Sprintf("Unknown style %q", req.Style)}
	}

	return nil
}

// spool copies the upload to a local temp file so ffprobe and ffmpeg
// can seek within it.
func (o *Orchestrator) spool(ctx context.Context, r io.Reader, ext string) (string, error) {
	_, span := logging.StartSpan(ctx, "spool upload")
	defer span.End()

	f, err := os.CreateTemp(o.tempDir, "upload-*."+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("spool upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("flush temp file: %w", err)
	}

	return f.Name(), nil
}

func (o *Orchestrator) probe(ctx context.Context, path string) (media.Metadata, error) {
	ctx, span := logging.StartSpan(ctx, "probe video")
	defer span.End()

	meta, err := o.prober.Probe(ctx, path)
	if err != nil {
		if errors.Is(err, media.ErrNoVideoStream) {
			return media.Metadata{}, &media.ValidationError{Reason: "File is not a valid video"}
		}
		return media.Metadata{}, fmt.Errorf("probe video: %w", err)
	}

	return meta, nil
}

func (o *Orchestrator) storeAsset(ctx context.Context, spanName, path, key, contentType string) (string, error) {
	ctx, span := logging.StartSpan(ctx, spanName)
	defer span.End()

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()

	return o.assets.Save(ctx, key, f, contentType)
}

func (o *Orchestrator) renderThumbnail(ctx context.Context, videoPath, userID, videoID string) (string, error) {
	ctx, span := logging.StartSpan(ctx, "render thumbnail")
	defer span.End()

	outPath := filepath.Join(o.tempDir, fmt.Sprintf("thumb-%s.jpg", videoID))
	defer os.Remove(outPath)

	if err := o.thumbnails.Capture(ctx, videoPath, outPath); err != nil {
		return "", fmt.Errorf("capture frame: %w", err)
	}

	key := fmt.Sprintf("thumbnails/%s/%s-%d.jpg", userID, videoID, time.Now().UnixNano())
	return o.storeAsset(ctx, "store thumbnail", outPath, key, "image/jpeg")
}

// rollback undoes a partially published upload: the catalog row first,
// then a best-effort delete of the stored object.
func (o *Orchestrator) rollback(ctx context.Context, videoID, videoKey string) {
	logger := logging.FromContext(ctx)

	if err := o.store.Delete(ctx, videoID); err != nil {
		logger.Error("rollback video record",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()))
	}
	if err := o.assets.Delete(ctx, videoKey); err != nil {
		logger.Warn("rollback video asset",
			slog.String("key", videoKey),
			slog.String("error", err.Error()))
	}
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
