package media

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Thumbnails are captured at a fixed offset into the clip, scaled to fit
// a 720p frame.
const (
	thumbnailOffset = "00:00:02"
	thumbnailScale  = "scale=1280:720:force_original_aspect_ratio=decrease"
)

// FFmpegThumbnailer captures a single frame by shelling out to ffmpeg.
type FFmpegThumbnailer struct {
	Binary  string
	Run     CommandRunner
	Timeout time.Duration
}

// NewFFmpegThumbnailer constructs a Thumbnailer that shells out to ffmpeg.
func NewFFmpegThumbnailer(binary string, timeout time.Duration) *FFmpegThumbnailer {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFmpegThumbnailer{
		Binary:  binary,
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

// Capture writes a JPEG still from the 2-second mark of inputPath to outputPath.
func (t *FFmpegThumbnailer) Capture(ctx context.Context, inputPath, outputPath string) error {
	if t.Run == nil {
		t.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	_, err := t.Run(execCtx, t.Binary,
		"-ss", thumbnailOffset,
		"-i", inputPath,
		"-frames:v", "1",
		"-vf", thumbnailScale,
		"-q:v", "2",
		"-y",
		outputPath,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg thumbnail %s: %w", inputPath, err)
	}
	return nil
}
