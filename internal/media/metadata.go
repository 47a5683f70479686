package media

import (
	"context"
	"fmt"
)

// Metadata captures the stream details extracted from an uploaded video file.
type Metadata struct {
	Duration float64
	Width    int
	Height   int
	FPS      float64
	Bitrate  int64
	Codec    string
}

// Resolution renders the probed dimensions as "WxH".
func (m Metadata) Resolution() string {
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

// AspectRatio renders the probed dimensions as "W:H".
func (m Metadata) AspectRatio() string {
	return fmt.Sprintf("%d:%d", m.Width, m.Height)
}

// Prober extracts stream metadata from a local video file.
type Prober interface {
	Probe(ctx context.Context, path string) (Metadata, error)
}

// Thumbnailer captures a still frame from a local video file into an
// image file on disk.
type Thumbnailer interface {
	Capture(ctx context.Context, inputPath, outputPath string) error
}
