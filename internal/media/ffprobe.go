package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// ErrNoVideoStream indicates the probed file contains no video stream.
var ErrNoVideoStream = errors.New("no video stream found")

// FFprobeProber extracts metadata by shelling out to ffprobe.
type FFprobeProber struct {
	Binary  string
	Run     CommandRunner
	Timeout time.Duration
}

// NewFFprobeProber constructs a Prober that shells out to ffprobe.
func NewFFprobeProber(binary string, timeout time.Duration) *FFprobeProber {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFprobeProber{
		Binary:  binary,
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

// Probe executes ffprobe against the provided path and parses the JSON output.
func (p *FFprobeProber) Probe(ctx context.Context, path string) (Metadata, error) {
	if p.Run == nil {
		p.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	out, err := p.Run(execCtx, p.Binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return Metadata{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var payload struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			Width      int    `json:"width"`
			Height     int    `json:"height"`
			RFrameRate string `json:"r_frame_rate"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
			BitRate  string `json:"bit_rate"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return Metadata{}, fmt.Errorf("parse ffprobe response: %w", err)
	}

	var meta Metadata
	found := false
	for _, stream := range payload.Streams {
		if stream.CodecType != "video" {
			continue
		}
		meta.Width = stream.Width
		meta.Height = stream.Height
		meta.Codec = stream.CodecName
		meta.FPS = parseFrameRate(stream.RFrameRate)
		found = true
		break
	}
	if !found {
		return Metadata{}, ErrNoVideoStream
	}

	meta.Duration, _ = strconv.ParseFloat(payload.Format.Duration, 64)
	meta.Bitrate, _ = strconv.ParseInt(payload.Format.BitRate, 10, 64)

	return meta, nil
}

// parseFrameRate converts ffprobe's fractional rate ("30000/1001") to a float.
func parseFrameRate(rate string) float64 {
	num, den, ok := strings.Cut(rate, "/")
	if !ok {
		f, _ := strconv.ParseFloat(rate, 64)
		return f
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}
