package media

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// ValidationError describes a rejected upload submission. Handlers map it
// to a 400 response carrying the reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ValidationOptions bounds what ValidateFile accepts.
type ValidationOptions struct {
	MaxSize           int64
	AllowedExtensions []string
}

// ValidateFile checks an upload's size, extension and MIME type before
// any bytes are processed.
func ValidateFile(filename, contentType string, size int64, opts ValidationOptions) error {
	if opts.MaxSize > 0 && size > opts.MaxSize {
		return &ValidationError{
			Reason: fmt.Sprintf("File size exceeds %s limit", humanize.IBytes(uint64(opts.MaxSize))),
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	allowed := false
	for _, candidate := range opts.AllowedExtensions {
		if ext == strings.ToLower(candidate) {
			allowed = true
			break
		}
	}
	if !allowed {
		return &ValidationError{
			Reason: fmt.Sprintf("File format not supported. Allowed formats: %s", strings.Join(opts.AllowedExtensions, ", ")),
		}
	}

	if !strings.HasPrefix(contentType, "video/") {
		return &ValidationError{Reason: "File is not a valid video"}
	}

	return nil
}
