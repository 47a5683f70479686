package media

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateFile(t *testing.T) {
	opts := ValidationOptions{
		MaxSize:           100 * 1024 * 1024,
		AllowedExtensions: []string{"mp4", "mov", "webm"},
	}

	tests := []struct {
		name        string
		filename    string
		contentType string
		size        int64
		wantReason  string
	}{
		{
			name:        "valid mp4",
			filename:    "clip.mp4",
			contentType: "video/mp4",
			size:        10 * 1024 * 1024,
		},
		{
			name:        "extension case insensitive",
			filename:    "clip.MOV",
			contentType: "video/quicktime",
			size:        1024,
		},
		{
			name:        "too large",
			filename:    "clip.mp4",
			contentType: "video/mp4",
			size:        101 * 1024 * 1024,
			wantReason:  "File size exceeds",
		},
		{
			name:        "unsupported extension",
			filename:    "clip.avi",
			contentType: "video/x-msvideo",
			size:        1024,
			wantReason:  "File format not supported",
		},
		{
			name:        "no extension",
			filename:    "clip",
			contentType: "video/mp4",
			size:        1024,
			wantReason:  "File format not supported",
		},
		{
			name:        "non-video content type",
			filename:    "clip.mp4",
			contentType: "application/octet-stream",
			size:        1024,
			wantReason:  "File is not a valid video",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFile(tc.filename, tc.contentType, tc.size, opts)
			if tc.wantReason == "" {
				if err != nil {
					t.Fatalf("expected valid file, got %v", err)
				}
				return
			}

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !strings.Contains(validationErr.Reason, tc.wantReason) {
				t.Fatalf("expected reason containing %q, got %q", tc.wantReason, validationErr.Reason)
			}
		})
	}
}

func TestValidateFileNoSizeLimit(t *testing.T) {
	opts := ValidationOptions{AllowedExtensions: []string{"mp4"}}

	if err := ValidateFile("huge.mp4", "video/mp4", 1<<40, opts); err != nil {
		t.Fatalf("expected no size enforcement when MaxSize is zero, got %v", err)
	}
}
