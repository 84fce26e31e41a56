package images

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestIsPreviewable(t *testing.T) {
	tests := []struct {
		name        string
		contentType *string
		filename    string
		want        bool
	}{
		{"plain png", strptr("image/png"), "photo.png", true},
		{"jpeg", strptr("image/jpeg"), "scan.jpg", true},
		{"heif content type", strptr("image/heif"), "photo.jpg", false},
		{"heic content type", strptr("image/heic"), "photo.jpg", false},
		{"heic content type uppercase", strptr("IMAGE/HEIC"), "photo.jpg", false},
		{"heic suffix", nil, "photo.heic", false},
		{"heic suffix uppercase", nil, "photo.HEIC", false},
		{"heif suffix mixed case", nil, "Photo.HeIf", false},
		{"heic in basename only", strptr("image/png"), "my-heic-export.png", true},
		{"nil content type plain file", nil, "photo.png", true},
		{"empty everything", nil, "", true},
		{"empty content type", strptr(""), "photo.webp", true},
		{"unknown format stays permissive", strptr("application/octet-stream"), "blob.bin", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsPreviewable(tt.contentType, tt.filename))
		})
	}
}
