package images

import "strings"

// IsPreviewable reports whether an image can be rendered inline by common
// browser decoders. HEIC/HEIF payloads cannot, so the dashboard falls back
// to an icon/download treatment for them; everything else is previewable,
// including formats we cannot verify. contentType may be nil.
func IsPreviewable(contentType *string, name string) bool {
	ct := ""
	if contentType != nil {
		ct = strings.ToLower(*contentType)
	}
	if strings.Contains(ct, "heic") || strings.Contains(ct, "heif") {
		return false
	}
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".heic") || strings.HasSuffix(lower, ".heif") {
		return false
	}
	return true
}
