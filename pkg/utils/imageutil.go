package utils

import (
	"fmt"
	"mime"
	"strings"
)

var validTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/bmp",
}

// IsValidImageType checks if content type is a valid image type
func IsValidImageType(contentType string) bool {
	return ContainsType(validTypes, contentType)
}

// ContainsType reports whether contentType, ignoring parameters and case,
// is one of types.
func ContainsType(types []string, contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	for _, t := range types {
		if strings.EqualFold(strings.TrimSpace(t), mediaType) {
			return true
		}
	}
	return false
}

// AttachmentDisposition builds a Content-Disposition header value that makes
// browsers save the response under filename.
func AttachmentDisposition(filename string) string {
	if disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); disposition != "" {
		return disposition
	}
	return fmt.Sprintf("attachment; filename=%q", filename)
}
