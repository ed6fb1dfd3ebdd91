package media

import (
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var supportedImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// ThumbnailSuffix marks derived thumbnails in object keys.
const ThumbnailSuffix = "_thumb"

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	repeatedDots        = regexp.MustCompile(`\.{2,}`)
)

// IsRasterImage checks if the filename has a common raster image extension
func IsRasterImage(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return supportedImageExtensions[ext]
}

// SanitizeFilename keeps the base name and replaces anything outside [A-Za-z0-9._-].
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = repeatedDots.ReplaceAllString(name, ".")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}

// ObjectKey builds the "{unixMillis}-{filename}" key for an upload.
func ObjectKey(at time.Time, filename string) string {
	return fmt.Sprintf("%d-%s", at.UnixMilli(), SanitizeFilename(filename))
}

// ThumbnailKey is the key of the JPEG thumbnail generated for key.
func ThumbnailKey(key string) string {
	return strings.TrimSuffix(key, filepath.Ext(key)) + ThumbnailSuffix + ThumbnailFileExtension
}

// LegacyThumbnailKeys lists the sibling keys that objects uploaded without
// metadata may have used for their thumbnail.
func LegacyThumbnailKeys(key string) []string {
	ext := filepath.Ext(key)
	base := strings.TrimSuffix(key, ext)
	keys := []string{ThumbnailKey(key)}
	if alt := base + ThumbnailSuffix + ext; alt != keys[0] {
		keys = append(keys, alt)
	}
	return keys
}

// LooksDerived reports whether the key follows the thumbnail naming convention.
func LooksDerived(key string) bool {
	return strings.Contains(key, ThumbnailSuffix)
}

// ContentTypeFor guesses a content type from the key's extension.
func ContentTypeFor(key string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(key))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
