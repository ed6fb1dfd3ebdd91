package media

import (
	"fmt"
	"image"
	"io"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Metadata holds what is recorded about an uploaded image.
type Metadata struct {
	Width   *int       `json:"width,omitempty"`
	Height  *int       `json:"height,omitempty"`
	TakenAt *time.Time `json:"taken_at,omitempty"`
}

// ExtractMetadata reads dimensions and, when present, the EXIF capture time.
// Missing EXIF data is not an error.
func ExtractMetadata(r io.ReadSeeker) (Metadata, error) {
	var meta Metadata

	config, _, err := image.DecodeConfig(r)
	if err == nil {
		w, h := config.Width, config.Height
		meta.Width = &w
		meta.Height = &h
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return meta, fmt.Errorf("metadata: failed to seek: %w", err)
	}

	exifData, err := exif.Decode(r)
	if err != nil {
		// file might just lack EXIF data
		return meta, nil
	}
	if dt, err := exifData.DateTime(); err == nil {
		taken := dt.UTC()
		meta.TakenAt = &taken
	}
	return meta, nil
}
