package models

import "time"

// MediaObject records metadata for a blob in the media store.
// Derived assets (thumbnails) point at their source through OriginalKey.
type MediaObject struct {
	Key         string     `gorm:"primaryKey" json:"key"`
	OriginalKey *string    `gorm:"index" json:"original_key"`
	ContentType string     `gorm:"not null;default:''" json:"content_type"`
	Size        int64      `gorm:"not null;default:0" json:"size"`
	Width       *int       `json:"width,omitempty"`
	Height      *int       `json:"height,omitempty"`
	TakenAt     *time.Time `json:"taken_at,omitempty"`
	UploadedAt  *time.Time `json:"uploaded_at"`
}

func (MediaObject) TableName() string {
	return "media_objects"
}

// IsDerived reports whether the object was generated from another one.
func (m MediaObject) IsDerived() bool {
	return m.OriginalKey != nil && *m.OriginalKey != ""
}
