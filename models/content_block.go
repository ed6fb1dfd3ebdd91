package models

import "time"

// ContentBlock is a keyed piece of editable site copy (about text, contact info, ...).
type ContentBlock struct {
	Key       string     `gorm:"primaryKey" json:"key"`
	Title     string     `gorm:"not null;default:''" json:"title"`
	Content   string     `gorm:"not null;default:''" json:"content"`
	ImageURL  *string    `json:"image_url"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (ContentBlock) TableName() string {
	return "content_blocks"
}
