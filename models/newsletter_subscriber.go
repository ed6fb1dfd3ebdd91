package models

import "time"

type NewsletterSubscriber struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string     `gorm:"not null;uniqueIndex" json:"email"` // always lowercase
	IPAddress    string     `gorm:"column:ip_address;not null;default:''" json:"ip_address"`
	UserAgent    string     `gorm:"not null;default:''" json:"user_agent"`
	SubscribedAt *time.Time `json:"subscribed_at"`
}

func (NewsletterSubscriber) TableName() string {
	return "newsletter_subscribers"
}
