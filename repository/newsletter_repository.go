package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/models"
)

type NewsletterRepository struct {
	DB *gorm.DB
}

func NewNewsletterRepository(db *gorm.DB) *NewsletterRepository {
	return &NewsletterRepository{DB: db}
}

// NormalizeEmail lowercases and trims an address; it is the dedup key for subscribers.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Subscribe stores the address unless it is already present. The boolean is
// true when a new subscriber was created.
func (r *NewsletterRepository) Subscribe(ctx context.Context, email, ipAddress, userAgent string) (*models.NewsletterSubscriber, bool, error) {
	email = NormalizeEmail(email)
	db := r.DB.WithContext(ctx)

	existing, err := r.findByEmail(db, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC()
	sub := models.NewsletterSubscriber{
		Email:        email,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		SubscribedAt: &now,
	}
	if err := db.Create(&sub).Error; err != nil {
		if database.IsDuplicate(err) {
			// lost a race with a concurrent subscribe for the same address
			existing, findErr := r.findByEmail(db, email)
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create subscriber %s: %w", email, err)
	}
	return &sub, true, nil
}

func (r *NewsletterRepository) findByEmail(db *gorm.DB, email string) (*models.NewsletterSubscriber, error) {
	var sub models.NewsletterSubscriber
	err := db.Where("email = ?", email).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up subscriber %s: %w", email, err)
	}
	return &sub, nil
}

func (r *NewsletterRepository) ListAll(ctx context.Context) ([]models.NewsletterSubscriber, error) {
	subs := []models.NewsletterSubscriber{}
	err := r.DB.WithContext(ctx).Order("subscribed_at DESC").Order("id DESC").Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return subs, nil
}

// Delete removes the subscriber and returns the deleted record.
func (r *NewsletterRepository) Delete(ctx context.Context, id uint) (*models.NewsletterSubscriber, error) {
	var sub models.NewsletterSubscriber
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sub, id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.NewsletterSubscriber{}, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete subscriber %d: %w", id, err)
	}
	return &sub, nil
}
