package repository

import (
	"context"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/models"
)

// ContentBlockRepositoryInterface defines the methods for content block operations
type ContentBlockRepositoryInterface interface {
	ListAll(ctx context.Context) ([]models.ContentBlock, error)
	GetByKey(ctx context.Context, key string) (*models.ContentBlock, error)
	Save(ctx context.Context, key string, patch ContentBlockPatch) (*models.ContentBlock, error)
}

// NewsletterRepositoryInterface defines the methods for subscriber operations
type NewsletterRepositoryInterface interface {
	Subscribe(ctx context.Context, email, ipAddress, userAgent string) (*models.NewsletterSubscriber, bool, error)
	ListAll(ctx context.Context) ([]models.NewsletterSubscriber, error)
	Delete(ctx context.Context, id uint) (*models.NewsletterSubscriber, error)
}

// MediaObjectRepositoryInterface defines the methods for media metadata operations
type MediaObjectRepositoryInterface interface {
	Save(ctx context.Context, obj *models.MediaObject) error
	GetByKey(ctx context.Context, key string) (*models.MediaObject, error)
	ListAll(ctx context.Context) ([]models.MediaObject, error)
	ListDerived(ctx context.Context, originalKey string) ([]models.MediaObject, error)
	Delete(ctx context.Context, keys ...string) error
}

// ContentBlockPatch carries the fields of a content block update. Absent
// fields keep their stored value.
type ContentBlockPatch struct {
	Title    database.Optional[string] `json:"title"`
	Content  database.Optional[string] `json:"content"`
	ImageURL database.Optional[string] `json:"image_url"`
}
