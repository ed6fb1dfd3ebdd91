package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/camden-git/portfoliobackend/models"
)

type MediaObjectRepository struct {
	DB *gorm.DB
}

func NewMediaObjectRepository(db *gorm.DB) *MediaObjectRepository {
	return &MediaObjectRepository{DB: db}
}

// Save inserts or replaces the metadata row for obj.Key.
func (r *MediaObjectRepository) Save(ctx context.Context, obj *models.MediaObject) error {
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(obj).Error
	if err != nil {
		return fmt.Errorf("failed to save media object %s: %w", obj.Key, err)
	}
	return nil
}

func (r *MediaObjectRepository) GetByKey(ctx context.Context, key string) (*models.MediaObject, error) {
	var obj models.MediaObject
	err := r.DB.WithContext(ctx).Where("key = ?", key).First(&obj).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get media object %s: %w", key, err)
	}
	return &obj, nil
}

func (r *MediaObjectRepository) ListAll(ctx context.Context) ([]models.MediaObject, error) {
	objs := []models.MediaObject{}
	if err := r.DB.WithContext(ctx).Order("key ASC").Find(&objs).Error; err != nil {
		return nil, fmt.Errorf("failed to list media objects: %w", err)
	}
	return objs, nil
}

// ListDerived returns the objects generated from originalKey.
func (r *MediaObjectRepository) ListDerived(ctx context.Context, originalKey string) ([]models.MediaObject, error) {
	objs := []models.MediaObject{}
	err := r.DB.WithContext(ctx).Where("original_key = ?", originalKey).Order("key ASC").Find(&objs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list derived objects for %s: %w", originalKey, err)
	}
	return objs, nil
}

func (r *MediaObjectRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.DB.WithContext(ctx).Where("key IN ?", keys).Delete(&models.MediaObject{}).Error; err != nil {
		return fmt.Errorf("failed to delete media objects: %w", err)
	}
	return nil
}
