package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/models"
)

type ContentBlockRepository struct {
	DB *gorm.DB
}

func NewContentBlockRepository(db *gorm.DB) *ContentBlockRepository {
	return &ContentBlockRepository{DB: db}
}

func (r *ContentBlockRepository) ListAll(ctx context.Context) ([]models.ContentBlock, error) {
	blocks := []models.ContentBlock{}
	if err := r.DB.WithContext(ctx).Order("key ASC").Find(&blocks).Error; err != nil {
		return nil, fmt.Errorf("failed to list content blocks: %w", err)
	}
	return blocks, nil
}

func (r *ContentBlockRepository) GetByKey(ctx context.Context, key string) (*models.ContentBlock, error) {
	var block models.ContentBlock
	err := r.DB.WithContext(ctx).Where("key = ?", key).First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get content block %s: %w", key, err)
	}
	return &block, nil
}

// Save applies the patch to the block, creating it first when the key is new.
func (r *ContentBlockRepository) Save(ctx context.Context, key string, patch ContentBlockPatch) (*models.ContentBlock, error) {
	var saved models.ContentBlock
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var block models.ContentBlock
		err := tx.Where("key = ?", key).First(&block).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			block = models.ContentBlock{Key: key, UpdatedAt: &now}
			applyContentPatch(&block, patch)
			if err := tx.Create(&block).Error; err != nil {
				return fmt.Errorf("failed to create content block %s: %w", key, err)
			}
		case err != nil:
			return fmt.Errorf("failed to load content block %s: %w", key, err)
		default:
			updates := map[string]interface{}{"updated_at": now}
			if patch.Title.Set {
				updates["title"] = patch.Title.Value
			}
			if patch.Content.Set {
				updates["content"] = patch.Content.Value
			}
			if patch.ImageURL.Set {
				if patch.ImageURL.Null {
					updates["image_url"] = gorm.Expr("NULL")
				} else {
					updates["image_url"] = patch.ImageURL.Value
				}
			}
			if err := tx.Model(&models.ContentBlock{}).Where("key = ?", key).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update content block %s: %w", key, err)
			}
		}

		return tx.Where("key = ?", key).First(&saved).Error
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func applyContentPatch(block *models.ContentBlock, patch ContentBlockPatch) {
	if patch.Title.Set {
		block.Title = patch.Title.Value
	}
	if patch.Content.Set {
		block.Content = patch.Content.Value
	}
	if patch.ImageURL.Set && !patch.ImageURL.Null {
		url := patch.ImageURL.Value
		block.ImageURL = &url
	}
}
