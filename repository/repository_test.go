package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/models"
)

func newTestGorm(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, err := database.InitDB(context.Background(), filepath.Join(t.TempDir(), "portfolio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := database.InitGormDB(sqlDB, false, nil)
	require.NoError(t, err)
	return db
}

func TestNewsletterSubscribeDedupsCaseInsensitively(t *testing.T) {
	repo := NewNewsletterRepository(newTestGorm(t))
	ctx := context.Background()

	first, created, err := repo.Subscribe(ctx, "A@X.com", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "a@x.com", first.Email)
	assert.NotZero(t, first.ID)

	second, created, err := repo.Subscribe(ctx, "  a@x.COM ", "10.0.0.2", "other")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "10.0.0.1", second.IPAddress)

	subs, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestNewsletterDelete(t *testing.T) {
	repo := NewNewsletterRepository(newTestGorm(t))
	ctx := context.Background()

	sub, _, err := repo.Subscribe(ctx, "x@y.org", "", "")
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "x@y.org", deleted.Email)

	_, err = repo.Delete(ctx, sub.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestContentBlockSaveCreatesThenUpdates(t *testing.T) {
	repo := NewContentBlockRepository(newTestGorm(t))
	ctx := context.Background()

	_, err := repo.GetByKey(ctx, "about")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	block, err := repo.Save(ctx, "about", ContentBlockPatch{
		Title:    database.Some("About"),
		Content:  database.Some("Painter based in Rome."),
		ImageURL: database.Some("/images/1-me.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, "About", block.Title)
	require.NotNil(t, block.ImageURL)

	block, err = repo.Save(ctx, "about", ContentBlockPatch{
		Content:  database.Some(""),
		ImageURL: database.Null[string](),
	})
	require.NoError(t, err)
	assert.Equal(t, "About", block.Title)
	assert.Equal(t, "", block.Content)
	assert.Nil(t, block.ImageURL)

	blocks, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestMediaObjectUpsertAndDerived(t *testing.T) {
	repo := NewMediaObjectRepository(newTestGorm(t))
	ctx := context.Background()

	original := "1-a.png"
	require.NoError(t, repo.Save(ctx, &models.MediaObject{Key: original, ContentType: "image/png", Size: 10}))
	require.NoError(t, repo.Save(ctx, &models.MediaObject{Key: original, ContentType: "image/png", Size: 20}))
	require.NoError(t, repo.Save(ctx, &models.MediaObject{Key: "1-a_thumb.jpg", OriginalKey: &original, ContentType: "image/jpeg"}))

	obj, err := repo.GetByKey(ctx, original)
	require.NoError(t, err)
	assert.Equal(t, int64(20), obj.Size)
	assert.False(t, obj.IsDerived())

	derived, err := repo.ListDerived(ctx, original)
	require.NoError(t, err)
	require.Len(t, derived, 1)
	assert.Equal(t, "1-a_thumb.jpg", derived[0].Key)

	require.NoError(t, repo.Delete(ctx, original, "1-a_thumb.jpg"))
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
