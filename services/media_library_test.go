package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/logging"
	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/repository"
	"github.com/camden-git/portfoliobackend/workers"
)

type testLibrary struct {
	*MediaLibrary
	store *media.LocalStorage
	repo  *repository.MediaObjectRepository
}

func newTestLibrary(t *testing.T) testLibrary {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	sqlDB, err := database.InitDB(ctx, filepath.Join(dir, "portfolio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	gormDB, err := database.InitGormDB(sqlDB, false, nil)
	require.NoError(t, err)

	store, err := media.NewLocalStorage(filepath.Join(dir, "media"), logging.Nop())
	require.NoError(t, err)
	repo := repository.NewMediaObjectRepository(gormDB)
	processor := media.NewProcessor(store, 50, logging.Nop())

	return testLibrary{
		MediaLibrary: NewMediaLibrary(store, repo, processor, "https://cdn.test/", logging.Nop()),
		store:        store,
		repo:         repo,
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type recordingQueue struct {
	jobs   []workers.ThumbnailJob
	accept bool
}

func (q *recordingQueue) QueueJob(job workers.ThumbnailJob) bool {
	if !q.accept {
		return false
	}
	q.jobs = append(q.jobs, job)
	return true
}

func TestUploadImageCreatesThumbnailAndMetadata(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	res, err := lib.Upload(ctx, "My Painting.png", "", bytes.NewReader(pngBytes(t, 120, 60)))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(res.Key, "-My_Painting.png"), res.Key)
	assert.Equal(t, "https://cdn.test/images/"+res.Key, res.URL)
	require.NotNil(t, res.ThumbnailURL)
	assert.Equal(t, "https://cdn.test/images/"+media.ThumbnailKey(res.Key), *res.ThumbnailURL)
	assert.Equal(t, "image/png", res.Media.ContentType)
	require.NotNil(t, res.Media.Width)
	assert.Equal(t, 120, *res.Media.Width)
	assert.Equal(t, 60, *res.Media.Height)

	thumb, err := lib.repo.GetByKey(ctx, media.ThumbnailKey(res.Key))
	require.NoError(t, err)
	require.NotNil(t, thumb.OriginalKey)
	assert.Equal(t, res.Key, *thumb.OriginalKey)
	assert.Equal(t, media.ThumbnailContentType, thumb.ContentType)
}

func TestUploadNonImageSkipsThumbnail(t *testing.T) {
	lib := newTestLibrary(t)

	res, err := lib.Upload(context.Background(), "notes.txt", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Nil(t, res.ThumbnailURL)
	assert.Equal(t, int64(5), res.Media.Size)

	objects, err := lib.store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestListAndStats(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	img, err := lib.Upload(ctx, "a.png", "image/png", bytes.NewReader(pngBytes(t, 10, 10)))
	require.NoError(t, err)
	_, err = lib.Upload(ctx, "b.txt", "text/plain", strings.NewReader("abc"))
	require.NoError(t, err)

	items, err := lib.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, items, 3)

	byKey := map[string]MediaItem{}
	for _, item := range items {
		byKey[item.Key] = item
	}
	original := byKey[img.Key]
	require.NotNil(t, original.ThumbnailURL)
	assert.Nil(t, original.OriginalKey)

	thumb := byKey[media.ThumbnailKey(img.Key)]
	require.NotNil(t, thumb.OriginalKey)
	assert.Equal(t, img.Key, *thumb.OriginalKey)
	assert.Nil(t, thumb.ThumbnailURL)

	stats, err := lib.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalObjects)
	assert.Equal(t, 2, stats.Originals)
	assert.Equal(t, 1, stats.Thumbnails)
	assert.Greater(t, stats.TotalSize, int64(3))
}

func TestDeleteRemovesDerivedAssets(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	res, err := lib.Upload(ctx, "a.png", "image/png", bytes.NewReader(pngBytes(t, 10, 10)))
	require.NoError(t, err)

	deleted, err := lib.Delete(ctx, res.Key)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{res.Key, media.ThumbnailKey(res.Key)}, deleted)

	objects, err := lib.store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, objects)

	records, err := lib.repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDeleteLegacyThumbnailSibling(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	_, err := lib.store.Put(ctx, "1-old.png", "image/png", bytes.NewReader(pngBytes(t, 4, 4)))
	require.NoError(t, err)
	_, err = lib.store.Put(ctx, "1-old_thumb.png", "image/png", bytes.NewReader(pngBytes(t, 2, 2)))
	require.NoError(t, err)

	deleted, err := lib.Delete(ctx, "1-old.png")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1-old.png", "1-old_thumb.png"}, deleted)
}

func TestDeleteMissingObject(t *testing.T) {
	lib := newTestLibrary(t)

	_, err := lib.Delete(context.Background(), "nope.png")
	assert.ErrorIs(t, err, media.ErrNotFound)

	_, err = lib.Delete(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, media.ErrNotFound)
}

func TestRegenerateMissingQueuesOriginalsWithoutThumbnail(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	withThumb, err := lib.Upload(ctx, "done.png", "image/png", bytes.NewReader(pngBytes(t, 10, 10)))
	require.NoError(t, err)
	_, err = lib.store.Put(ctx, "2-bare.png", "image/png", bytes.NewReader(pngBytes(t, 10, 10)))
	require.NoError(t, err)
	_, err = lib.store.Put(ctx, "3-doc.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)

	queue := &recordingQueue{accept: true}
	lib.Queue = queue

	res, err := lib.RegenerateMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, RegenerateResult{Queued: 1, Skipped: 1}, res)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "2-bare.png", queue.jobs[0].OriginalKey)
	assert.NotEqual(t, withThumb.Key, queue.jobs[0].OriginalKey)
}

func TestRegenerateThumbnailBackfillsRecords(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	_, err := lib.store.Put(ctx, "2-bare.png", "image/png", bytes.NewReader(pngBytes(t, 100, 40)))
	require.NoError(t, err)

	require.NoError(t, lib.RegenerateThumbnail(ctx, "2-bare.png"))

	original, err := lib.repo.GetByKey(ctx, "2-bare.png")
	require.NoError(t, err)
	require.NotNil(t, original.Width)
	assert.Equal(t, 100, *original.Width)

	derived, err := lib.repo.ListDerived(ctx, "2-bare.png")
	require.NoError(t, err)
	require.Len(t, derived, 1)
	assert.Equal(t, "2-bare_thumb.jpg", derived[0].Key)

	res, err := lib.RegenerateMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, RegenerateResult{Queued: 0, Skipped: 1}, res)
}

func TestUsageCandidates(t *testing.T) {
	lib := newTestLibrary(t)

	candidates := lib.UsageCandidates("1-a b.png")
	assert.Contains(t, candidates, "https://cdn.test/images/1-a%20b.png")
	assert.Contains(t, candidates, "/images/1-a b.png")
	assert.Contains(t, candidates, "/images/1-a%20b.png")
	assert.Contains(t, candidates, "1-a b.png")
}
