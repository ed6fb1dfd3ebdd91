package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnailSize(t *testing.T) {
	w, h := thumbnailSize(800, 400, 400)
	assert.Equal(t, 400, w)
	assert.Equal(t, 200, h)

	w, h = thumbnailSize(300, 900, 400)
	assert.Equal(t, 133, w)
	assert.Equal(t, 400, h)

	w, h = thumbnailSize(100, 50, 400)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestGenerateThumbnailFromStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, err := store.Put(ctx, "1-wide.png", "image/png", bytes.NewReader(testPNG(t, 200, 100)))
	require.NoError(t, err)

	p := NewProcessor(store, 50, nil)
	info, img, err := p.GenerateThumbnailFromStore(ctx, "1-wide.png")
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, "1-wide_thumb.jpg", info.Key)
	assert.Equal(t, ThumbnailContentType, info.ContentType)

	rc, _, err := store.Get(ctx, info.Key)
	require.NoError(t, err)
	defer rc.Close()
	thumb, err := Decode(rc)
	require.NoError(t, err)
	assert.Equal(t, 50, thumb.Bounds().Dx())
	assert.Equal(t, 25, thumb.Bounds().Dy())
}

func TestExtractMetadataWithoutExif(t *testing.T) {
	meta, err := ExtractMetadata(bytes.NewReader(testPNG(t, 30, 20)))
	require.NoError(t, err)
	require.NotNil(t, meta.Width)
	assert.Equal(t, 30, *meta.Width)
	assert.Equal(t, 20, *meta.Height)
	assert.Nil(t, meta.TakenAt)
}

func TestSortObjects(t *testing.T) {
	now := time.Now()
	objects := []ObjectInfo{
		{Key: "img10.jpg", Uploaded: now},
		{Key: "img2.jpg", Uploaded: now.Add(-time.Hour)},
		{Key: "img1.jpg", Uploaded: now.Add(time.Hour)},
	}

	SortObjects(objects, DefaultSortOrder)
	assert.Equal(t, "img1.jpg", objects[0].Key)
	assert.Equal(t, "img2.jpg", objects[1].Key)
	assert.Equal(t, "img10.jpg", objects[2].Key)

	SortObjects(objects, SortDateDesc)
	assert.Equal(t, "img1.jpg", objects[0].Key)
	assert.Equal(t, "img2.jpg", objects[2].Key)

	assert.True(t, IsValidSortOrder(SortNameAsc))
	assert.False(t, IsValidSortOrder("random"))
}
