package media

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStorage {
	t.Helper()
	store, err := NewLocalStorage(t.TempDir(), nil)
	require.NoError(t, err)
	return store
}

func TestLocalStoragePutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	info, err := store.Put(ctx, "1700000000000-sea.png", "image/png", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.Equal(t, int64(6), info.Size)

	rc, got, err := store.Get(ctx, "1700000000000-sea.png")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(body))
	assert.Equal(t, "image/png", got.ContentType)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1700000000000-sea.png", list[0].Key)

	require.NoError(t, store.Delete(ctx, "1700000000000-sea.png"))
	_, err = store.Stat(ctx, "1700000000000-sea.png")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "1700000000000-sea.png"), ErrNotFound)
}

func TestLocalStorageFallsBackToExtensionContentType(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Put(ctx, "photo.jpg", "", strings.NewReader("x"))
	require.NoError(t, err)

	info, err := store.Stat(ctx, "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", info.ContentType)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, key := range []string{"", "..", "../etc/passwd", "a/b.jpg", `a\b.jpg`, "x..y"} {
		_, err := store.Put(ctx, key, "text/plain", strings.NewReader("x"))
		assert.Error(t, err, key)
		_, _, err = store.Get(ctx, key)
		assert.Error(t, err, key)
	}
}

func TestObjectKeys(t *testing.T) {
	assert.Equal(t, "my_photo_1_.jpg", SanitizeFilename("my photo (1).jpg"))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "a.b.jpg", SanitizeFilename("a..b.jpg"))
	assert.Equal(t, "upload", SanitizeFilename(".."))

	assert.Equal(t, "1700000000000-sea_thumb.jpg", ThumbnailKey("1700000000000-sea.png"))
	assert.Equal(t, []string{"1-sea_thumb.jpg", "1-sea_thumb.png"}, LegacyThumbnailKeys("1-sea.png"))
	assert.Equal(t, []string{"1-sea_thumb.jpg"}, LegacyThumbnailKeys("1-sea.jpg"))
	assert.True(t, LooksDerived("1-sea_thumb.jpg"))
	assert.False(t, LooksDerived("1-sea.jpg"))
	assert.True(t, IsRasterImage("X.JPEG"))
	assert.False(t, IsRasterImage("notes.pdf"))
}
