package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindImageUsage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	url := "http://localhost:8080/images/1700000000000-sea.jpg"

	_, err := CreateArtwork(ctx, db, ArtworkInput{Title: "Sea", ImageURL: strPtr(url)})
	require.NoError(t, err)
	_, err = CreateArtwork(ctx, db, ArtworkInput{Title: "Other", ImageURL: strPtr("http://localhost:8080/images/x.jpg")})
	require.NoError(t, err)
	_, err = CreateCollection(ctx, db, CollectionInput{Slug: "sea", Title: "Sea cycle", ImageURL: strPtr("/images/1700000000000-sea.jpg")})
	require.NoError(t, err)

	usage, err := FindImageUsage(ctx, db, []string{url, "/images/1700000000000-sea.jpg"})
	require.NoError(t, err)
	assert.Equal(t, 2, usage.Total())
	require.Len(t, usage.Artworks, 1)
	assert.Equal(t, "Sea", usage.Artworks[0].Title)
	require.Len(t, usage.Collections, 1)
	assert.Empty(t, usage.Exhibitions)

	none, err := FindImageUsage(ctx, db, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, none.Total())
}
