package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCollectionDuplicateSlug(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := CreateCollection(ctx, db, CollectionInput{Slug: "opera-9", Title: "OPERA 9"})
	require.NoError(t, err)

	_, err = CreateCollection(ctx, db, CollectionInput{Slug: "opera-9", Title: "Again"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, mustCount(t, db, "collections"))
}

func TestUpdateCollectionSlugCollision(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := CreateCollection(ctx, db, CollectionInput{Slug: "first", Title: "First"})
	require.NoError(t, err)
	id, err := CreateCollection(ctx, db, CollectionInput{Slug: "second", Title: "Second"})
	require.NoError(t, err)

	err = UpdateCollection(ctx, db, id, CollectionPatch{Slug: Some("first")})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = UpdateCollection(ctx, db, id, CollectionPatch{Slug: Some("")})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestCollectionLookupsAndVisibility(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := CreateCollection(ctx, db, CollectionInput{Slug: "shown", Title: "Shown", OrderIndex: 2})
	require.NoError(t, err)
	hiddenID, err := CreateCollection(ctx, db, CollectionInput{Slug: "hidden", Title: "Hidden", IsVisible: boolPtr(false)})
	require.NoError(t, err)

	c, err := GetCollectionBySlug(ctx, db, "hidden")
	require.NoError(t, err)
	assert.Equal(t, hiddenID, c.ID)
	assert.False(t, c.IsVisible)

	_, err = GetCollectionBySlug(ctx, db, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	visible, err := ListCollections(ctx, db, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "shown", visible[0].Slug)

	all, err := ListCollections(ctx, db, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteMissingCollection(t *testing.T) {
	db := newTestDB(t)
	_, err := DeleteCollection(context.Background(), db, 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
