package database

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTranslationKey(t *testing.T) {
	tests := []struct {
		key   string
		field string
		lang  string
		ok    bool
	}{
		{"title_en", "title", "en", true},
		{"description_it", "description", "it", true},
		{"title_zh_tw", "title", "zh-tw", true},
		{"title_tw", "title", "zh-tw", true},
		{"long_field_name_ja", "long_field_name", "ja", true},
		{"title_zh", "title", "zh", true},
		{"title_de", "", "", false},
		{"title_EN", "", "", false},
		{"title_ZH_TW", "", "", false},
		{"title_Tw", "", "", false},
		{"image_url", "", "", false},
		{"collection_id", "", "", false},
		{"_en", "", "", false},
		{"_zh_tw", "", "", false},
		{"title_", "", "", false},
		{"title", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			field, lang, ok := ParseTranslationKey(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.field, field)
			assert.Equal(t, tt.lang, lang)
		})
	}
}

func TestNormalizeLanguage(t *testing.T) {
	lang, ok := NormalizeLanguage("tw")
	assert.True(t, ok)
	assert.Equal(t, "zh-tw", lang)

	lang, ok = NormalizeLanguage("ZH_TW")
	assert.True(t, ok)
	assert.Equal(t, "zh-tw", lang)

	_, ok = NormalizeLanguage("pt")
	assert.False(t, ok)
}

func TestTranslationFieldsSkipsNonStringsAndEmptyValues(t *testing.T) {
	fields := TranslationFields(map[string]any{
		"title":          "OPERA 9",
		"title_en":       "Title EN",
		"description_it": "",
		"order_index":    3,
		"title_fr":       42.0,
		"title_de":       "Titel",
		"title_EN":       "Shouted",
	})
	assert.Equal(t, map[string]string{"title_en": "Title EN"}, fields)
}

func createTestCollection(t *testing.T, q Querier, slug string) Collection {
	t.Helper()
	ctx := context.Background()
	id, err := CreateCollection(ctx, q, CollectionInput{Slug: slug, Title: "Collection " + slug})
	require.NoError(t, err)
	c, err := GetCollectionByID(ctx, q, id)
	require.NoError(t, err)
	return c
}

func TestTranslationsRoundTripForEverySupportedLanguage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := createTestCollection(t, db, "round-trip")

	fields := map[string]string{}
	want := map[string]string{}
	for _, lang := range SupportedLanguages {
		key := MergedKey("title", lang)
		fields[key] = "title in " + lang
		want[key] = "title in " + lang
	}

	written, err := SaveTranslations(ctx, db, EntityCollection, c.ID, fields)
	require.NoError(t, err)
	assert.Equal(t, len(SupportedLanguages), written)

	merged, err := MergeOne(ctx, db, EntityCollection, c)
	require.NoError(t, err)
	for key, value := range want {
		assert.Equal(t, value, merged.Translations[key], key)
	}
	assert.Equal(t, "title in zh-tw", merged.Translations["title_zh_tw"])
}

func TestUnsupportedLanguageIsDropped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := createTestCollection(t, db, "unsupported")

	written, err := SaveTranslations(ctx, db, EntityCollection, c.ID, map[string]string{"title_de": "Titel"})
	require.NoError(t, err)
	assert.Equal(t, 0, written)
	assert.Equal(t, 0, mustCount(t, db, "translations"))

	merged, err := MergeOne(ctx, db, EntityCollection, c)
	require.NoError(t, err)
	assert.NotContains(t, merged.Translations, "title_de")
}

func TestTwIsStoredAsZhTw(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := createTestCollection(t, db, "tw")

	_, err := SaveTranslations(ctx, db, EntityCollection, c.ID, map[string]string{"title_tw": "標題"})
	require.NoError(t, err)

	var lang string
	require.NoError(t, db.QueryRow("SELECT language FROM translations WHERE entity_id = ?", c.ID).Scan(&lang))
	assert.Equal(t, "zh-tw", lang)

	merged, err := MergeOne(ctx, db, EntityCollection, c)
	require.NoError(t, err)
	assert.Equal(t, "標題", merged.Translations["title_zh_tw"])
}

func TestSaveTranslationsIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := createTestCollection(t, db, "idempotent")

	for i := 0; i < 2; i++ {
		_, err := SaveTranslations(ctx, db, EntityCollection, c.ID, map[string]string{"title_en": "Same"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, mustCount(t, db, "translations"))

	_, err := SaveTranslations(ctx, db, EntityCollection, c.ID, map[string]string{"title_en": "Changed"})
	require.NoError(t, err)
	assert.Equal(t, 1, mustCount(t, db, "translations"))

	merged, err := MergeOne(ctx, db, EntityCollection, c)
	require.NoError(t, err)
	assert.Equal(t, "Changed", merged.Translations["title_en"])
}

func TestMergeTranslationsEmptyInputIssuesNoQuery(t *testing.T) {
	// a nil Querier would panic if a query were issued
	merged, err := MergeTranslations[Collection](context.Background(), nil, EntityCollection, nil)
	require.NoError(t, err)
	assert.Empty(t, merged)
}

func TestMergeTranslationsLeavesInputUntouched(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := createTestCollection(t, db, "a")
	b := createTestCollection(t, db, "b")

	_, err := SaveTranslations(ctx, db, EntityCollection, a.ID, map[string]string{"title_en": "A"})
	require.NoError(t, err)
	// rows for unknown fields are merged as-is
	_, err = db.Exec(`INSERT INTO translations (entity_type, entity_id, field_name, language, value)
		VALUES ('collection', ?, 'tagline', 'fr', 'Bonjour')`, a.ID)
	require.NoError(t, err)

	input := []Collection{a, b}
	merged, err := MergeTranslations(ctx, db, EntityCollection, input)
	require.NoError(t, err)

	require.Len(t, merged, 2)
	assert.Nil(t, input[0].Translations)
	assert.Equal(t, "A", merged[0].Translations["title_en"])
	assert.Equal(t, "Bonjour", merged[0].Translations["tagline_fr"])
	assert.Empty(t, merged[1].Translations)
	assert.Equal(t, b, merged[1])
}

func TestMergedEntityMarshalsFlatKeys(t *testing.T) {
	c := Collection{ID: 7, Slug: "opera-9", Title: "OPERA 9"}.
		WithTranslations(Translations{"title_en": "Title EN", "title": "ignored"})

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "OPERA 9", decoded["title"])
	assert.Equal(t, "Title EN", decoded["title_en"])
	assert.Equal(t, float64(7), decoded["id"])
	assert.NotContains(t, decoded, "Translations")
}

func TestDeleteTranslations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := SaveTranslations(ctx, db, EntityCritic, 1, map[string]string{"text_en": "x", "text_it": "y"})
	require.NoError(t, err)
	_, err = SaveTranslations(ctx, db, EntityCritic, 2, map[string]string{"text_en": "z"})
	require.NoError(t, err)

	require.NoError(t, DeleteTranslations(ctx, db, EntityCritic, 1))
	assert.Equal(t, 1, mustCount(t, db, "translations"))
}
