package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

const (
	EntityArtwork    = "artwork"
	EntityCollection = "collection"
	EntitySection    = "section"
	EntityExhibition = "exhibition"
	EntityCritic     = "critic"
)

// SupportedLanguages is the fixed set of translation languages.
var SupportedLanguages = []string{"it", "en", "es", "fr", "ja", "zh", "zh-tw"}

// Translations maps merged keys such as "title_zh_tw" to their value.
type Translations map[string]string

// Translatable is implemented by entities that carry merged translation keys.
type Translatable[T any] interface {
	TranslationID() int64
	WithTranslations(Translations) T
}

// NormalizeLanguage maps the "tw" alias to "zh-tw" and returns false for
// anything outside the supported set. It is lenient about case and "_" so
// request parameters like "ZH_TW" are accepted; body keys go through
// ParseTranslationKey, which is not.
func NormalizeLanguage(lang string) (string, bool) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	lang = strings.ReplaceAll(lang, "_", "-")
	if lang == "tw" {
		lang = "zh-tw"
	}
	for _, supported := range SupportedLanguages {
		if lang == supported {
			return lang, true
		}
	}
	return "", false
}

// ParseTranslationKey splits "title_en" into ("title", "en"). The two-segment
// suffix "_zh_tw" is recognised before falling back to the last segment.
// Language suffixes are matched case-sensitively; "title_EN" is not a key.
func ParseTranslationKey(key string) (field, lang string, ok bool) {
	if strings.HasSuffix(key, "_zh_tw") {
		field = strings.TrimSuffix(key, "_zh_tw")
		if field == "" {
			return "", "", false
		}
		return field, "zh-tw", true
	}

	idx := strings.LastIndex(key, "_")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", false
	}
	suffix := key[idx+1:]
	if suffix != strings.ToLower(suffix) {
		return "", "", false
	}
	lang, ok = NormalizeLanguage(suffix)
	if !ok {
		return "", "", false
	}
	return key[:idx], lang, true
}

// MergedKey builds the read-side key for a field/language pair.
func MergedKey(field, lang string) string {
	return field + "_" + strings.ReplaceAll(lang, "-", "_")
}

// TranslationFields picks every "{field}_{lang}" entry with a non-empty string
// value out of a decoded request body.
func TranslationFields(body map[string]any) map[string]string {
	out := make(map[string]string)
	for key, raw := range body {
		value, isString := raw.(string)
		if !isString || value == "" {
			continue
		}
		if _, _, ok := ParseTranslationKey(key); ok {
			out[key] = value
		}
	}
	return out
}

// SaveTranslations upserts one row per recognised field/language pair and
// returns how many rows were written.
func SaveTranslations(ctx context.Context, q Querier, entityType string, entityID int64, fields map[string]string) (int, error) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	written := 0
	ts := now()
	for _, key := range keys {
		value := fields[key]
		if value == "" {
			continue
		}
		field, lang, ok := ParseTranslationKey(key)
		if !ok {
			continue
		}

		queryBuilder := psql.Insert("translations").
			Columns("entity_type", "entity_id", "field_name", "language", "value", "updated_at").
			Values(entityType, entityID, field, lang, value, ts).
			Suffix("ON CONFLICT(entity_type, entity_id, field_name, language) DO UPDATE SET").
			Suffix("value = excluded.value,").
			Suffix("updated_at = excluded.updated_at")

		sqlStr, args, err := queryBuilder.ToSql()
		if err != nil {
			return written, fmt.Errorf("failed to build SQL for SaveTranslations: %w", err)
		}
		if _, err := q.ExecContext(ctx, sqlStr, args...); err != nil {
			return written, fmt.Errorf("failed to upsert translation %s for %s %d: %w", key, entityType, entityID, err)
		}
		written++
	}
	return written, nil
}

// LoadTranslations returns the merged translation keys for each entity id.
func LoadTranslations(ctx context.Context, q Querier, entityType string, ids []int64) (map[int64]Translations, error) {
	out := make(map[int64]Translations)
	if len(ids) == 0 {
		return out, nil
	}

	queryBuilder := psql.Select("entity_id", "field_name", "language", "value").
		From("translations").
		Where(sq.Eq{"entity_type": entityType, "entity_id": ids})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for LoadTranslations: %w", err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query translations for %s: %w", entityType, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id                 int64
			field, lang, value string
		)
		if err := rows.Scan(&id, &field, &lang, &value); err != nil {
			return nil, fmt.Errorf("failed to scan translation row: %w", err)
		}
		if out[id] == nil {
			out[id] = Translations{}
		}
		out[id][MergedKey(field, lang)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating translation rows: %w", err)
	}
	return out, nil
}

// MergeTranslations returns copies of items with their translation keys attached.
// Items without translations come back unchanged; an empty input issues no query.
func MergeTranslations[T Translatable[T]](ctx context.Context, q Querier, entityType string, items []T) ([]T, error) {
	if len(items) == 0 {
		return []T{}, nil
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.TranslationID())
	}
	byID, err := LoadTranslations(ctx, q, entityType, ids)
	if err != nil {
		return nil, err
	}

	merged := make([]T, len(items))
	for i, item := range items {
		if tr, ok := byID[item.TranslationID()]; ok {
			merged[i] = item.WithTranslations(tr)
		} else {
			merged[i] = item
		}
	}
	return merged, nil
}

// MergeOne is MergeTranslations for a single entity.
func MergeOne[T Translatable[T]](ctx context.Context, q Querier, entityType string, item T) (T, error) {
	merged, err := MergeTranslations(ctx, q, entityType, []T{item})
	if err != nil {
		return item, err
	}
	return merged[0], nil
}

func DeleteTranslations(ctx context.Context, q Querier, entityType string, entityID int64) error {
	sqlStr, args, err := psql.Delete("translations").
		Where(sq.Eq{"entity_type": entityType, "entity_id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for DeleteTranslations: %w", err)
	}
	if _, err := q.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to delete translations for %s %d: %w", entityType, entityID, err)
	}
	return nil
}

func (t Translations) clone() Translations {
	out := make(Translations, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// marshalWithTranslations encodes v and adds the translation keys next to its
// own fields. Existing fields are never overwritten.
func marshalWithTranslations(v any, tr Translations) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(tr) == 0 {
		return base, nil
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for key, value := range tr {
		if _, exists := fields[key]; exists {
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		fields[key] = encoded
	}
	return json.Marshal(fields)
}
