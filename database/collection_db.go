package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

type Collection struct {
	ID          int64   `json:"id"`
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    *string `json:"image_url"`
	OrderIndex  int     `json:"order_index"`
	IsVisible   bool    `json:"is_visible"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`

	Translations Translations `json:"-"`
}

func (c Collection) TranslationID() int64 { return c.ID }

func (c Collection) WithTranslations(tr Translations) Collection {
	c.Translations = tr.clone()
	return c
}

func (c Collection) MarshalJSON() ([]byte, error) {
	type plain Collection
	return marshalWithTranslations(plain(c), c.Translations)
}

type CollectionInput struct {
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    *string `json:"image_url"`
	OrderIndex  int     `json:"order_index"`
	IsVisible   *bool   `json:"is_visible"`
}

type CollectionPatch struct {
	Slug        Optional[string] `json:"slug"`
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	ImageURL    Optional[string] `json:"image_url"`
	OrderIndex  Optional[int]    `json:"order_index"`
	IsVisible   Optional[bool]   `json:"is_visible"`
}

var collectionColumns = []string{
	"id", "slug", "title", "description", "image_url", "order_index", "is_visible", "created_at", "updated_at",
}

func scanCollectionRow(scanner rowScanner) (Collection, error) {
	var c Collection
	err := scanner.Scan(&c.ID, &c.Slug, &c.Title, &c.Description, &c.ImageURL,
		&c.OrderIndex, &c.IsVisible, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Collection{}, sql.ErrNoRows
		}
		return Collection{}, fmt.Errorf("failed to scan collection row: %w", err)
	}
	return c, nil
}

func ListCollections(ctx context.Context, q Querier, includeHidden bool) ([]Collection, error) {
	queryBuilder := psql.Select(collectionColumns...).
		From("collections").
		OrderBy("order_index ASC", "id ASC")
	if !includeHidden {
		queryBuilder = queryBuilder.Where(sq.Eq{"is_visible": true})
	}

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListCollections: %w", err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListCollections query: %w", err)
	}
	defer rows.Close()

	collections := []Collection{}
	for rows.Next() {
		c, err := scanCollectionRow(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection rows: %w", err)
	}
	return collections, nil
}

func getCollection(ctx context.Context, q Querier, where sq.Eq) (Collection, error) {
	sqlStr, args, err := psql.Select(collectionColumns...).
		From("collections").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return Collection{}, fmt.Errorf("failed to build SQL for collection lookup: %w", err)
	}
	return scanCollectionRow(q.QueryRowContext(ctx, sqlStr, args...))
}

func GetCollectionByID(ctx context.Context, q Querier, id int64) (Collection, error) {
	c, err := getCollection(ctx, q, sq.Eq{"id": id})
	if err != nil {
		return Collection{}, fmt.Errorf("GetCollectionByID failed for ID %d: %w", id, err)
	}
	return c, nil
}

func GetCollectionBySlug(ctx context.Context, q Querier, slug string) (Collection, error) {
	c, err := getCollection(ctx, q, sq.Eq{"slug": slug})
	if err != nil {
		return Collection{}, fmt.Errorf("GetCollectionBySlug failed for slug %s: %w", slug, err)
	}
	return c, nil
}

// CreateCollection inserts a collection. A slug collision surfaces as ErrDuplicate.
func CreateCollection(ctx context.Context, q Querier, in CollectionInput) (int64, error) {
	visible := true
	if in.IsVisible != nil {
		visible = *in.IsVisible
	}
	ts := now()

	sqlStr, args, err := psql.Insert("collections").
		Columns("slug", "title", "description", "image_url", "order_index", "is_visible", "created_at", "updated_at").
		Values(in.Slug, in.Title, in.Description, in.ImageURL, in.OrderIndex, visible, ts, ts).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for CreateCollection: %w", err)
	}

	var id int64
	if err := q.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to execute CreateCollection for %s (slug %s): %w", in.Title, in.Slug, translateError(err))
	}
	return id, nil
}

func UpdateCollection(ctx context.Context, q Querier, id int64, patch CollectionPatch) error {
	ub := psql.Update("collections").Where(sq.Eq{"id": id}).Set("updated_at", now())

	var err error
	if ub, err = setValue(ub, "slug", patch.Slug, false); err != nil {
		return err
	}
	if patch.Slug.Set && patch.Slug.Value == "" {
		return fmt.Errorf("%w: slug cannot be empty", ErrInvalidValue)
	}
	if ub, err = setValue(ub, "title", patch.Title, false); err != nil {
		return err
	}
	if ub, err = setValue(ub, "description", patch.Description, false); err != nil {
		return err
	}
	if ub, err = setValue(ub, "image_url", patch.ImageURL, true); err != nil {
		return err
	}
	if ub, err = setValue(ub, "order_index", patch.OrderIndex, false); err != nil {
		return err
	}
	if ub, err = setValue(ub, "is_visible", patch.IsVisible, false); err != nil {
		return err
	}

	return execUpdate(ctx, q, ub, "UpdateCollection", id)
}

// DeleteCollection removes the collection and its translations. Artworks keep
// their collection_id.
func DeleteCollection(ctx context.Context, q Querier, id int64) (Collection, error) {
	c, err := GetCollectionByID(ctx, q, id)
	if err != nil {
		return Collection{}, err
	}
	if err := execDelete(ctx, q, "collections", id); err != nil {
		return Collection{}, err
	}
	if err := DeleteTranslations(ctx, q, EntityCollection, id); err != nil {
		return Collection{}, err
	}
	return c, nil
}
