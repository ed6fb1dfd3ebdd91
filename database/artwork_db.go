package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

type Artwork struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Year         string  `json:"year"`
	Technique    string  `json:"technique"`
	Dimensions   string  `json:"dimensions"`
	ImageURL     *string `json:"image_url"`
	CollectionID *int64  `json:"collection_id"`
	SectionID    *int64  `json:"section_id"`
	OrderIndex   int     `json:"order_index"`
	IsVisible    bool    `json:"is_visible"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`

	Translations Translations `json:"-"`
}

func (a Artwork) TranslationID() int64 { return a.ID }

func (a Artwork) WithTranslations(tr Translations) Artwork {
	a.Translations = tr.clone()
	return a
}

func (a Artwork) MarshalJSON() ([]byte, error) {
	type plain Artwork
	return marshalWithTranslations(plain(a), a.Translations)
}

type ArtworkInput struct {
	Title        string     `json:"title"`
	Year         FlexString `json:"year"`
	Technique    string     `json:"technique"`
	Dimensions   string     `json:"dimensions"`
	ImageURL     *string    `json:"image_url"`
	CollectionID *int64     `json:"collection_id"`
	SectionID    *int64     `json:"section_id"`
	OrderIndex   int        `json:"order_index"`
	IsVisible    *bool      `json:"is_visible"`
}

type ArtworkPatch struct {
	Title        Optional[string]     `json:"title"`
	Year         Optional[FlexString] `json:"year"`
	Technique    Optional[string]     `json:"technique"`
	Dimensions   Optional[string]     `json:"dimensions"`
	ImageURL     Optional[string]     `json:"image_url"`
	CollectionID Optional[int64]      `json:"collection_id"`
	SectionID    Optional[int64]      `json:"section_id"`
	OrderIndex   Optional[int]        `json:"order_index"`
	IsVisible    Optional[bool]       `json:"is_visible"`
}

// ArtworkFilter selects artworks for listing. CollectionID takes precedence
// over SectionID; section listings always include hidden rows.
type ArtworkFilter struct {
	CollectionID *int64
	SectionID    *int64
	All          bool
}

var artworkColumns = []string{
	"id", "title", "year", "technique", "dimensions", "image_url",
	"collection_id", "section_id", "order_index", "is_visible", "created_at", "updated_at",
}

func scanArtworkRow(scanner rowScanner) (Artwork, error) {
	var a Artwork
	err := scanner.Scan(&a.ID, &a.Title, &a.Year, &a.Technique, &a.Dimensions, &a.ImageURL,
		&a.CollectionID, &a.SectionID, &a.OrderIndex, &a.IsVisible, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artwork{}, sql.ErrNoRows
		}
		return Artwork{}, fmt.Errorf("failed to scan artwork row: %w", err)
	}
	return a, nil
}

func ListArtworks(ctx context.Context, q Querier, filter ArtworkFilter) ([]Artwork, error) {
	queryBuilder := psql.Select(artworkColumns...).
		From("artworks").
		OrderBy("order_index ASC", "id ASC")

	switch {
	case filter.CollectionID != nil:
		queryBuilder = queryBuilder.Where(sq.Eq{"collection_id": *filter.CollectionID})
		if !filter.All {
			queryBuilder = queryBuilder.Where(sq.Eq{"is_visible": true})
		}
	case filter.SectionID != nil:
		queryBuilder = queryBuilder.Where(sq.Eq{"section_id": *filter.SectionID})
	case !filter.All:
		queryBuilder = queryBuilder.Where(sq.Eq{"is_visible": true})
	}

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListArtworks: %w", err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListArtworks query: %w", err)
	}
	defer rows.Close()

	artworks := []Artwork{}
	for rows.Next() {
		a, err := scanArtworkRow(rows)
		if err != nil {
			return nil, err
		}
		artworks = append(artworks, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artwork rows: %w", err)
	}
	return artworks, nil
}

func GetArtworkByID(ctx context.Context, q Querier, id int64) (Artwork, error) {
	sqlStr, args, err := psql.Select(artworkColumns...).
		From("artworks").
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return Artwork{}, fmt.Errorf("failed to build SQL for GetArtworkByID: %w", err)
	}
	a, err := scanArtworkRow(q.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		return Artwork{}, fmt.Errorf("GetArtworkByID failed for ID %d: %w", id, err)
	}
	return a, nil
}

func CreateArtwork(ctx context.Context, q Querier, in ArtworkInput) (int64, error) {
	visible := true
	if in.IsVisible != nil {
		visible = *in.IsVisible
	}
	ts := now()

	sqlStr, args, err := psql.Insert("artworks").
		Columns("title", "year", "technique", "dimensions", "image_url", "collection_id", "section_id",
			"order_index", "is_visible", "created_at", "updated_at").
		Values(in.Title, string(in.Year), in.Technique, in.Dimensions, in.ImageURL, in.CollectionID, in.SectionID,
			in.OrderIndex, visible, ts, ts).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for CreateArtwork: %w", err)
	}

	var id int64
	if err := q.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to execute CreateArtwork for %q: %w", in.Title, translateError(err))
	}
	return id, nil
}

func UpdateArtwork(ctx context.Context, q Querier, id int64, patch ArtworkPatch) error {
	ub := psql.Update("artworks").Where(sq.Eq{"id": id}).Set("updated_at", now())

	var err error
	if ub, err = setValue(ub, "title", patch.Title, false); err != nil {
		return err
	}
	if patch.Year.Set {
		ub = ub.Set("year", string(patch.Year.Value))
	}
	if ub, err = setValue(ub, "technique", patch.Technique, false); err != nil {
		return err
	}
	if ub, err = setValue(ub, "dimensions", patch.Dimensions, false); err != nil {
		return err
	}
	if ub, err = setValue(ub, "image_url", patch.ImageURL, true); err != nil {
		return err
	}
	if ub, err = setValue(ub, "collection_id", patch.CollectionID, true); err != nil {
		return err
	}
	if ub, err = setValue(ub, "section_id", patch.SectionID, true); err != nil {
		return err
	}
	if ub, err = setValue(ub, "order_index", patch.OrderIndex, false); err != nil {
		return err
	}
	if ub, err = setValue(ub, "is_visible", patch.IsVisible, false); err != nil {
		return err
	}

	return execUpdate(ctx, q, ub, "UpdateArtwork", id)
}

// DeleteArtwork removes the artwork and its translations and returns the deleted row.
func DeleteArtwork(ctx context.Context, q Querier, id int64) (Artwork, error) {
	a, err := GetArtworkByID(ctx, q, id)
	if err != nil {
		return Artwork{}, err
	}
	if err := execDelete(ctx, q, "artworks", id); err != nil {
		return Artwork{}, err
	}
	if err := DeleteTranslations(ctx, q, EntityArtwork, id); err != nil {
		return Artwork{}, err
	}
	return a, nil
}
