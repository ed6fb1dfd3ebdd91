package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Exhibition keeps only base-language columns; localized title, subtitle,
// description, location and info live in the translations table.
type Exhibition struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Location    string  `json:"location"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Info        string  `json:"info"`
	Website     string  `json:"website"`
	ImageURL    *string `json:"image_url"`
	Slug        *string `json:"slug"`
	OrderIndex  int     `json:"order_index"`
	IsVisible   bool    `json:"is_visible"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`

	Translations Translations `json:"-"`
}

func (e Exhibition) TranslationID() int64 { return e.ID }

func (e Exhibition) WithTranslations(tr Translations) Exhibition {
	e.Translations = tr.clone()
	return e
}

func (e Exhibition) MarshalJSON() ([]byte, error) {
	type plain Exhibition
	return marshalWithTranslations(plain(e), e.Translations)
}

type ExhibitionInput struct {
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Location    string  `json:"location"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Info        string  `json:"info"`
	Website     string  `json:"website"`
	ImageURL    *string `json:"image_url"`
	Slug        *string `json:"slug"`
	OrderIndex  int     `json:"order_index"`
	IsVisible   *bool   `json:"is_visible"`
}

type ExhibitionPatch struct {
	Title       Optional[string] `json:"title"`
	Subtitle    Optional[string] `json:"subtitle"`
	Location    Optional[string] `json:"location"`
	Date        Optional[string] `json:"date"`
	Description Optional[string] `json:"description"`
	Info        Optional[string] `json:"info"`
	Website     Optional[string] `json:"website"`
	ImageURL    Optional[string] `json:"image_url"`
	Slug        Optional[string] `json:"slug"`
	OrderIndex  Optional[int]    `json:"order_index"`
	IsVisible   Optional[bool]   `json:"is_visible"`
}

var exhibitionColumns = []string{
	"id", "title", "subtitle", "location", "date", "description", "info", "website",
	"image_url", "slug", "order_index", "is_visible", "created_at", "updated_at",
}

func scanExhibitionRow(scanner rowScanner) (Exhibition, error) {
	var e Exhibition
	err := scanner.Scan(&e.ID, &e.Title, &e.Subtitle, &e.Location, &e.Date, &e.Description, &e.Info, &e.Website,
		&e.ImageURL, &e.Slug, &e.OrderIndex, &e.IsVisible, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exhibition{}, sql.ErrNoRows
		}
		return Exhibition{}, fmt.Errorf("failed to scan exhibition row: %w", err)
	}
	return e, nil
}

// ListExhibitions orders by the free-text date column, newest first.
func ListExhibitions(ctx context.Context, q Querier) ([]Exhibition, error) {
	sqlStr, args, err := psql.Select(exhibitionColumns...).
		From("exhibitions").
		OrderBy("date DESC", "order_index ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListExhibitions: %w", err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListExhibitions query: %w", err)
	}
	defer rows.Close()

	exhibitions := []Exhibition{}
	for rows.Next() {
		e, err := scanExhibitionRow(rows)
		if err != nil {
			return nil, err
		}
		exhibitions = append(exhibitions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exhibition rows: %w", err)
	}
	return exhibitions, nil
}

func getExhibition(ctx context.Context, q Querier, where sq.Eq) (Exhibition, error) {
	sqlStr, args, err := psql.Select(exhibitionColumns...).
		From("exhibitions").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return Exhibition{}, fmt.Errorf("failed to build SQL for exhibition lookup: %w", err)
	}
	return scanExhibitionRow(q.QueryRowContext(ctx, sqlStr, args...))
}

func GetExhibitionByID(ctx context.Context, q Querier, id int64) (Exhibition, error) {
	e, err := getExhibition(ctx, q, sq.Eq{"id": id})
	if err != nil {
		return Exhibition{}, fmt.Errorf("GetExhibitionByID failed for ID %d: %w", id, err)
	}
	return e, nil
}

func GetExhibitionBySlug(ctx context.Context, q Querier, slug string) (Exhibition, error) {
	e, err := getExhibition(ctx, q, sq.Eq{"slug": slug})
	if err != nil {
		return Exhibition{}, fmt.Errorf("GetExhibitionBySlug failed for slug %s: %w", slug, err)
	}
	return e, nil
}

func CreateExhibition(ctx context.Context, q Querier, in ExhibitionInput) (int64, error) {
	visible := true
	if in.IsVisible != nil {
		visible = *in.IsVisible
	}
	if in.Slug != nil && *in.Slug == "" {
		in.Slug = nil
	}
	ts := now()

	sqlStr, args, err := psql.Insert("exhibitions").
		Columns("title", "subtitle", "location", "date", "description", "info", "website",
			"image_url", "slug", "order_index", "is_visible", "created_at", "updated_at").
		Values(in.Title, in.Subtitle, in.Location, in.Date, in.Description, in.Info, in.Website,
			in.ImageURL, in.Slug, in.OrderIndex, visible, ts, ts).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for CreateExhibition: %w", err)
	}

	var id int64
	if err := q.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to execute CreateExhibition for %s: %w", in.Title, translateError(err))
	}
	return id, nil
}

func UpdateExhibition(ctx context.Context, q Querier, id int64, patch ExhibitionPatch) error {
	ub := psql.Update("exhibitions").Where(sq.Eq{"id": id}).Set("updated_at", now())

	if patch.Slug.Set && !patch.Slug.Null && patch.Slug.Value == "" {
		patch.Slug = Null[string]()
	}

	var err error
	for _, field := range []struct {
		column   string
		value    Optional[string]
		nullable bool
	}{
		{"title", patch.Title, false},
		{"subtitle", patch.Subtitle, false},
		{"location", patch.Location, false},
		{"date", patch.Date, false},
		{"description", patch.Description, false},
		{"info", patch.Info, false},
		{"website", patch.Website, false},
		{"image_url", patch.ImageURL, true},
		{"slug", patch.Slug, true},
	} {
		if ub, err = setValue(ub, field.column, field.value, field.nullable); err != nil {
			return err
		}
	}
	if ub, err = setValue(ub, "order_index", patch.OrderIndex, false); err != nil {
		return err
	}
	if ub, err = setValue(ub, "is_visible", patch.IsVisible, false); err != nil {
		return err
	}

	return execUpdate(ctx, q, ub, "UpdateExhibition", id)
}

func DeleteExhibition(ctx context.Context, q Querier, id int64) (Exhibition, error) {
	e, err := GetExhibitionByID(ctx, q, id)
	if err != nil {
		return Exhibition{}, err
	}
	if err := execDelete(ctx, q, "exhibitions", id); err != nil {
		return Exhibition{}, err
	}
	if err := DeleteTranslations(ctx, q, EntityExhibition, id); err != nil {
		return Exhibition{}, err
	}
	return e, nil
}
