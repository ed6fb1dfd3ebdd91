package database

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

type ImageReference struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type ImageUsage struct {
	Artworks    []ImageReference `json:"artworks"`
	Collections []ImageReference `json:"collections"`
	Exhibitions []ImageReference `json:"exhibitions"`
}

func (u ImageUsage) Total() int {
	return len(u.Artworks) + len(u.Collections) + len(u.Exhibitions)
}

// FindImageUsage returns the rows whose image_url equals one of the given
// candidate URLs. The check is advisory; nothing prevents deleting an image in use.
func FindImageUsage(ctx context.Context, q Querier, candidates []string) (ImageUsage, error) {
	usage := ImageUsage{
		Artworks:    []ImageReference{},
		Collections: []ImageReference{},
		Exhibitions: []ImageReference{},
	}
	if len(candidates) == 0 {
		return usage, nil
	}

	var err error
	if usage.Artworks, err = imageReferences(ctx, q, "artworks", candidates); err != nil {
		return ImageUsage{}, err
	}
	if usage.Collections, err = imageReferences(ctx, q, "collections", candidates); err != nil {
		return ImageUsage{}, err
	}
	if usage.Exhibitions, err = imageReferences(ctx, q, "exhibitions", candidates); err != nil {
		return ImageUsage{}, err
	}
	return usage, nil
}

func imageReferences(ctx context.Context, q Querier, table string, candidates []string) ([]ImageReference, error) {
	sqlStr, args, err := psql.Select("id", "title").
		From(table).
		Where(sq.Eq{"image_url": candidates}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for image usage in %s: %w", table, err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query image usage in %s: %w", table, err)
	}
	defer rows.Close()

	refs := []ImageReference{}
	for rows.Next() {
		var ref ImageReference
		if err := rows.Scan(&ref.ID, &ref.Title); err != nil {
			return nil, fmt.Errorf("failed to scan image usage row: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating image usage rows: %w", err)
	}
	return refs, nil
}
