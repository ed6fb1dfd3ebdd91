package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

type Section struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`

	Translations Translations `json:"-"`
}

func (s Section) TranslationID() int64 { return s.ID }

func (s Section) WithTranslations(tr Translations) Section {
	s.Translations = tr.clone()
	return s
}

func (s Section) MarshalJSON() ([]byte, error) {
	type plain Section
	return marshalWithTranslations(plain(s), s.Translations)
}

type SectionInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index"`
}

type SectionPatch struct {
	Name        Optional[string] `json:"name"`
	Slug        Optional[string] `json:"slug"`
	Description Optional[string] `json:"description"`
	OrderIndex  Optional[int]    `json:"order_index"`
}

var sectionColumns = []string{"id", "name", "slug", "description", "order_index", "created_at", "updated_at"}

func scanSectionRow(scanner rowScanner) (Section, error) {
	var s Section
	err := scanner.Scan(&s.ID, &s.Name, &s.Slug, &s.Description, &s.OrderIndex, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Section{}, sql.ErrNoRows
		}
		return Section{}, fmt.Errorf("failed to scan section row: %w", err)
	}
	return s, nil
}

func ListSections(ctx context.Context, q Querier) ([]Section, error) {
	sqlStr, args, err := psql.Select(sectionColumns...).
		From("sections").
		OrderBy("order_index ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListSections: %w", err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListSections query: %w", err)
	}
	defer rows.Close()

	sections := []Section{}
	for rows.Next() {
		s, err := scanSectionRow(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating section rows: %w", err)
	}
	return sections, nil
}

func GetSectionByID(ctx context.Context, q Querier, id int64) (Section, error) {
	sqlStr, args, err := psql.Select(sectionColumns...).
		From("sections").
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return Section{}, fmt.Errorf("failed to build SQL for GetSectionByID: %w", err)
	}
	s, err := scanSectionRow(q.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		return Section{}, fmt.Errorf("GetSectionByID failed for ID %d: %w", id, err)
	}
	return s, nil
}

func CreateSection(ctx context.Context, q Querier, in SectionInput) (int64, error) {
	ts := now()
	sqlStr, args, err := psql.Insert("sections").
		Columns("name", "slug", "description", "order_index", "created_at", "updated_at").
		Values(in.Name, in.Slug, in.Description, in.OrderIndex, ts, ts).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for CreateSection: %w", err)
	}

	var id int64
	if err := q.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to execute CreateSection for %s: %w", in.Name, translateError(err))
	}
	return id, nil
}

func UpdateSection(ctx context.Context, q Querier, id int64, patch SectionPatch) error {
	ub := psql.Update("sections").Where(sq.Eq{"id": id}).Set("updated_at", now())

	var err error
	if ub, err = setValue(ub, "name", patch.Name, false); err != nil {
		return err
	}
	if ub, err = setValue(ub, "slug", patch.Slug, false); err != nil {
		return err
	}
	if ub, err = setValue(ub, "description", patch.Description, false); err != nil {
		return err
	}
	if ub, err = setValue(ub, "order_index", patch.OrderIndex, false); err != nil {
		return err
	}

	return execUpdate(ctx, q, ub, "UpdateSection", id)
}

func DeleteSection(ctx context.Context, q Querier, id int64) (Section, error) {
	s, err := GetSectionByID(ctx, q, id)
	if err != nil {
		return Section{}, err
	}
	if err := execDelete(ctx, q, "sections", id); err != nil {
		return Section{}, err
	}
	if err := DeleteTranslations(ctx, q, EntitySection, id); err != nil {
		return Section{}, err
	}
	return s, nil
}
