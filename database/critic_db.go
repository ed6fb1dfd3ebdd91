package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

type Critic struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Text       string `json:"text"`
	OrderIndex int    `json:"order_index"`
	IsVisible  bool   `json:"is_visible"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`

	Translations Translations `json:"-"`
}

func (c Critic) TranslationID() int64 { return c.ID }

func (c Critic) WithTranslations(tr Translations) Critic {
	c.Translations = tr.clone()
	return c
}

func (c Critic) MarshalJSON() ([]byte, error) {
	type plain Critic
	return marshalWithTranslations(plain(c), c.Translations)
}

type CriticInput struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Text       string `json:"text"`
	OrderIndex int    `json:"order_index"`
	IsVisible  *bool  `json:"is_visible"`
}

type CriticPatch struct {
	Name       Optional[string] `json:"name"`
	Role       Optional[string] `json:"role"`
	Text       Optional[string] `json:"text"`
	OrderIndex Optional[int]    `json:"order_index"`
	IsVisible  Optional[bool]   `json:"is_visible"`
}

var criticColumns = []string{"id", "name", "role", "text", "order_index", "is_visible", "created_at", "updated_at"}

func scanCriticRow(scanner rowScanner) (Critic, error) {
	var c Critic
	err := scanner.Scan(&c.ID, &c.Name, &c.Role, &c.Text, &c.OrderIndex, &c.IsVisible, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Critic{}, sql.ErrNoRows
		}
		return Critic{}, fmt.Errorf("failed to scan critic row: %w", err)
	}
	return c, nil
}

func ListCritics(ctx context.Context, q Querier) ([]Critic, error) {
	sqlStr, args, err := psql.Select(criticColumns...).
		From("critics").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListCritics: %w", err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListCritics query: %w", err)
	}
	defer rows.Close()

	critics := []Critic{}
	for rows.Next() {
		c, err := scanCriticRow(rows)
		if err != nil {
			return nil, err
		}
		critics = append(critics, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating critic rows: %w", err)
	}
	return critics, nil
}

func GetCriticByID(ctx context.Context, q Querier, id int64) (Critic, error) {
	sqlStr, args, err := psql.Select(criticColumns...).
		From("critics").
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return Critic{}, fmt.Errorf("failed to build SQL for GetCriticByID: %w", err)
	}
	c, err := scanCriticRow(q.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		return Critic{}, fmt.Errorf("GetCriticByID failed for ID %d: %w", id, err)
	}
	return c, nil
}

func CreateCritic(ctx context.Context, q Querier, in CriticInput) (int64, error) {
	visible := true
	if in.IsVisible != nil {
		visible = *in.IsVisible
	}
	ts := now()

	sqlStr, args, err := psql.Insert("critics").
		Columns("name", "role", "text", "order_index", "is_visible", "created_at", "updated_at").
		Values(in.Name, in.Role, in.Text, in.OrderIndex, visible, ts, ts).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for CreateCritic: %w", err)
	}

	var id int64
	if err := q.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to execute CreateCritic for %s: %w", in.Name, translateError(err))
	}
	return id, nil
}

func UpdateCritic(ctx context.Context, q Querier, id int64, patch CriticPatch) error {
	ub := psql.Update("critics").Where(sq.Eq{"id": id}).Set("updated_at", now())

	var err error
	if ub, err = setValue(ub, "name", patch.Name, false); err != nil {
		return err
	}
	if ub, err = setValue(ub, "role", patch.Role, false); err != nil {
		return err
	}
	if ub, err = setValue(ub, "text", patch.Text, false); err != nil {
		return err
	}
	if ub, err = setValue(ub, "order_index", patch.OrderIndex, false); err != nil {
		return err
	}
	if ub, err = setValue(ub, "is_visible", patch.IsVisible, false); err != nil {
		return err
	}

	return execUpdate(ctx, q, ub, "UpdateCritic", id)
}

func DeleteCritic(ctx context.Context, q Querier, id int64) (Critic, error) {
	c, err := GetCriticByID(ctx, q, id)
	if err != nil {
		return Critic{}, err
	}
	if err := execDelete(ctx, q, "critics", id); err != nil {
		return Critic{}, err
	}
	if err := DeleteTranslations(ctx, q, EntityCritic, id); err != nil {
		return Critic{}, err
	}
	return c, nil
}
