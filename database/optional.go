package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"
)

// Optional tracks whether a JSON field was present in a request body and
// whether it was an explicit null, so partial updates can tell "omitted"
// apart from "set to the zero value".
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// setValue adds the column to the update when present. A null clears nullable
// columns; non-nullable ones reject it.
func setValue[T any](ub sq.UpdateBuilder, column string, o Optional[T], nullable bool) (sq.UpdateBuilder, error) {
	if !o.Set {
		return ub, nil
	}
	if o.Null {
		if !nullable {
			return ub, fmt.Errorf("%w: %s cannot be null", ErrInvalidValue, column)
		}
		return ub.Set(column, nil), nil
	}
	return ub.Set(column, o.Value), nil
}

// FlexString accepts either a JSON string or a JSON number, e.g. year: 2021 or "2019-2021".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}
