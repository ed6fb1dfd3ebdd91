package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.uber.org/multierr"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// TimeLayout matches SQLite's CURRENT_TIMESTAMP text format.
const TimeLayout = "2006-01-02 15:04:05"

// ErrDuplicate is returned when a write violates a unique index.
var ErrDuplicate = errors.New("duplicate value violates unique constraint")

// ErrInvalidValue is returned when a patch carries a value a column cannot hold.
var ErrInvalidValue = errors.New("invalid value")

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// InitDB opens the SQLite database, switches it to WAL and applies pending migrations.
func InitDB(ctx context.Context, dataSourceName string) (*sql.DB, error) {
	dsn := dataSourceName
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// enable write-ahead logging for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func WithTx(ctx context.Context, db *sql.DB, fn func(q Querier) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = multierr.Append(err, fmt.Errorf("rollback failed: %w", rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IsDuplicate reports whether err stems from a unique or primary key violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func translateError(err error) error {
	if err != nil && !errors.Is(err, ErrDuplicate) && IsDuplicate(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func now() string {
	return time.Now().UTC().Format(TimeLayout)
}

func execUpdate(ctx context.Context, q Querier, ub sq.UpdateBuilder, name string, id int64) error {
	sqlStr, args, err := ub.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for %s: %w", name, err)
	}
	result, err := q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute %s for ID %d: %w", name, id, translateError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for %s: %w", name, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func execDelete(ctx context.Context, q Querier, table string, id int64) error {
	sqlStr, args, err := psql.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for delete from %s: %w", table, err)
	}
	result, err := q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to delete %d from %s: %w", id, table, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return err
}

func countRows(ctx context.Context, q Querier, table string) (int, error) {
	sqlStr, args, err := psql.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count SQL for %s: %w", table, err)
	}
	var n int
	if err := q.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// CountRows returns the number of rows in one of the entity tables.
func CountRows(ctx context.Context, q Querier, table string) (int, error) {
	switch table {
	case "artworks", "collections", "sections", "exhibitions", "critics",
		"content_blocks", "newsletter_subscribers", "translations", "media_objects":
		return countRows(ctx, q, table)
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
}
