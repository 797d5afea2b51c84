package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"project-hub-backend/pkg/errs"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
	"golang.org/x/text/unicode/norm"
)

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(dialectSQLite, sqlx.QUESTION)
}

// SQLDatabase implements DatabaseInterface on top of sqlx. Queries are
// written with ? placeholders and rebound for the active driver.
type SQLDatabase struct {
	db      *sqlx.DB
	dialect string
	now     func() time.Time
}

// txExt is satisfied by both *sqlx.DB and *sqlx.Tx.
type txExt = sqlx.ExtContext

func newSQLDatabase(db *sqlx.DB, dialect string) *SQLDatabase {
	return &SQLDatabase{
		db:      db,
		dialect: dialect,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

// HealthCheck 检查数据库连接
func (s *SQLDatabase) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 关闭数据库连接
func (s *SQLDatabase) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for tooling.
func (s *SQLDatabase) DB() *sqlx.DB {
	return s.db
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *SQLDatabase) withTx(ctx context.Context, fn func(tx txExt) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func get(ctx context.Context, q txExt, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
}

func sel(ctx context.Context, q txExt, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

func exec(ctx context.Context, q txExt, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// selectIn expands a single IN (?) clause. Empty input yields no rows.
func selectIn[T any](ctx context.Context, q txExt, dest *[]T, query string, ids []string, args ...any) error {
	if len(ids) == 0 {
		return nil
	}
	expanded, inArgs, err := sqlx.In(query, append([]any{ids}, args...)...)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(expanded), inArgs...)
}

func namedExec(ctx context.Context, q txExt, query string, arg any) error {
	_, err := sqlx.NamedExecContext(ctx, q, query, arg)
	return err
}

func namedExecCount(ctx context.Context, q txExt, query string, arg any) (int64, error) {
	res, err := sqlx.NamedExecContext(ctx, q, query, arg)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func columns(cols []string) string {
	return strings.Join(cols, ", ")
}

func insertQuery(table string, cols []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)", table, columns(cols), strings.Join(cols, ", :"))
}

func updateQuery(table string, cols []string, key string) string {
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = :" + c
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = :%s", table, strings.Join(sets, ", "), key, key)
}

// utc stores timestamps in one zone; SQLite compares them as text.
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// likePattern folds and escapes q for LOWER(col) LIKE ? ESCAPE '\'.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(foldCase(q)) + "%"
}

// foldCase is the case folding used for search on both sides of LIKE.
func foldCase(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// translateError maps driver errors onto the errs taxonomy.
func translateError(err error, kind, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return errs.NotFound(kind, id)
	case isUniqueViolation(err):
		return errs.Invalid("%s %q already exists", kind, id)
	case isForeignKeyViolation(err):
		return errs.Invalid("%s references a record that does not exist", kind)
	}
	return fmt.Errorf("%s: %w", kind, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "FOREIGN KEY")
	}
	return false
}

func affectedOrNotFound(n int64, kind, id string) error {
	if n == 0 {
		return errs.NotFound(kind, id)
	}
	return nil
}
