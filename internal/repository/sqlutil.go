package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/pier11/marina-map/internal/database"
)

// DefaultLimit and MaxLimit bound every list query.
const (
	DefaultLimit = 100
	MaxLimit     = 100
)

// Page is an offset/limit window.
type Page struct {
	Skip  int
	Limit int
}

// normalized clamps the window to what list queries accept.
func (p Page) normalized() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// querier is satisfied by both *sql.DB and *sql.Tx so reads can run inside
// or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// forUpdate returns the row-lock suffix for db's dialect. SQLite has a
// single writer per database, so it needs none.
func forUpdate(db *sql.DB) string {
	if database.IsMySQL(db) {
		return " FOR UPDATE"
	}
	return ""
}

// isDuplicateKey detects unique-constraint violations from either driver.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsLockConflict reports whether err means the store aborted a
// transaction over competing locks: a MySQL deadlock (1213) or lock wait
// timeout (1205), or a busy SQLite database.
func IsLockConflict(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1213 || me.Number == 1205
	}
	return strings.Contains(err.Error(), "database is locked")
}

// likeContains builds a substring pattern for
// `LOWER(col) LIKE LOWER(?) ESCAPE '!'`. Case folding is left to the
// store so both sides are lowered by the same function.
func likeContains(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(s) + "%"
}

// now returns the timestamp stored in created_at/updated_at. MySQL keeps
// microseconds, so finer precision is dropped everywhere.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
