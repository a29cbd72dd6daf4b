package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	msqlite "modernc.org/sqlite"
)

// pgFeatureNotSupported is the PostgreSQL SQLSTATE for feature_not_supported.
const pgFeatureNotSupported = "0A000"

// sqliteGenericError is SQLITE_ERROR, reported by the modernc driver.
const sqliteGenericError = 1

// IsSavepointUnsupported reports whether err, returned by one of the fixed
// savepoint statements, means the engine does not support savepoints.
//
// PostgreSQL reports feature_not_supported. SQLite has no such code, so only
// SQLITE_ERROR where the parser rejected the statement text counts. Anything
// else (lost connection, cancelled context, missing savepoint) is not a
// capability signal.
func IsSavepointUnsupported(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgFeatureNotSupported
	}

	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code == sqlite3.ErrError && isSyntaxError(sqErr.Error())
	}

	var mErr *msqlite.Error
	if errors.As(err, &mErr) {
		return mErr.Code() == sqliteGenericError && isSyntaxError(mErr.Error())
	}

	return false
}

func isSyntaxError(msg string) bool {
	return strings.Contains(msg, "syntax error")
}

// IsForeignKeyViolation reports whether err is a referential integrity
// failure from any supported engine.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}

	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		return sqErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}

	var mErr *msqlite.Error
	if errors.As(err, &mErr) {
		return mErr.Code() == 787 // SQLITE_CONSTRAINT_FOREIGNKEY
	}

	return false
}
