package querysql

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Dialect identifies the SQL engine a statement targets.
type Dialect int

const (
	// SQLite is the embedded, single-writer engine.
	SQLite Dialect = iota + 1
	// Postgres is the networked, multi-writer engine.
	Postgres
)

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// Embedded reports whether the engine runs in-process.
func (d Dialect) Embedded() bool {
	return d == SQLite
}

// DialectForDriver maps a database/sql driver name to its dialect.
func DialectForDriver(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "pgx", "postgres":
		return Postgres, nil
	default:
		return 0, fmt.Errorf("unsupported driver %q", driver)
	}
}

// BindType returns the sqlx placeholder style of the dialect.
func (d Dialect) BindType() int {
	if d == Postgres {
		return sqlx.DOLLAR
	}
	return sqlx.QUESTION
}

// Rebind rewrites ? placeholders into the dialect's bind style.
func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(d.BindType(), query)
}

// PrimaryKeyColumn returns the column definition of an auto-assigned integer
// primary key. This is the single point where DDL differs between engines.
func PrimaryKeyColumn(d Dialect, column string) string {
	if d == Postgres {
		return column + " integer GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"
	}
	return column + " integer PRIMARY KEY"
}

// SavepointSQL returns the statement that creates a savepoint.
func SavepointSQL(name string) string {
	return "SAVEPOINT " + name
}

// RollbackToSavepointSQL returns the statement that rolls back to a savepoint.
func RollbackToSavepointSQL(name string) string {
	return "ROLLBACK TO SAVEPOINT " + name
}

// ReleaseSavepointSQL returns the statement that releases a savepoint.
func ReleaseSavepointSQL(name string) string {
	return "RELEASE SAVEPOINT " + name
}
