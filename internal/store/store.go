package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"

	"github.com/plan-player-analytics/Plan-sub022/internal/querysql"
)

// Default connection settings.
const (
	DefaultDriver       = "sqlite3"
	DefaultDSN          = "plandb.db"
	DefaultMaxOpenConns = 8
)

// Config describes how to reach the database.
type Config struct {
	Driver         string        `yaml:"driver"`
	DSN            string        `yaml:"dsn"`
	MaxOpenConns   int           `yaml:"max_open_conns"`
	ConnectRetries int           `yaml:"connect_retries"`
	ConnectDelay   time.Duration `yaml:"connect_delay"`
}

func (c Config) withDefaults() Config {
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.DSN == "" {
		c.DSN = DefaultDSN
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.ConnectRetries <= 0 {
		c.ConnectRetries = 1
	}
	if c.ConnectDelay <= 0 {
		c.ConnectDelay = 500 * time.Millisecond
	}
	return c
}

// Database is a connection pool plus what is known about its engine.
type Database struct {
	db      *sqlx.DB
	dialect querysql.Dialect
	caps    *Capabilities
}

// Open connects to the database described by cfg, applies engine settings
// and probes savepoint support.
//
// The networked engine is pinged with retries (cfg.ConnectRetries) so a
// database that is still starting does not fail the process.
func Open(ctx context.Context, cfg Config) (*Database, error) {
	cfg = cfg.withDefaults()

	dialect, err := querysql.DialectForDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	rep := repeater.New(&strategy.Backoff{Repeats: cfg.ConnectRetries, Duration: cfg.ConnectDelay, Factor: 2})
	if err := rep.Do(ctx, func() error { return db.PingContext(ctx) }); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect.Embedded() {
		db.SetMaxOpenConns(1) // single writer, avoids SQLITE_BUSY
		db.SetMaxIdleConns(1)
		if err := applyPragmas(ctx, db.DB); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	caps, err := ProbeCapabilities(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("database opened",
		"driver", cfg.Driver,
		"dialect", dialect.String(),
		"savepoints", caps.Savepoints(),
	)
	return &Database{db: db, dialect: dialect, caps: caps}, nil
}

// Close closes the pool.
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Pool returns the underlying pool. Units of work acquire connections from it.
func (d *Database) Pool() *sqlx.DB {
	return d.db
}

// Dialect returns the engine dialect.
func (d *Database) Dialect() querysql.Dialect {
	return d.dialect
}

// Capabilities returns the shared capability flags of this database.
func (d *Database) Capabilities() *Capabilities {
	return d.caps
}

// Select runs stmt and scans all rows into dest (a pointer to a slice).
func (d *Database) Select(ctx context.Context, dest any, stmt querysql.Statement) error {
	return d.db.SelectContext(ctx, dest, d.dialect.Rebind(stmt.SQL), stmt.Args...)
}

// Get runs stmt and scans the single resulting row into dest.
func (d *Database) Get(ctx context.Context, dest any, stmt querysql.Statement) error {
	return d.db.GetContext(ctx, dest, d.dialect.Rebind(stmt.SQL), stmt.Args...)
}

// ExecBestEffort runs each statement outside any unit of work and logs,
// rather than returns, failures. It is meant for idempotent setup such as
// index creation, where a failure does not affect data integrity.
// Returns the number of statements that failed.
func (d *Database) ExecBestEffort(ctx context.Context, stmts ...string) int {
	failed := 0
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			failed++
			slog.Warn("best-effort statement failed", "statement", stmt, "error", err)
		}
	}
	return failed
}

// Exec runs stmt on e (a pool or a transaction), rebinding placeholders.
func Exec(ctx context.Context, e sqlx.ExtContext, stmt querysql.Statement) (sql.Result, error) {
	return e.ExecContext(ctx, e.Rebind(stmt.SQL), stmt.Args...)
}

// SelectContext runs stmt on q and scans all rows into dest.
func SelectContext(ctx context.Context, q sqlx.ExtContext, dest any, stmt querysql.Statement) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(stmt.SQL), stmt.Args...)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
