// Package store opens the relational database behind plandb and exposes the
// dataset queries used by reconciliation and filtering.
//
// Two engines are supported through database/sql:
//   - SQLite, embedded, one writer at a time ("sqlite3" cgo driver or the
//     pure Go "sqlite" driver)
//   - PostgreSQL, networked, many writers ("pgx")
//
// # Capabilities
//
// Whether the engine honours savepoints is probed once in Open and kept in a
// Capabilities value shared by every executor built on the Database. The
// flag only ever moves from supported to unsupported.
//
// # Database Configuration (SQLite)
//
//   - WAL mode: concurrent reads during writes
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//   - one open connection: SQLite serialises writers anyway
//
// Writes go through units of work (package engine). Helpers here that write
// take a sqlx.ExtContext so they run on the transaction handed to the unit.
package store
