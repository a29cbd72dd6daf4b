package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plan-player-analytics/Plan-sub022/internal/store"
)

// OpenDB opens an empty SQLite database with the schema applied in a
// temporary directory. It is closed when the test ends.
func OpenDB(t testing.TB) *store.Database {
	t.Helper()
	return OpenDBWithDriver(t, "sqlite3")
}

// OpenDBWithDriver is OpenDB for a specific embedded driver ("sqlite3" or "sqlite").
func OpenDBWithDriver(t testing.TB, driver string) *store.Database {
	t.Helper()
	ctx := context.Background()

	db, err := store.Open(ctx, store.Config{
		Driver: driver,
		DSN:    filepath.Join(t.TempDir(), "plan.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tx, err := db.Pool().BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.ApplySchema(ctx, tx, db.Dialect()))
	require.NoError(t, tx.Commit())
	return db
}

// Count returns the number of rows in table.
func Count(t testing.TB, db *store.Database, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Pool().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
