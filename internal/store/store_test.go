package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plan-player-analytics/Plan-sub022/internal/ir"
	"github.com/plan-player-analytics/Plan-sub022/internal/querysql"
)

func openTestDB(t *testing.T, driver string) *Database {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, Config{Driver: driver, DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tx, err := db.Pool().BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, ApplySchema(ctx, tx, db.Dialect()))
	require.NoError(t, tx.Commit())
	return db
}

func TestOpen(t *testing.T) {
	db := openTestDB(t, "sqlite3")

	var fk int
	if err := db.Pool().QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}

	var mode string
	if err := db.Pool().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	assert.Equal(t, querysql.SQLite, db.Dialect())
	assert.True(t, db.Capabilities().Savepoints(), "sqlite supports savepoints")
}

func TestOpen_PureGoDriver(t *testing.T) {
	db := openTestDB(t, "sqlite")
	assert.Equal(t, querysql.SQLite, db.Dialect())
	assert.True(t, db.Capabilities().Savepoints())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql", DSN: "x"})
	assert.Error(t, err)
}

func TestSchema_CreatesTables(t *testing.T) {
	db := openTestDB(t, "sqlite3")

	for _, table := range []string{ir.TableServers, ir.TableUsers, ir.TableUserInfo, ir.TableSessions} {
		var name string
		err := db.Pool().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestSchema_Postgres(t *testing.T) {
	stmts, err := Schema(querysql.Postgres)
	require.NoError(t, err)
	require.Len(t, stmts, 4)
	assert.Contains(t, stmts[0], "GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY")
	assert.Contains(t, stmts[2], "FOREIGN KEY(user_id) REFERENCES plan_users(id)")
}

func TestExecBestEffort(t *testing.T) {
	db := openTestDB(t, "sqlite3")
	ctx := context.Background()

	assert.Equal(t, 0, db.ExecBestEffort(ctx, Indexes()...))

	stmts := append([]string{"CREATE INDEX broken ON missing_table (x)"}, Indexes()...)
	assert.Equal(t, 1, db.ExecBestEffort(ctx, stmts...), "failures are counted, not returned")
}

func TestDataset_InsertAndLoad(t *testing.T) {
	db := openTestDB(t, "sqlite3")
	ctx := context.Background()
	pool := db.Pool()

	serverUUID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	userUUID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	stmt, err := InsertServer(&ir.Server{UUID: serverUUID, Name: " Lobby "})
	require.NoError(t, err)
	_, err = Exec(ctx, pool, stmt)
	require.NoError(t, err)

	stmt, err = InsertUser(&ir.User{UUID: userUUID, Name: "Steve", Registered: 1000})
	require.NoError(t, err)
	_, err = Exec(ctx, pool, stmt)
	require.NoError(t, err)

	servers, err := ServerLookup(ctx, pool)
	require.NoError(t, err)
	serverID, ok := servers.Find(serverUUID)
	require.True(t, ok)

	users, err := UserLookup(ctx, pool)
	require.NoError(t, err)
	userID, ok := users.Find(userUUID)
	require.True(t, ok)

	stmt, err = InsertUserInfo(&ir.UserInfo{UserID: userID, ServerID: serverID, Registered: 1000, Operator: true})
	require.NoError(t, err)
	_, err = Exec(ctx, pool, stmt)
	require.NoError(t, err)

	stmt, err = InsertSession(&ir.Session{UserID: userID, ServerID: serverID, Start: 1000, End: 5000, AFKTime: 10})
	require.NoError(t, err)
	_, err = Exec(ctx, pool, stmt)
	require.NoError(t, err)

	loadedServers, err := LoadServers(ctx, pool)
	require.NoError(t, err)
	require.Len(t, loadedServers, 1)
	assert.Equal(t, "Lobby", loadedServers[0].Name, "names are normalised on insert")
	assert.Equal(t, serverUUID, loadedServers[0].UUID)

	info, err := LoadUserInfo(ctx, pool)
	require.NoError(t, err)
	require.Len(t, info, 1)
	assert.True(t, info[0].Operator)
	assert.False(t, info[0].Banned)

	sessions, err := LoadSessions(ctx, pool)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(4000), sessions[0].End-sessions[0].Start)
}

func TestDataset_ForeignKeyEnforced(t *testing.T) {
	db := openTestDB(t, "sqlite3")

	stmt, err := InsertSession(&ir.Session{UserID: 42, ServerID: 42, Start: 1, End: 2})
	require.NoError(t, err)
	_, err = Exec(context.Background(), db.Pool(), stmt)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err), "got %v", err)
}

func TestCapabilities_DisableIsMonotonic(t *testing.T) {
	caps := NewCapabilities(true)
	assert.True(t, caps.Savepoints())

	assert.True(t, caps.DisableSavepoints(), "first call flips the flag")
	assert.False(t, caps.DisableSavepoints(), "later calls observe it already cleared")
	assert.False(t, caps.Savepoints())

	assert.False(t, NewCapabilities(false).DisableSavepoints())
}

func TestCapabilities_ConcurrentDisableFlipsOnce(t *testing.T) {
	caps := NewCapabilities(true)

	const workers = 32
	var flipped atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if caps.DisableSavepoints() {
				flipped.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), flipped.Load(), "exactly one caller observes the flip")
	assert.False(t, caps.Savepoints())
}

func TestIsSavepointUnsupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"pg feature not supported", &pgconn.PgError{Code: "0A000"}, true},
		{"pg wrapped", fmt.Errorf("savepoint: %w", &pgconn.PgError{Code: "0A000"}), true},
		{"pg other", &pgconn.PgError{Code: "40001"}, false},
		{"sqlite generic without syntax error", sqlite3.Error{Code: sqlite3.ErrError}, false},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, false},
		{"context", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSavepointUnsupported(tt.err))
		})
	}
}

func TestIsSavepointUnsupported_EngineErrors(t *testing.T) {
	for _, driver := range []string{"sqlite3", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			db := openTestDB(t, driver)
			ctx := context.Background()

			tx, err := db.Pool().BeginTxx(ctx, nil)
			require.NoError(t, err)
			defer tx.Rollback()

			_, err = tx.ExecContext(ctx, "SAVEPOIN sp_rejected")
			require.Error(t, err)
			assert.True(t, IsSavepointUnsupported(err), "rejected statement text: %v", err)

			_, err = tx.ExecContext(ctx, querysql.RollbackToSavepointSQL("sp_missing"))
			require.Error(t, err)
			assert.False(t, IsSavepointUnsupported(err), "missing savepoint is a runtime error: %v", err)

			_, err = tx.ExecContext(ctx, "SELECT * FROM no_such_table")
			require.Error(t, err)
			assert.False(t, IsSavepointUnsupported(err), "other SQLITE_ERROR: %v", err)
		})
	}
}
