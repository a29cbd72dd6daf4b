package backup

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plan-player-analytics/Plan-sub022/internal/engine"
	"github.com/plan-player-analytics/Plan-sub022/internal/ir"
	"github.com/plan-player-analytics/Plan-sub022/internal/lookup"
	"github.com/plan-player-analytics/Plan-sub022/internal/querysql"
	"github.com/plan-player-analytics/Plan-sub022/internal/store"
	"github.com/plan-player-analytics/Plan-sub022/internal/testutil"
)

func exportSeeded(t *testing.T) *Snapshot {
	t.Helper()
	src := testutil.OpenDB(t)
	testutil.Seed(t, src)

	snap, err := Export(context.Background(), src.Pool())
	require.NoError(t, err)
	return snap
}

func TestExport_Golden(t *testing.T) {
	snap := exportSeeded(t)

	var buf bytes.Buffer
	require.NoError(t, snap.Encode(&buf))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "seeded_snapshot", buf.Bytes())

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)
}

func TestDecode_RejectsVersion(t *testing.T) {
	_, err := Decode(bytes.NewBufferString(`{"version": "0", "servers": []}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestMerge_TranslatesIDs(t *testing.T) {
	snap := exportSeeded(t)
	ctx := context.Background()

	// The destination already knows Bob and a server of its own, so every
	// internal id differs from the snapshot's.
	dst := testutil.OpenDB(t)
	mustExec(t, dst)(store.InsertServer(&ir.Server{UUID: uuid.MustParse("00000000-0000-7000-8000-00000000c001"), Name: "Creative"}))
	mustExec(t, dst)(store.InsertUser(&ir.User{UUID: testutil.BobUUID, Name: "Bob", Registered: 1}))

	exec := engine.NewExecutor(dst)
	report, err := Merge(ctx, exec, snap)
	require.NoError(t, err)

	assert.Equal(t, 2, report.ServersAdded)
	assert.Equal(t, 2, report.UsersAdded, "Bob already exists")
	assert.Equal(t, 4, report.UserInfoAdded)
	assert.Equal(t, 3, report.SessionsAdded)
	require.Len(t, report.Remaps, 4)
	for _, r := range report.Remaps {
		assert.Zero(t, r.Unmapped, r.Field)
	}

	users, err := store.UserLookup(ctx, dst.Pool())
	require.NoError(t, err)
	servers, err := store.ServerLookup(ctx, dst.Pool())
	require.NoError(t, err)
	bob, _ := users.Find(testutil.BobUUID)
	survival, _ := servers.Find(testutil.SurvivalUUID)
	assert.Equal(t, int64(1), bob, "Bob keeps the destination id")

	sessions, err := store.LoadSessions(ctx, dst.Pool())
	require.NoError(t, err)
	var bobSessions []*ir.Session
	for _, s := range sessions {
		if s.UserID == bob {
			bobSessions = append(bobSessions, s)
		}
	}
	require.Len(t, bobSessions, 1)
	assert.Equal(t, survival, bobSessions[0].ServerID)

	// The snapshot itself is not modified by the merge.
	assert.Equal(t, int64(2), snap.Sessions[1].UserID)

	again, err := Merge(ctx, exec, snap)
	require.NoError(t, err)
	assert.Zero(t, again.ServersAdded+again.UsersAdded+again.UserInfoAdded+again.SessionsAdded)
	assert.Equal(t, 4, again.UserInfoSkipped)
	assert.Equal(t, 3, again.SessionsSkipped)
}

func TestMerge_DanglingReferenceRollsBack(t *testing.T) {
	snap := exportSeeded(t)
	snap.Sessions = append(snap.Sessions, &ir.Session{ID: 99, UserID: 77, ServerID: 1, Start: 1, End: 2})

	dst := testutil.OpenDB(t)
	_, err := Merge(context.Background(), engine.NewExecutor(dst), snap)
	require.Error(t, err)
	assert.True(t, engine.IsOperationError(err))

	var ue *lookup.UnmappedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "sessions.user_id", ue.Field)
	assert.Equal(t, []int64{77}, ue.IDs)

	for _, table := range []string{ir.TableServers, ir.TableUsers, ir.TableUserInfo, ir.TableSessions} {
		assert.Zero(t, testutil.Count(t, dst, table), "%s must be rolled back", table)
	}
}

func TestMerge_EmptySnapshot(t *testing.T) {
	dst := testutil.OpenDB(t)
	report, err := Merge(context.Background(), engine.NewExecutor(dst), &Snapshot{Version: ir.SnapshotVersion})
	require.NoError(t, err)
	assert.Equal(t, MergeReport{}, report)
}

func mustExec(t *testing.T, db *store.Database) func(querysql.Statement, error) {
	return func(stmt querysql.Statement, err error) {
		t.Helper()
		require.NoError(t, err)
		_, err = store.Exec(context.Background(), db.Pool(), stmt)
		require.NoError(t, err)
	}
}
