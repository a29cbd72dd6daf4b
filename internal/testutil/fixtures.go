package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/plan-player-analytics/Plan-sub022/internal/ir"
	"github.com/plan-player-analytics/Plan-sub022/internal/querysql"
	"github.com/plan-player-analytics/Plan-sub022/internal/store"
)

// Fixed business ids of the fixture dataset.
var (
	LobbyUUID    = uuid.MustParse("00000000-0000-7000-8000-00000000a001")
	SurvivalUUID = uuid.MustParse("00000000-0000-7000-8000-00000000a002")

	AliceUUID = uuid.MustParse("00000000-0000-7000-8000-00000000b001")
	BobUUID   = uuid.MustParse("00000000-0000-7000-8000-00000000b002")
	CarolUUID = uuid.MustParse("00000000-0000-7000-8000-00000000b003")
)

// Millis returns the epoch milliseconds of a UTC calendar day at noon.
func Millis(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC).UnixMilli()
}

// Fixture holds the internal ids assigned to the seeded rows.
type Fixture struct {
	Lobby, Survival   int64
	Alice, Bob, Carol int64
}

// Seed writes the fixture dataset:
//
//	Alice  registered 2024-01-10, operator on Lobby, played Lobby 2024-01-10
//	Bob    registered 2024-02-15, on Lobby and Survival (banned there), played Survival 2024-02-20
//	Carol  registered 2024-03-20, on Survival, played Survival 2024-03-21
func Seed(t testing.TB, db *store.Database) Fixture {
	t.Helper()
	ctx := context.Background()
	pool := db.Pool()

	exec := func(stmt querysql.Statement, err error) {
		t.Helper()
		require.NoError(t, err)
		_, err = store.Exec(ctx, pool, stmt)
		require.NoError(t, err)
	}

	exec(store.InsertServer(&ir.Server{UUID: LobbyUUID, Name: "Lobby"}))
	exec(store.InsertServer(&ir.Server{UUID: SurvivalUUID, Name: "Survival"}))
	exec(store.InsertUser(&ir.User{UUID: AliceUUID, Name: "Alice", Registered: Millis(2024, time.January, 10)}))
	exec(store.InsertUser(&ir.User{UUID: BobUUID, Name: "Bob", Registered: Millis(2024, time.February, 15)}))
	exec(store.InsertUser(&ir.User{UUID: CarolUUID, Name: "Carol", Registered: Millis(2024, time.March, 20)}))

	servers, err := store.ServerLookup(ctx, pool)
	require.NoError(t, err)
	users, err := store.UserLookup(ctx, pool)
	require.NoError(t, err)

	f := Fixture{}
	f.Lobby, _ = servers.Find(LobbyUUID)
	f.Survival, _ = servers.Find(SurvivalUUID)
	f.Alice, _ = users.Find(AliceUUID)
	f.Bob, _ = users.Find(BobUUID)
	f.Carol, _ = users.Find(CarolUUID)

	exec(store.InsertUserInfo(&ir.UserInfo{UserID: f.Alice, ServerID: f.Lobby, Registered: Millis(2024, time.January, 10), Operator: true}))
	exec(store.InsertUserInfo(&ir.UserInfo{UserID: f.Bob, ServerID: f.Lobby, Registered: Millis(2024, time.February, 15)}))
	exec(store.InsertUserInfo(&ir.UserInfo{UserID: f.Bob, ServerID: f.Survival, Registered: Millis(2024, time.February, 20), Banned: true}))
	exec(store.InsertUserInfo(&ir.UserInfo{UserID: f.Carol, ServerID: f.Survival, Registered: Millis(2024, time.March, 20)}))

	hour := time.Hour.Milliseconds()
	alice := Millis(2024, time.January, 10)
	bob := Millis(2024, time.February, 20)
	carol := Millis(2024, time.March, 21)
	exec(store.InsertSession(&ir.Session{UserID: f.Alice, ServerID: f.Lobby, Start: alice, End: alice + hour}))
	exec(store.InsertSession(&ir.Session{UserID: f.Bob, ServerID: f.Survival, Start: bob, End: bob + 2*hour, AFKTime: 60_000}))
	exec(store.InsertSession(&ir.Session{UserID: f.Carol, ServerID: f.Survival, Start: carol, End: carol + hour}))

	return f
}
