package lookup

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	u1 = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	u2 = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	u3 = uuid.MustParse("00000000-0000-0000-0000-000000000003")
)

func TestTable_FindUnset(t *testing.T) {
	tbl := New()
	_, ok := tbl.Find(u1)
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Len())
}

func TestTable_PutLastWriteWins(t *testing.T) {
	tbl := New()
	tbl.Put(u1, 1)
	tbl.Put(u1, 7)

	id, ok := tbl.Find(u1)
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_FindFunc(t *testing.T) {
	tbl := New()
	tbl.Put(u1, 1)
	tbl.Put(u2, 2)

	id, ok := tbl.FindFunc(func(u uuid.UUID) bool { return u == u2 })
	require.True(t, ok)
	assert.Equal(t, int64(2), id)

	_, ok = tbl.FindFunc(func(u uuid.UUID) bool { return u == u3 })
	assert.False(t, ok)
}

func TestTable_Each(t *testing.T) {
	tbl := NewWithCapacity(2)
	tbl.Put(u1, 1)
	tbl.Put(u2, 2)

	seen := map[uuid.UUID]int64{}
	tbl.Each(func(u uuid.UUID, id int64) { seen[u] = id })
	assert.Equal(t, map[uuid.UUID]int64{u1: 1, u2: 2}, seen)
}

func TestReconcile(t *testing.T) {
	a := New()
	a.Put(u1, 1)
	a.Put(u2, 2)

	b := New()
	b.Put(u1, 10)
	b.Put(u3, 30)

	assert.Equal(t, IDMap{10: 1}, a.Reconcile(b))
	assert.Equal(t, IDMap{1: 10}, b.Reconcile(a))
}

func TestReconcile_ProbeSideDoesNotChangeDirection(t *testing.T) {
	small := New()
	small.Put(u1, 1)

	large := New()
	large.Put(u1, 100)
	large.Put(u2, 200)
	large.Put(u3, 300)

	// small.Reconcile(large): large ids → small ids, whichever side is probed.
	assert.Equal(t, IDMap{100: 1}, small.Reconcile(large))
	assert.Equal(t, IDMap{1: 100}, large.Reconcile(small))
}

func TestReconcile_Empty(t *testing.T) {
	a := New()
	a.Put(u1, 1)
	assert.Empty(t, a.Reconcile(New()))
	assert.Empty(t, New().Reconcile(a))
}

type session struct {
	userID int64
}

var userFK = ForeignKey[*session]{
	Name: "user_id",
	Get:  func(s *session) int64 { return s.userID },
	Set:  func(s *session, id int64) { s.userID = id },
}

func TestRemap_PassThrough(t *testing.T) {
	mapped := &session{userID: 10}
	unmapped := &session{userID: 99}

	report, err := Remap([]*session{mapped, unmapped}, userFK, IDMap{10: 1}, PassThrough)
	require.NoError(t, err)

	assert.Equal(t, int64(1), mapped.userID)
	assert.Equal(t, int64(99), unmapped.userID)
	assert.Equal(t, Report{Field: "user_id", Mapped: 1, Unmapped: 1, UnmappedIDs: []int64{99}}, report)
}

func TestRemap_Strict(t *testing.T) {
	mapped := &session{userID: 10}
	unmapped := &session{userID: 99}

	_, err := Remap([]*session{mapped, unmapped}, userFK, IDMap{10: 1}, Strict)
	require.Error(t, err)

	var ue *UnmappedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, []int64{99}, ue.IDs)
	assert.Equal(t, "user_id", ue.Field)
	assert.ErrorIs(t, err, ErrUnmapped)

	// nothing was rewritten
	assert.Equal(t, int64(10), mapped.userID)
}

func TestRemap_StrictAllMapped(t *testing.T) {
	s := &session{userID: 10}
	report, err := Remap([]*session{s}, userFK, IDMap{10: 1}, Strict)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Mapped)
	assert.Equal(t, int64(1), s.userID)
}

func TestRemap_Clear(t *testing.T) {
	s := &session{userID: 99}
	report, err := Remap([]*session{s}, userFK, IDMap{10: 1}, Clear)
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.userID)
	assert.Equal(t, 1, report.Unmapped)
}

func TestRemap_NoRecords(t *testing.T) {
	report, err := Remap(nil, userFK, IDMap{10: 1}, Strict)
	require.NoError(t, err)
	assert.Equal(t, Report{Field: "user_id"}, report)
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "pass-through", PassThrough.String())
	assert.Equal(t, "strict", Strict.String())
	assert.Equal(t, "clear", Clear.String())
	assert.Equal(t, "policy(9)", Policy(9).String())
}
