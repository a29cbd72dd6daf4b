package lookup

import (
	"github.com/google/uuid"
)

// Table maps business identifiers to engine-assigned ids.
//
// Tables are built fresh from a query and then read. Put exists for
// incremental construction and is not safe for concurrent use.
type Table struct {
	ids map[uuid.UUID]int64
}

// New returns an empty table.
func New() *Table {
	return &Table{ids: make(map[uuid.UUID]int64)}
}

// NewWithCapacity returns an empty table sized for n entries.
func NewWithCapacity(n int) *Table {
	return &Table{ids: make(map[uuid.UUID]int64, n)}
}

// Put associates id with businessID. A later Put for the same businessID
// replaces the earlier id: last write wins.
func (t *Table) Put(businessID uuid.UUID, id int64) {
	t.ids[businessID] = id
}

// Find returns the id stored for businessID.
func (t *Table) Find(businessID uuid.UUID) (int64, bool) {
	id, ok := t.ids[businessID]
	return id, ok
}

// FindFunc returns the id of the first business id accepted by match.
// Iteration order is unspecified, so callers must only rely on the result
// for existence checks.
func (t *Table) FindFunc(match func(uuid.UUID) bool) (int64, bool) {
	for businessID, id := range t.ids {
		if match(businessID) {
			return id, true
		}
	}
	return 0, false
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.ids)
}

// Each calls fn for every entry in unspecified order.
func (t *Table) Each(fn func(businessID uuid.UUID, id int64)) {
	for businessID, id := range t.ids {
		fn(businessID, id)
	}
}

// Reconcile joins t with other on shared business identifiers and returns
// other's id → t's id for each of them. Identifiers present on one side
// only are dropped; they are entities the other database has not seen.
//
// The caller picks the direction: t is the side whose ids are kept.
// The smaller table is iterated, so the cost is O(min(len(t), len(other))).
func (t *Table) Reconcile(other *Table) IDMap {
	probe, build := other, t
	probeIsOther := true
	if t.Len() < other.Len() {
		probe, build = t, other
		probeIsOther = false
	}

	out := make(IDMap, probe.Len())
	for businessID, probeID := range probe.ids {
		buildID, ok := build.ids[businessID]
		if !ok {
			continue
		}
		if probeIsOther {
			out[probeID] = buildID
		} else {
			out[buildID] = probeID
		}
	}
	return out
}

// IDMap maps ids of one database to ids of another.
type IDMap map[int64]int64

// Lookup returns the id mapped from old.
func (m IDMap) Lookup(old int64) (int64, bool) {
	id, ok := m[old]
	return id, ok
}
