package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"

	"github.com/plan-player-analytics/Plan-sub022/internal/ir"
	"github.com/plan-player-analytics/Plan-sub022/internal/lookup"
	"github.com/plan-player-analytics/Plan-sub022/internal/store"
)

// Snapshot is the full dataset of one database.
type Snapshot struct {
	Version  string         `json:"version"`
	Servers  []*ir.Server   `json:"servers"`
	Users    []*ir.User     `json:"users"`
	UserInfo []*ir.UserInfo `json:"user_info"`
	Sessions []*ir.Session  `json:"sessions"`
}

// Export reads every table through q into a snapshot.
func Export(ctx context.Context, q sqlx.ExtContext) (*Snapshot, error) {
	snap := &Snapshot{Version: ir.SnapshotVersion}
	var err error

	if snap.Servers, err = store.LoadServers(ctx, q); err != nil {
		return nil, err
	}
	if snap.Users, err = store.LoadUsers(ctx, q); err != nil {
		return nil, err
	}
	if snap.UserInfo, err = store.LoadUserInfo(ctx, q); err != nil {
		return nil, err
	}
	if snap.Sessions, err = store.LoadSessions(ctx, q); err != nil {
		return nil, err
	}
	return snap, nil
}

// Encode writes snap as indented JSON.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Decode reads a snapshot written by Encode. Names are NFC-normalised.
func Decode(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != ir.SnapshotVersion {
		return nil, fmt.Errorf("decode snapshot: unsupported version %q (want %q)", snap.Version, ir.SnapshotVersion)
	}
	for _, s := range snap.Servers {
		s.Name = ir.Normalize(s.Name)
	}
	for _, u := range snap.Users {
		u.Name = ir.Normalize(u.Name)
	}
	return &snap, nil
}

// ServerLookup returns the snapshot's own server uuid → id table.
func (s *Snapshot) ServerLookup() *lookup.Table {
	t := lookup.NewWithCapacity(len(s.Servers))
	for _, srv := range s.Servers {
		t.Put(srv.UUID, srv.ID)
	}
	return t
}

// UserLookup returns the snapshot's own user uuid → id table.
func (s *Snapshot) UserLookup() *lookup.Table {
	t := lookup.NewWithCapacity(len(s.Users))
	for _, u := range s.Users {
		t.Put(u.UUID, u.ID)
	}
	return t
}
