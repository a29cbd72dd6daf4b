package backup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/plan-player-analytics/Plan-sub022/internal/engine"
	"github.com/plan-player-analytics/Plan-sub022/internal/ir"
	"github.com/plan-player-analytics/Plan-sub022/internal/lookup"
	"github.com/plan-player-analytics/Plan-sub022/internal/querysql"
	"github.com/plan-player-analytics/Plan-sub022/internal/store"
)

// MergeUnitOfWork is the unit-of-work name used by Merge.
const MergeUnitOfWork = "merge-snapshot"

// MergeReport counts what a merge changed.
type MergeReport struct {
	ServersAdded    int             `json:"servers_added"`
	UsersAdded      int             `json:"users_added"`
	UserInfoAdded   int             `json:"user_info_added"`
	UserInfoSkipped int             `json:"user_info_skipped"`
	SessionsAdded   int             `json:"sessions_added"`
	SessionsSkipped int             `json:"sessions_skipped"`
	Remaps          []lookup.Report `json:"remaps"`
}

var (
	infoUser = lookup.ForeignKey[*ir.UserInfo]{
		Name: "user_info.user_id",
		Get:  func(r *ir.UserInfo) int64 { return r.UserID },
		Set:  func(r *ir.UserInfo, id int64) { r.UserID = id },
	}
	infoServer = lookup.ForeignKey[*ir.UserInfo]{
		Name: "user_info.server_id",
		Get:  func(r *ir.UserInfo) int64 { return r.ServerID },
		Set:  func(r *ir.UserInfo, id int64) { r.ServerID = id },
	}
	sessionUser = lookup.ForeignKey[*ir.Session]{
		Name: "sessions.user_id",
		Get:  func(r *ir.Session) int64 { return r.UserID },
		Set:  func(r *ir.Session, id int64) { r.UserID = id },
	}
	sessionServer = lookup.ForeignKey[*ir.Session]{
		Name: "sessions.server_id",
		Get:  func(r *ir.Session) int64 { return r.ServerID },
		Set:  func(r *ir.Session, id int64) { r.ServerID = id },
	}
)

// Merge copies snap into the database behind exec as one unit of work.
// Rows already present (same uuid, same user and server pair, same session
// start) are skipped, so merging a snapshot twice changes nothing. An empty
// snapshot completes without opening a connection.
func Merge(ctx context.Context, exec *engine.Executor, snap *Snapshot) (MergeReport, error) {
	var report MergeReport
	if _, err := exec.Execute(ctx, NewMergeUnit(snap, &report)); err != nil {
		return MergeReport{}, err
	}
	return report, nil
}

// NewMergeUnit returns a fresh unit of work merging snap. report is filled
// in when the unit of work commits. Units of work run once, so callers that
// retry build a new one per attempt.
func NewMergeUnit(snap *Snapshot, report *MergeReport) *engine.UnitOfWork {
	return engine.NewUnitOfWork(MergeUnitOfWork,
		func(ctx context.Context, tx *sqlx.Tx) error {
			r, err := mergeInto(ctx, tx, snap)
			if err != nil {
				return err
			}
			*report = r
			slog.Debug("merge staged",
				"servers", r.ServersAdded,
				"users", r.UsersAdded,
				"user_info", r.UserInfoAdded,
				"sessions", r.SessionsAdded,
			)
			return nil
		},
		engine.WithPrecondition(func() bool {
			return len(snap.Servers) > 0 || len(snap.Users) > 0
		}),
	)
}

func mergeInto(ctx context.Context, tx *sqlx.Tx, snap *Snapshot) (MergeReport, error) {
	var report MergeReport

	serverIDs, added, err := mergeServers(ctx, tx, snap.Servers, snap.ServerLookup())
	if err != nil {
		return report, err
	}
	report.ServersAdded = added

	userIDs, added, err := mergeUsers(ctx, tx, snap.Users, snap.UserLookup())
	if err != nil {
		return report, err
	}
	report.UsersAdded = added

	info := make([]*ir.UserInfo, len(snap.UserInfo))
	for i, r := range snap.UserInfo {
		c := *r
		info[i] = &c
	}
	sessions := make([]*ir.Session, len(snap.Sessions))
	for i, r := range snap.Sessions {
		c := *r
		sessions[i] = &c
	}

	for _, remap := range []func() (lookup.Report, error){
		func() (lookup.Report, error) { return lookup.Remap(info, infoUser, userIDs, lookup.Strict) },
		func() (lookup.Report, error) { return lookup.Remap(info, infoServer, serverIDs, lookup.Strict) },
		func() (lookup.Report, error) { return lookup.Remap(sessions, sessionUser, userIDs, lookup.Strict) },
		func() (lookup.Report, error) { return lookup.Remap(sessions, sessionServer, serverIDs, lookup.Strict) },
	} {
		r, err := remap()
		if err != nil {
			return report, err
		}
		report.Remaps = append(report.Remaps, r)
	}

	if report.UserInfoAdded, report.UserInfoSkipped, err = insertUserInfo(ctx, tx, info); err != nil {
		return report, err
	}
	if report.SessionsAdded, report.SessionsSkipped, err = insertSessions(ctx, tx, sessions); err != nil {
		return report, err
	}
	return report, nil
}

// mergeServers inserts servers missing from the destination and returns the
// snapshot id → destination id map.
func mergeServers(ctx context.Context, tx *sqlx.Tx, servers []*ir.Server, src *lookup.Table) (lookup.IDMap, int, error) {
	dst, err := store.ServerLookup(ctx, tx)
	if err != nil {
		return nil, 0, err
	}
	added := 0
	for _, s := range servers {
		if _, ok := dst.Find(s.UUID); ok {
			continue
		}
		if err := execStmt(ctx, tx)(store.InsertServer(s)); err != nil {
			return nil, 0, fmt.Errorf("insert server %s: %w", s.UUID, err)
		}
		added++
	}
	// Ids were assigned by the engine, read them back.
	if dst, err = store.ServerLookup(ctx, tx); err != nil {
		return nil, 0, err
	}
	return dst.Reconcile(src), added, nil
}

// mergeUsers is mergeServers for players.
func mergeUsers(ctx context.Context, tx *sqlx.Tx, users []*ir.User, src *lookup.Table) (lookup.IDMap, int, error) {
	dst, err := store.UserLookup(ctx, tx)
	if err != nil {
		return nil, 0, err
	}
	added := 0
	for _, u := range users {
		if _, ok := dst.Find(u.UUID); ok {
			continue
		}
		if err := execStmt(ctx, tx)(store.InsertUser(u)); err != nil {
			return nil, 0, fmt.Errorf("insert user %s: %w", u.UUID, err)
		}
		added++
	}
	if dst, err = store.UserLookup(ctx, tx); err != nil {
		return nil, 0, err
	}
	return dst.Reconcile(src), added, nil
}

type infoKey struct{ user, server int64 }

func insertUserInfo(ctx context.Context, tx *sqlx.Tx, rows []*ir.UserInfo) (added, skipped int, err error) {
	existing, err := store.LoadUserInfo(ctx, tx)
	if err != nil {
		return 0, 0, err
	}
	seen := make(map[infoKey]bool, len(existing))
	for _, r := range existing {
		seen[infoKey{r.UserID, r.ServerID}] = true
	}

	for _, r := range rows {
		k := infoKey{r.UserID, r.ServerID}
		if seen[k] {
			skipped++
			continue
		}
		if err := execStmt(ctx, tx)(store.InsertUserInfo(r)); err != nil {
			return added, skipped, fmt.Errorf("insert user info: %w", err)
		}
		seen[k] = true
		added++
	}
	return added, skipped, nil
}

type sessionKey struct{ user, server, start int64 }

func insertSessions(ctx context.Context, tx *sqlx.Tx, rows []*ir.Session) (added, skipped int, err error) {
	existing, err := store.LoadSessions(ctx, tx)
	if err != nil {
		return 0, 0, err
	}
	seen := make(map[sessionKey]bool, len(existing))
	for _, r := range existing {
		seen[sessionKey{r.UserID, r.ServerID, r.Start}] = true
	}

	for _, r := range rows {
		k := sessionKey{r.UserID, r.ServerID, r.Start}
		if seen[k] {
			skipped++
			continue
		}
		if err := execStmt(ctx, tx)(store.InsertSession(r)); err != nil {
			return added, skipped, fmt.Errorf("insert session: %w", err)
		}
		seen[k] = true
		added++
	}
	return added, skipped, nil
}

// execStmt adapts a statement constructor result to an execution on tx.
func execStmt(ctx context.Context, tx *sqlx.Tx) func(querysql.Statement, error) error {
	return func(stmt querysql.Statement, err error) error {
		if err != nil {
			return err
		}
		_, err = store.Exec(ctx, tx, stmt)
		return err
	}
}
