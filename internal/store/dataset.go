package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/plan-player-analytics/Plan-sub022/internal/ir"
	"github.com/plan-player-analytics/Plan-sub022/internal/lookup"
	"github.com/plan-player-analytics/Plan-sub022/internal/querysql"
)

var (
	selectServers  = querysql.Select(ir.TableServers, "id", "uuid", "name").OrderBy("id")
	selectUsers    = querysql.Select(ir.TableUsers, "id", "uuid", "name", "registered").OrderBy("id")
	selectUserInfo = querysql.Select(ir.TableUserInfo,
		"id", "user_id", "server_id", "registered", "banned", "operator").OrderBy("id")
	selectSessions = querysql.Select(ir.TableSessions,
		"id", "user_id", "server_id", "session_start", "session_end", "afk_time").OrderBy("id")

	insertServer   = querysql.Insert(ir.TableServers, "uuid", "name")
	insertUser     = querysql.Insert(ir.TableUsers, "uuid", "name", "registered")
	insertUserInfo = querysql.Insert(ir.TableUserInfo,
		"user_id", "server_id", "registered", "banned", "operator")
	insertSession = querysql.Insert(ir.TableSessions,
		"user_id", "server_id", "session_start", "session_end", "afk_time")
)

type idRow struct {
	ID   int64     `db:"id"`
	UUID uuid.UUID `db:"uuid"`
}

func loadLookup(ctx context.Context, q sqlx.ExtContext, table string) (*lookup.Table, error) {
	var rows []idRow
	stmt := querysql.Select(table, "id", "uuid").Statement()
	if err := SelectContext(ctx, q, &rows, stmt); err != nil {
		return nil, fmt.Errorf("read %s lookup: %w", table, err)
	}
	t := lookup.NewWithCapacity(len(rows))
	for _, r := range rows {
		t.Put(r.UUID, r.ID)
	}
	return t, nil
}

// ServerLookup returns a fresh uuid → id snapshot of the servers table.
func ServerLookup(ctx context.Context, q sqlx.ExtContext) (*lookup.Table, error) {
	return loadLookup(ctx, q, ir.TableServers)
}

// UserLookup returns a fresh uuid → id snapshot of the users table.
func UserLookup(ctx context.Context, q sqlx.ExtContext) (*lookup.Table, error) {
	return loadLookup(ctx, q, ir.TableUsers)
}

// LoadServers reads every server ordered by id.
func LoadServers(ctx context.Context, q sqlx.ExtContext) ([]*ir.Server, error) {
	var out []*ir.Server
	if err := SelectContext(ctx, q, &out, selectServers.Statement()); err != nil {
		return nil, fmt.Errorf("load servers: %w", err)
	}
	return out, nil
}

// LoadUsers reads every user ordered by id.
func LoadUsers(ctx context.Context, q sqlx.ExtContext) ([]*ir.User, error) {
	var out []*ir.User
	if err := SelectContext(ctx, q, &out, selectUsers.Statement()); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return out, nil
}

// LoadUserInfo reads every user info row ordered by id.
func LoadUserInfo(ctx context.Context, q sqlx.ExtContext) ([]*ir.UserInfo, error) {
	var out []*ir.UserInfo
	if err := SelectContext(ctx, q, &out, selectUserInfo.Statement()); err != nil {
		return nil, fmt.Errorf("load user info: %w", err)
	}
	return out, nil
}

// LoadSessions reads every session ordered by id.
func LoadSessions(ctx context.Context, q sqlx.ExtContext) ([]*ir.Session, error) {
	var out []*ir.Session
	if err := SelectContext(ctx, q, &out, selectSessions.Statement()); err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return out, nil
}

// InsertServer returns the statement inserting s. The id is assigned by the engine.
func InsertServer(s *ir.Server) (querysql.Statement, error) {
	return insertServer.Values(s.UUID, ir.Normalize(s.Name))
}

// InsertUser returns the statement inserting u.
func InsertUser(u *ir.User) (querysql.Statement, error) {
	return insertUser.Values(u.UUID, ir.Normalize(u.Name), u.Registered)
}

// InsertUserInfo returns the statement inserting i.
func InsertUserInfo(i *ir.UserInfo) (querysql.Statement, error) {
	return insertUserInfo.Values(i.UserID, i.ServerID, i.Registered, i.Banned, i.Operator)
}

// InsertSession returns the statement inserting s.
func InsertSession(s *ir.Session) (querysql.Statement, error) {
	return insertSession.Values(s.UserID, s.ServerID, s.Start, s.End, s.AFKTime)
}
