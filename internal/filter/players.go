package filter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plan-player-analytics/Plan-sub022/internal/ir"
	"github.com/plan-player-analytics/Plan-sub022/internal/queryir"
	"github.com/plan-player-analytics/Plan-sub022/internal/querysql"
	"github.com/plan-player-analytics/Plan-sub022/internal/store"
)

// Built-in filter kinds.
const (
	KindAllPlayers        = "allPlayers"
	KindRegisteredBetween = "registeredBetween"
	KindPlayedBetween     = "playedBetween"
	KindPlayedOnServer    = "playedOnServer"
	KindBanned            = "banned"
	KindOperators         = "operators"
)

// DateLayout is the format of date parameters.
const DateLayout = "2006-01-02"

// Querier runs read statements. *store.Database implements it.
type Querier interface {
	Select(ctx context.Context, dest any, stmt querysql.Statement) error
}

// NewPlayerRegistry returns a registry with every built-in player filter
// reading from q.
func NewPlayerRegistry(q Querier) *Registry {
	return NewRegistry(
		AllPlayers{},
		&RegisteredBetween{q: q},
		&PlayedBetween{q: q},
		&PlayedOnServer{q: q},
		&Flag{q: q, kind: KindBanned, column: "banned"},
		&Flag{q: q, kind: KindOperators, column: "operator"},
	)
}

// NewPlayerEngine returns an engine over the built-in filters of db.
func NewPlayerEngine(db *store.Database) *Engine {
	return NewEngine(NewPlayerRegistry(db), Universe(db))
}

// Universe returns a UniverseFunc listing every user in q.
func Universe(q Querier) UniverseFunc {
	stmt := querysql.Select(ir.TableUsers, "id").Statement()
	return func(ctx context.Context) (IDSet, error) {
		return selectIDs(ctx, q, stmt)
	}
}

func selectIDs(ctx context.Context, q Querier, stmt querysql.Statement) (IDSet, error) {
	var ids []int64
	if err := q.Select(ctx, &ids, stmt); err != nil {
		return nil, err
	}
	return NewIDSet(ids...), nil
}

// AllPlayers selects everyone. It never touches the database.
type AllPlayers struct{}

func (AllPlayers) Kind() string { return KindAllPlayers }

func (AllPlayers) Match(context.Context, queryir.Parameters) (IDSet, error) {
	return nil, ErrCompleteSet
}

// RegisteredBetween selects players whose first registration falls within
// the after and before days, both inclusive.
type RegisteredBetween struct {
	q Querier
}

func (f *RegisteredBetween) Kind() string { return KindRegisteredBetween }

func (f *RegisteredBetween) Match(ctx context.Context, p queryir.Parameters) (IDSet, error) {
	from, to, err := dateRange(f.Kind(), p)
	if err != nil {
		return nil, err
	}
	stmt := querysql.Select(ir.TableUsers, "id").
		Where("registered >= ?", "registered < ?").
		Statement(from, to)
	return selectIDs(ctx, f.q, stmt)
}

// PlayedBetween selects players with a session overlapping the after and
// before days, both inclusive.
type PlayedBetween struct {
	q Querier
}

func (f *PlayedBetween) Kind() string { return KindPlayedBetween }

func (f *PlayedBetween) Match(ctx context.Context, p queryir.Parameters) (IDSet, error) {
	from, to, err := dateRange(f.Kind(), p)
	if err != nil {
		return nil, err
	}
	stmt := querysql.Select(ir.TableSessions, "user_id").Distinct().
		Where("session_start < ?", "session_end >= ?").
		Statement(to, from)
	return selectIDs(ctx, f.q, stmt)
}

// PlayedOnServer selects players with a session on any of the servers given
// as comma-separated uuids.
type PlayedOnServer struct {
	q Querier
}

func (f *PlayedOnServer) Kind() string { return KindPlayedOnServer }

func (f *PlayedOnServer) Match(ctx context.Context, p queryir.Parameters) (IDSet, error) {
	raw, ok := p.Get("servers")
	if !ok {
		return nil, &ParameterError{Kind: f.Kind(), Parameter: "servers", Reason: "required"}
	}

	var servers []any
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, &ParameterError{Kind: f.Kind(), Parameter: "servers", Reason: fmt.Sprintf("%q is not a uuid", part)}
		}
		servers = append(servers, id)
	}
	if len(servers) == 0 {
		return nil, &ParameterError{Kind: f.Kind(), Parameter: "servers", Reason: "no server given"}
	}

	stmt := querysql.Select(ir.TableSessions+" s", "s.user_id").Distinct().
		Join("INNER JOIN " + ir.TableServers + " sv ON sv.id = s.server_id").
		Where(querysql.In("sv.uuid", len(servers))).
		Statement(servers...)
	return selectIDs(ctx, f.q, stmt)
}

// Flag selects players with a per-server boolean set (or unset) on any
// server, such as banned or operator.
type Flag struct {
	q      Querier
	kind   string
	column string
}

func (f *Flag) Kind() string { return f.kind }

func (f *Flag) Match(ctx context.Context, p queryir.Parameters) (IDSet, error) {
	raw, ok := p.Get("value")
	if !ok {
		return nil, &ParameterError{Kind: f.kind, Parameter: "value", Reason: "required"}
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &ParameterError{Kind: f.kind, Parameter: "value", Reason: fmt.Sprintf("%q is not true or false", raw)}
	}

	stmt := querysql.Select(ir.TableUserInfo, "user_id").Distinct().
		Where(f.column + " = ?").
		Statement(value)
	return selectIDs(ctx, f.q, stmt)
}

// dateRange reads the after and before parameters and returns the epoch
// millisecond range [start of after, start of the day after before).
func dateRange(kind string, p queryir.Parameters) (int64, int64, error) {
	after, err := dateParam(kind, p, "after")
	if err != nil {
		return 0, 0, err
	}
	before, err := dateParam(kind, p, "before")
	if err != nil {
		return 0, 0, err
	}
	if before.Before(after) {
		return 0, 0, &ParameterError{Kind: kind, Parameter: "before", Reason: "earlier than after"}
	}
	return after.UnixMilli(), before.AddDate(0, 0, 1).UnixMilli(), nil
}

func dateParam(kind string, p queryir.Parameters, name string) (time.Time, error) {
	raw, ok := p.Get(name)
	if !ok {
		return time.Time{}, &ParameterError{Kind: kind, Parameter: name, Reason: "required"}
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, &ParameterError{Kind: kind, Parameter: name, Reason: fmt.Sprintf("%q is not a %s date", raw, DateLayout)}
	}
	return t, nil
}
