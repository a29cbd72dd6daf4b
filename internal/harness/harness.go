package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/plan-player-analytics/Plan-sub022/internal/engine"
	"github.com/plan-player-analytics/Plan-sub022/internal/filter"
	"github.com/plan-player-analytics/Plan-sub022/internal/ir"
	"github.com/plan-player-analytics/Plan-sub022/internal/querysql"
	"github.com/plan-player-analytics/Plan-sub022/internal/store"
)

// SeedUnitOfWork names the unit of work that writes a scenario dataset.
const SeedUnitOfWork = "seed-scenario"

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when the outcome matched the expect block.
	Pass bool `json:"pass"`

	// Chain is the last step of the filter chain; nil when the query failed.
	Chain *filter.Result `json:"-"`

	// Err is the query error, if any.
	Err error `json:"-"`

	// Players are the names of the matched players in id order.
	Players []string `json:"players"`

	// Errors lists every mismatch with the expect block.
	Errors []string `json:"errors,omitempty"`
}

// AddError records a mismatch and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run seeds db with the scenario dataset, runs the query and checks the
// expectations. db must have the schema applied and hold no players.
//
// The returned error covers infrastructure failures only. A query error
// the scenario expects is part of a passing Result.
func Run(ctx context.Context, db *store.Database, s *Scenario) (*Result, error) {
	exec := engine.NewExecutor(db)
	u := engine.NewUnitOfWork(SeedUnitOfWork, func(ctx context.Context, tx *sqlx.Tx) error {
		return seed(ctx, tx, s)
	}, engine.WithID(s.Name))
	if _, err := exec.Execute(ctx, u); err != nil {
		return nil, fmt.Errorf("seed scenario %s: %w", s.Name, err)
	}

	res := &Result{Pass: true}
	res.Chain, res.Err = filter.NewPlayerEngine(db).Apply(ctx, s.FilterQuery())
	if res.Chain != nil {
		names, err := playerNames(ctx, db)
		if err != nil {
			return nil, err
		}
		for _, id := range res.Chain.IDs() {
			res.Players = append(res.Players, names[id])
		}
	}

	check(s, res)
	return res, nil
}

func seed(ctx context.Context, tx *sqlx.Tx, s *Scenario) error {
	exec := func(stmt querysql.Statement, err error) error {
		if err != nil {
			return err
		}
		_, err = store.Exec(ctx, tx, stmt)
		return err
	}

	for _, sv := range s.Servers {
		if err := exec(store.InsertServer(&ir.Server{UUID: uuid.MustParse(sv.UUID), Name: sv.Name})); err != nil {
			return fmt.Errorf("server %s: %w", sv.Name, err)
		}
	}
	for _, p := range s.Players {
		u := &ir.User{UUID: uuid.MustParse(p.UUID), Name: p.Name, Registered: dateMillis(p.Registered)}
		if err := exec(store.InsertUser(u)); err != nil {
			return fmt.Errorf("player %s: %w", p.Name, err)
		}
	}

	servers, err := store.ServerLookup(ctx, tx)
	if err != nil {
		return err
	}
	users, err := store.UserLookup(ctx, tx)
	if err != nil {
		return err
	}
	serverID := func(name string) int64 {
		for _, sv := range s.Servers {
			if sv.Name == name {
				id, _ := servers.Find(uuid.MustParse(sv.UUID))
				return id
			}
		}
		return 0
	}

	for _, p := range s.Players {
		userID, _ := users.Find(uuid.MustParse(p.UUID))
		for _, m := range p.Servers {
			registered := m.Registered
			if registered == "" {
				registered = p.Registered
			}
			info := &ir.UserInfo{
				UserID:     userID,
				ServerID:   serverID(m.Server),
				Registered: dateMillis(registered),
				Banned:     m.Banned,
				Operator:   m.Operator,
			}
			if err := exec(store.InsertUserInfo(info)); err != nil {
				return fmt.Errorf("player %s on %s: %w", p.Name, m.Server, err)
			}
		}
		for _, sess := range p.Sessions {
			start, _ := time.Parse(time.RFC3339, sess.Start)
			row := &ir.Session{
				UserID:   userID,
				ServerID: serverID(sess.Server),
				Start:    start.UnixMilli(),
				End:      start.Add(time.Duration(sess.Minutes) * time.Minute).UnixMilli(),
				AFKTime:  (time.Duration(sess.AFKMinutes) * time.Minute).Milliseconds(),
			}
			if err := exec(store.InsertSession(row)); err != nil {
				return fmt.Errorf("session of %s on %s: %w", p.Name, sess.Server, err)
			}
		}
	}
	return nil
}

func playerNames(ctx context.Context, db *store.Database) (map[int64]string, error) {
	users, err := store.LoadUsers(ctx, db.Pool())
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

// dateMillis returns noon UTC of a validated scenario date.
func dateMillis(day string) int64 {
	t, _ := time.Parse(DateLayout, day)
	return t.Add(12 * time.Hour).UnixMilli()
}
