package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/plan-player-analytics/Plan-sub022/internal/testutil"
)

// RunWithGolden runs s on a fresh database and compares the chain trace
// with testdata/golden/{s.Name}.golden. Regenerate with -update.
func RunWithGolden(t *testing.T, s *Scenario) *Result {
	t.Helper()

	res, err := Run(context.Background(), testutil.OpenDB(t), s)
	if err != nil {
		t.Fatalf("scenario %s: %v", s.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, Snapshot(res))
	return res
}

// Snapshot renders a result for golden comparison.
func Snapshot(res *Result) []byte {
	var sb strings.Builder
	if res.Err != nil {
		fmt.Fprintf(&sb, "error: %v\n", res.Err)
		return []byte(sb.String())
	}
	sb.WriteString(res.Chain.Trace())
	players := "(none)"
	if len(res.Players) > 0 {
		players = strings.Join(res.Players, ", ")
	}
	fmt.Fprintf(&sb, "players: %s\n", players)
	return []byte(sb.String())
}
