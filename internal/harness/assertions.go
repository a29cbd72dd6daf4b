package harness

import (
	"slices"

	"github.com/plan-player-analytics/Plan-sub022/internal/filter"
)

// check compares res with the scenario's expect block and records every
// mismatch on res.
func check(s *Scenario, res *Result) {
	want := s.Expect

	if want.Error != "" {
		checkError(want.Error, res)
		return
	}
	if res.Err != nil {
		res.AddError("query failed: %v", res.Err)
		return
	}

	if want.Steps != nil {
		checkSteps(want.Steps, res.Chain.Summary(), res)
	}

	players := res.Players
	if players == nil {
		players = []string{}
	}
	expected := want.Players
	if expected == nil {
		expected = []string{}
	}
	if !slices.Equal(players, expected) {
		res.AddError("players: expected %v, got %v", expected, players)
	}
}

func checkError(want string, res *Result) {
	if res.Err == nil {
		res.AddError("expected %s error, query succeeded", want)
		return
	}
	var ok bool
	switch want {
	case ExpectUnknownKind:
		ok = filter.IsUnknownKind(res.Err)
	case ExpectInvalidParameters:
		ok = filter.IsInvalidParameters(res.Err)
	}
	if !ok {
		res.AddError("expected %s error, got %v", want, res.Err)
	}
}

func checkSteps(want []StepExpectation, got []filter.Step, res *Result) {
	if len(want) != len(got) {
		res.AddError("steps: expected %d, got %d", len(want), len(got))
		return
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.Kind != g.Kind {
			res.AddError("step %d: expected kind %s, got %s", i+1, w.Kind, g.Kind)
		}
		if w.Size != g.Size {
			res.AddError("step %d (%s): expected size %d, got %d", i+1, g.Kind, w.Size, g.Size)
		}
		if w.Skipped != g.Skipped {
			res.AddError("step %d (%s): expected skipped=%v", i+1, g.Kind, w.Skipped)
		}
		if w.Complete != g.Complete {
			res.AddError("step %d (%s): expected complete=%v", i+1, g.Kind, w.Complete)
		}
	}
}
