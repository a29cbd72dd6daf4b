package filter

import (
	"fmt"
	"strings"
)

// UniverseKind labels the step of a query with no filters.
const UniverseKind = "*"

// Result is one step of a filter chain. Nodes are immutable; each points at
// the step before it, so a chain can be shared and extended safely.
type Result struct {
	previous *Result
	index    int
	kind     string
	ids      IDSet

	// complete: the filter answered ErrCompleteSet.
	complete bool
	// skipped: the running set was already empty, the filter did not run.
	skipped bool
}

func (r *Result) next(kind string, ids IDSet) *Result {
	n := &Result{previous: r, kind: kind, ids: ids}
	if r != nil {
		n.index = r.index + 1
	}
	return n
}

// Previous returns the step before r, or nil for the first step.
func (r *Result) Previous() *Result { return r.previous }

// Index is the zero-based position of the step.
func (r *Result) Index() int { return r.index }

// Kind is the filter kind of the step.
func (r *Result) Kind() string { return r.kind }

// Size is the number of players selected after this step.
func (r *Result) Size() int { return r.ids.Len() }

// Skipped reports whether the filter was not evaluated.
func (r *Result) Skipped() bool { return r.skipped }

// Complete reports whether the filter selected every player.
func (r *Result) Complete() bool { return r.complete }

// IDs returns the selected ids in ascending order.
func (r *Result) IDs() []int64 { return r.ids.Sorted() }

// Contains reports whether id is selected after this step.
func (r *Result) Contains(id int64) bool { return r.ids.Has(id) }

// Steps returns the chain from the first step to r.
func (r *Result) Steps() []*Result {
	var steps []*Result
	for n := r; n != nil; n = n.previous {
		steps = append(steps, n)
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}

// Trace renders the chain one step per line, e.g.
//
//  1. registeredBetween -> 12
//  2. banned -> 0
//  3. operators -> 0 (skipped)
func (r *Result) Trace() string {
	var sb strings.Builder
	for _, s := range r.Steps() {
		fmt.Fprintf(&sb, "%d. %s -> %d", s.index+1, s.kind, s.Size())
		switch {
		case s.skipped:
			sb.WriteString(" (skipped)")
		case s.complete:
			sb.WriteString(" (all)")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Step is the serialisable form of a chain step.
type Step struct {
	Kind     string `json:"kind"`
	Size     int    `json:"size"`
	Skipped  bool   `json:"skipped,omitempty"`
	Complete bool   `json:"complete,omitempty"`
}

// Summary returns the chain as plain values, first step first.
func (r *Result) Summary() []Step {
	steps := r.Steps()
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = Step{Kind: s.kind, Size: s.Size(), Skipped: s.skipped, Complete: s.complete}
	}
	return out
}
