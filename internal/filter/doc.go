// Package filter selects sets of players by composing named filters.
//
// A Filter maps a parameter map to the set of matching player ids. Besides
// plain errors it can signal two distinguished conditions:
//   - ErrInvalidParameters (wrapped in *ParameterError) for bad input
//   - ErrCompleteSet when the filter alone selects every player, letting the
//     engine skip the intersection
//
// Engine.Apply runs a queryir.Query in order. The first filter's result (or
// the universal set) starts the running set and every later result is
// intersected with it. Each step is recorded in an immutable chain of
// Result nodes, so Trace can explain why a query returned zero players.
//
// Once the running set is empty no later filter can add to it. The remaining
// filters are recorded as skipped steps of size 0 and are not evaluated.
package filter
