package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/plan-player-analytics/Plan-sub022/internal/queryir"
)

// UniverseFunc returns every player id.
type UniverseFunc func(ctx context.Context) (IDSet, error)

// Engine applies filter documents.
type Engine struct {
	registry *Registry
	universe UniverseFunc
}

// NewEngine creates an engine resolving kinds in registry. universe is
// consulted when a query is empty or starts with a complete-set filter.
func NewEngine(registry *Registry, universe UniverseFunc) *Engine {
	return &Engine{registry: registry, universe: universe}
}

// Registry returns the registry the engine resolves kinds in.
func (e *Engine) Registry() *Registry { return e.registry }

// Apply runs q and returns the last step of the chain.
//
// Every kind is resolved before any filter runs, so an unknown kind fails
// the whole query with *UnknownKindError and nothing is evaluated.
func (e *Engine) Apply(ctx context.Context, q queryir.Query) (*Result, error) {
	filters := make([]Filter, len(q))
	for i, spec := range q {
		f, err := e.registry.Get(spec.Kind)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		filters[i] = f
	}

	if len(q) == 0 {
		all, err := e.universe(ctx)
		if err != nil {
			return nil, fmt.Errorf("load all players: %w", err)
		}
		return (*Result)(nil).next(UniverseKind, all), nil
	}

	var chain *Result
	for i, f := range filters {
		kind := q[i].Kind

		if chain != nil && chain.Size() == 0 {
			step := chain.next(kind, IDSet{})
			step.skipped = true
			chain = step
			continue
		}

		ids, err := f.Match(ctx, q[i].Parameters)
		switch {
		case errors.Is(err, ErrCompleteSet):
			if chain == nil {
				if ids, err = e.universe(ctx); err != nil {
					return nil, fmt.Errorf("load all players: %w", err)
				}
			} else {
				ids = chain.ids
			}
			chain = chain.next(kind, ids)
			chain.complete = true
			continue
		case err != nil:
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}

		if chain != nil {
			ids = chain.ids.Intersect(ids)
		}
		chain = chain.next(kind, ids)
	}

	slog.Debug("filter chain applied", "steps", len(q), "size", chain.Size())
	return chain, nil
}
