package filter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/plan-player-analytics/Plan-sub022/internal/queryir"
)

// Filter selects players.
type Filter interface {
	// Kind is the name used in filter documents.
	Kind() string

	// Match returns the matching ids, ErrCompleteSet, or an error wrapping
	// ErrInvalidParameters.
	Match(ctx context.Context, params queryir.Parameters) (IDSet, error)
}

// Registry maps kinds to filters. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]Filter
}

// NewRegistry creates a registry holding filters.
// Panics on a duplicate kind, which is a programming error.
func NewRegistry(filters ...Filter) *Registry {
	r := &Registry{filters: make(map[string]Filter, len(filters))}
	for _, f := range filters {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds f. A kind can be registered once.
func (r *Registry) Register(f Filter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.filters[f.Kind()]; dup {
		return fmt.Errorf("filter kind %q already registered", f.Kind())
	}
	r.filters[f.Kind()] = f
	return nil
}

// Get returns the filter for kind or an *UnknownKindError.
func (r *Registry) Get(kind string) (Filter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.filters[kind]
	if !ok {
		return nil, &UnknownKindError{Kind: kind}
	}
	return f, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.filters))
	for k := range r.filters {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
