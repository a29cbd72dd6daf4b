package queryir

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/plan-player-analytics/Plan-sub022/internal/ir"
)

// Parameters are the string-valued arguments of one filter.
type Parameters map[string]string

// Get returns the value of key and whether it is present and non-blank.
func (p Parameters) Get(key string) (string, bool) {
	v, ok := p[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Keys returns the parameter names in sorted order.
func (p Parameters) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FilterSpec is one entry of a query: a filter kind and its parameters.
type FilterSpec struct {
	Kind       string     `json:"kind"`
	Parameters Parameters `json:"parameters,omitempty"`
}

// Query is an ordered list of filters. Order matters for the diagnostic
// chain, not for the final result.
type Query []FilterSpec

// Kinds returns the filter kinds in order.
func (q Query) Kinds() []string {
	kinds := make([]string, len(q))
	for i, f := range q {
		kinds[i] = f.Kind
	}
	return kinds
}

// MarshalJSON encodes an empty query as [] rather than null.
func (q Query) MarshalJSON() ([]byte, error) {
	if q == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]FilterSpec(q))
}

// normalize trims and NFC-normalises every kind, key and value.
func (q Query) normalize() Query {
	out := make(Query, len(q))
	for i, f := range q {
		params := make(Parameters, len(f.Parameters))
		for k, v := range f.Parameters {
			params[ir.Normalize(k)] = ir.Normalize(v)
		}
		out[i] = FilterSpec{Kind: ir.Normalize(f.Kind), Parameters: params}
	}
	return out
}
