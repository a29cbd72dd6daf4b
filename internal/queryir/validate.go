package queryir

import "fmt"

// ValidationResult lists questionable but legal constructs in a query.
type ValidationResult struct {
	// Warnings is empty for a clean query.
	Warnings []string
}

// Clean reports whether there were no warnings.
func (r ValidationResult) Clean() bool {
	return len(r.Warnings) == 0
}

// Validate lints q. Every query that parses can run; warnings only point
// at filters that cannot change the result:
//   - the same kind with the same parameters twice (intersection with itself)
//   - allPlayers anywhere but first position
//
// Validate is a pure function with no side effects.
func Validate(q Query) ValidationResult {
	v := &validator{warnings: []string{}}
	seen := map[string]int{}

	for i, f := range q {
		key := f.Kind + "?" + f.Parameters.canonical()
		if first, dup := seen[key]; dup {
			v.addWarning("filter %d (%s) repeats filter %d and cannot narrow the result", i, f.Kind, first)
		} else {
			seen[key] = i
		}
		if f.Kind == "allPlayers" && i > 0 {
			v.addWarning("filter %d (allPlayers) after other filters has no effect", i)
		}
	}

	return ValidationResult{Warnings: v.warnings}
}

type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (p Parameters) canonical() string {
	s := ""
	for _, k := range p.Keys() {
		s += k + "=" + p[k] + "&"
	}
	return s
}
