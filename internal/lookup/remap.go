package lookup

import (
	"errors"
	"fmt"
	"log/slog"
)

// Policy decides what Remap does with a foreign key that has no mapping.
type Policy int

const (
	// PassThrough leaves unmapped keys untouched, assuming they are already
	// valid in the destination. Unmapped keys are counted and logged.
	PassThrough Policy = iota
	// Strict rejects the batch if any key is unmapped. Nothing is rewritten.
	Strict
	// Clear sets unmapped keys to zero.
	Clear
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PassThrough:
		return "pass-through"
	case Strict:
		return "strict"
	case Clear:
		return "clear"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ForeignKey exposes one integer foreign key field of T.
type ForeignKey[T any] struct {
	Name string
	Get  func(T) int64
	Set  func(T, int64)
}

// Report summarises a Remap call.
type Report struct {
	Field       string  `json:"field"`
	Mapped      int     `json:"mapped"`
	Unmapped    int     `json:"unmapped"`
	UnmappedIDs []int64 `json:"unmapped_ids,omitempty"`
}

// ErrUnmapped is matched by every UnmappedError.
var ErrUnmapped = errors.New("reference without mapping")

// UnmappedError is returned by Remap under the Strict policy.
type UnmappedError struct {
	Field string
	IDs   []int64
}

func (e *UnmappedError) Error() string {
	return fmt.Sprintf("remap %s: %d reference(s) without mapping: %v", e.Field, len(e.IDs), e.IDs)
}

// Is makes errors.Is(err, ErrUnmapped) hold.
func (e *UnmappedError) Is(target error) bool {
	return target == ErrUnmapped
}

// Remap rewrites fk of every record in place using ids.
//
// Records must be pointers (or otherwise share state with the caller) for
// Set to be visible. A partially overlapping id space is normal: records
// whose key is not in ids are handled according to policy.
func Remap[T any](records []T, fk ForeignKey[T], ids IDMap, policy Policy) (Report, error) {
	report := Report{Field: fk.Name}

	for _, r := range records {
		if _, ok := ids[fk.Get(r)]; !ok {
			report.Unmapped++
			report.UnmappedIDs = append(report.UnmappedIDs, fk.Get(r))
		}
	}
	if policy == Strict && report.Unmapped > 0 {
		return report, &UnmappedError{Field: fk.Name, IDs: report.UnmappedIDs}
	}

	for _, r := range records {
		newID, ok := ids[fk.Get(r)]
		switch {
		case ok:
			fk.Set(r, newID)
			report.Mapped++
		case policy == Clear:
			fk.Set(r, 0)
		}
	}

	if report.Unmapped > 0 {
		slog.Debug("foreign keys without mapping",
			"field", fk.Name,
			"policy", policy.String(),
			"unmapped", report.Unmapped,
			"mapped", report.Mapped,
		)
	}
	return report, nil
}
