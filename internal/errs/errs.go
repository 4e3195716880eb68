// Package errs defines the typed error taxonomy of the runtime: plain
// structs implementing error, each with a handful of named fields, no
// wrapped sentinel zoo.
package errs

import "fmt"

// NotFound indicates no live version exists for a logical id.
type NotFound struct {
	Logical string
}

func (e *NotFound) Error() string { return fmt.Sprintf("no live version for logical id %q", e.Logical) }

// DuplicateLogical indicates create_node was called on an existing live
// version without requesting supersession.
type DuplicateLogical struct {
	Logical string
}

func (e *DuplicateLogical) Error() string {
	return fmt.Sprintf("logical id %q already has a live version", e.Logical)
}

// IntervalInvariantViolation indicates a bitemporal interval invariant was
// broken by the caller's input (known_from <= known_to, valid_from <= valid_to).
type IntervalInvariantViolation struct {
	Logical string
	Reason  string
}

func (e *IntervalInvariantViolation) Error() string {
	return fmt.Sprintf("interval invariant violated for %q: %s", e.Logical, e.Reason)
}

// TypeUnknown indicates a reference to a node/link type outside the
// configured enumeration.
type TypeUnknown struct {
	Type string
}

func (e *TypeUnknown) Error() string { return fmt.Sprintf("unknown type %q", e.Type) }

// UnknownTarget indicates a stimulus injection target does not resolve: no
// version of the logical id exists at all, or the store lookup itself failed
// (see NoLiveVersion for an id whose versions are all closed).
type UnknownTarget struct {
	Target string
}

func (e *UnknownTarget) Error() string { return fmt.Sprintf("unknown injection target %q", e.Target) }

// BudgetOutOfRange indicates an injection budget was negative or exceeded the
// configured cap.
type BudgetOutOfRange struct {
	Budget float64
	Max    float64
}

func (e *BudgetOutOfRange) Error() string {
	return fmt.Sprintf("injection budget %.4f out of range [0, %.4f]", e.Budget, e.Max)
}

// NoLiveVersion indicates an injection target resolves to a logical id with
// no currently live version.
type NoLiveVersion struct {
	Logical string
}

func (e *NoLiveVersion) Error() string {
	return fmt.Sprintf("injection target %q has no live version", e.Logical)
}

// InvariantViolation indicates a tick-level conservation or ordering
// invariant failed. It suppresses learning for the tick but does not roll
// back the already-applied commit.
type InvariantViolation struct {
	TickID uint64
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("tick %d invariant violation: %s", e.TickID, e.Reason)
}

// Busy indicates a tick was in progress and a caller's deadline was missed.
type Busy struct {
	Operation string
}

func (e *Busy) Error() string { return fmt.Sprintf("%s: tick loop busy, deadline missed", e.Operation) }

// Transient indicates the underlying store reported a retryable fault.
type Transient struct {
	Op  string
	Err error
}

func (e *Transient) Error() string { return fmt.Sprintf("transient fault during %s: %v", e.Op, e.Err) }

func (e *Transient) Unwrap() error { return e.Err }
