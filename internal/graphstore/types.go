// Package graphstore is the versioned, bitemporal property-graph store.
// It persists nodes and links as immutable version chains in sqlite,
// guarded by a striped lock keyed on logical id (*sql.DB, one small file
// per concern).
package graphstore

import "time"

// Axis selects which bitemporal dimension an as-of query binds to.
type Axis int

const (
	AxisReality Axis = iota
	AxisKnowledge
)

// NodeVersion is one immutable version in a logical node's version chain.
type NodeVersion struct {
	LogicalID      string
	VersionID      string
	Type           string
	Description    string
	Meta           map[string]any
	ValidFrom      time.Time
	ValidTo        *time.Time
	KnownFrom      time.Time
	KnownTo        *time.Time
	Supersedes     *string
	SupersededBy   *string
	VersionSeq     int
}

// IsLive reports whether this is the currently-known version (known_to = ⊥).
func (v *NodeVersion) IsLive() bool { return v.KnownTo == nil }

// LinkVersion is one immutable version in a link's version chain.
// Links carry no activation energy; the log-weight lives outside the
// version chain in the runtime weight table (see internal/state), since it
// mutates every tick and versioning it bitemporally would churn the link
// history on every diffusion step.
type LinkVersion struct {
	LogicalID    string // stable id of this (src,dst,type) edge
	VersionID    string
	SrcLogical   string
	DstLogical   string
	Type         string
	WeightLog    float64
	Confidence   float64
	ValidFrom    time.Time
	ValidTo      *time.Time
	KnownFrom    time.Time
	KnownTo      *time.Time
	Supersedes   *string
	SupersededBy *string
	VersionSeq   int
}

// IsLive reports whether this is the currently-known version.
func (v *LinkVersion) IsLive() bool { return v.KnownTo == nil }
