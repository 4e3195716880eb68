// Package state holds the single process-wide mutable runtime state: node
// activation energies, thresholds, and learned link weights. None of this
// is part of a graphstore version row; it is owned exclusively by the tick
// loop (internal/runtime) and read by the rest of the engine through the
// snapshot/accessor methods below. Node state is guarded by one mutex; the
// weight table has its own.
package state

import (
	"database/sql"
	"sync"
)

// NodeState is one node's runtime-only activation bookkeeping.
type NodeState struct {
	E         float64 // activation energy, E ∈ [0,1]
	Threshold float64 // Θ ∈ (0,1]
	Resistance float64 // decay resistance r ∈ [1.0,1.5], 1.0 = no effect
	Consolidation float64 // consolidation factor c ∈ [0.5,1.0], 1.0 = no effect
}

// Runtime owns the node energies/thresholds and link weights for the whole
// graph. It is safe for concurrent reads; all writes are expected to come
// from the single tick-loop goroutine.
type Runtime struct {
	mu       sync.RWMutex
	nodes    map[string]*NodeState
	weights  *WeightTable
	defaultThreshold float64
}

// New creates an empty Runtime. defaultThreshold seeds Θ for nodes seen for
// the first time.
func New(defaultThreshold float64) *Runtime {
	return &Runtime{
		nodes:   make(map[string]*NodeState),
		weights: NewWeightTable(),
		defaultThreshold: defaultThreshold,
	}
}

// Ensure returns the NodeState for logical, creating a zero-energy entry at
// the default threshold if this is the first time the node is seen.
func (r *Runtime) Ensure(logical string) *NodeState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureLocked(logical)
}

func (r *Runtime) ensureLocked(logical string) *NodeState {
	ns, ok := r.nodes[logical]
	if !ok {
		ns = &NodeState{E: 0, Threshold: r.defaultThreshold, Resistance: 1.0, Consolidation: 1.0}
		r.nodes[logical] = ns
	}
	return ns
}

// Get returns a copy of a node's runtime state, or false if unseen.
func (r *Runtime) Get(logical string) (NodeState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ns, ok := r.nodes[logical]
	if !ok {
		return NodeState{}, false
	}
	return *ns, true
}

// SetEnergy overwrites a node's energy directly (used by commit and decay).
func (r *Runtime) SetEnergy(logical string, e float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLocked(logical).E = e
}

// SetThreshold overwrites a node's activation threshold.
func (r *Runtime) SetThreshold(logical string, theta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLocked(logical).Threshold = theta
}

// SetModulators sets the optional decay-resistance/consolidation factors.
func (r *Runtime) SetModulators(logical string, resistance, consolidation float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ns := r.ensureLocked(logical)
	ns.Resistance = resistance
	ns.Consolidation = consolidation
}

// Snapshot returns a point-in-time copy of every known node's state, keyed
// by logical id, taken under the read lock. Used by the Snapshot
// diagnostic query.
func (r *Runtime) Snapshot() map[string]NodeState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]NodeState, len(r.nodes))
	for k, v := range r.nodes {
		out[k] = *v
	}
	return out
}

// Weights returns the shared weight table.
func (r *Runtime) Weights() *WeightTable {
	return r.weights
}

// LoadWeights seeds the weight table from the durable store at startup.
func (r *Runtime) LoadWeights(db *sql.DB) error {
	return r.weights.loadFrom(db)
}

// PersistWeights flushes the current weight table to the durable store.
func (r *Runtime) PersistWeights(db *sql.DB) error {
	return r.weights.persistTo(db)
}
