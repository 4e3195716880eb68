// Package strengthen implements Hebbian link strengthening:
// bounded weight updates gated on recruiting a previously-dormant target,
// using a rolling z-score of a utility statistic per link type.
package strengthen

import (
	"math"
	"sync"

	"github.com/graphmind/graphmind/internal/clog"
	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/state"
)

// rollingStats is Welford's online mean/variance accumulator, one per link
// type, giving a rolling z-score over the utility statistic φ without
// storing the full sample history.
type rollingStats struct {
	n    int
	mean float64
	m2   float64
}

func (r *rollingStats) update(x float64) {
	r.n++
	delta := x - r.mean
	r.mean += delta / float64(r.n)
	delta2 := x - r.mean
	r.m2 += delta * delta2
}

func (r *rollingStats) zscore(x float64) float64 {
	if r.n < 2 {
		return 0
	}
	variance := r.m2 / float64(r.n)
	std := math.Sqrt(variance)
	if std < 1e-9 {
		return 0
	}
	return (x - r.mean) / std
}

// Update is one applied Hebbian adjustment, used for the weights.updated
// event.
type Update struct {
	LinkLogical string
	DeltaLogW   float64
}

// Engine applies Hebbian updates against the shared weight table.
type Engine struct {
	mu    sync.Mutex
	stats map[string]*rollingStats // keyed by link type

	runtime *state.Runtime
}

// New builds a strengthening engine bound to the given runtime state.
func New(runtime *state.Runtime) *Engine {
	return &Engine{stats: make(map[string]*rollingStats), runtime: runtime}
}

const phiEps = 1e-6

// Consider evaluates one stride for Hebbian strengthening. Both
// endpoints must have been sub-threshold before the stride and the
// destination must flip active after commit (the "newness gate"); strides
// between two already-active nodes never strengthen. thetaDst is the
// destination's activation threshold, eDstPre its pre-stride energy, and
// deltaE the staged transfer it received.
func (e *Engine) Consider(linkLogical, linkType string, srcPreActive, dstPreActive, dstPostActive bool, eDstPre, thetaDst, deltaE float64, cfg config.StrengthenConfig) (*Update, bool) {
	if srcPreActive || dstPreActive || !dstPostActive {
		return nil, false
	}

	gap := thetaDst - eDstPre
	if gap < 0 {
		gap = 0
	}
	numerator := math.Min(deltaE, gap)
	phi := numerator / (gap + phiEps)

	e.mu.Lock()
	st, ok := e.stats[linkType]
	if !ok {
		st = &rollingStats{}
		e.stats[linkType] = st
	}
	st.update(phi)
	z := st.zscore(phi)
	e.mu.Unlock()

	deltaLogW := cfg.Eta * z
	e.runtime.Weights().Adjust(linkLogical, deltaLogW, cfg.SoftCeiling)

	clog.For(clog.CategoryStrengthen).Sugar().Debugw("link strengthened",
		"link", linkLogical, "phi", phi, "z", z, "delta_log_w", deltaLogW)

	return &Update{LinkLogical: linkLogical, DeltaLogW: deltaLogW}, true
}
