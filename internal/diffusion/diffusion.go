// Package diffusion implements the stride-based diffusion engine: for each
// active source, select candidate edges via fanout, compute
// standardized-weight transfers, stage them into a per-tick delta buffer,
// and commit atomically.
package diffusion

import (
	"sort"

	"github.com/graphmind/graphmind/internal/clog"
	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/fanout"
	"github.com/graphmind/graphmind/internal/graphstore"
	"github.com/graphmind/graphmind/internal/state"
)

// Stride records one selected edge transfer within a tick.
type Stride struct {
	Src         string
	Dst         string
	LinkLogical string
	DeltaE      float64
	ESrcPre     float64
	EDstPre     float64
	Score       float64
	Reason      string
	FlowLoss    float64 // energy lost to target-side stickiness, if enabled
}

// Engine executes one tick's worth of strides over the active frontier.
type Engine struct {
	store   *graphstore.Store
	runtime *state.Runtime
}

// New builds a diffusion engine bound to the given store and runtime state.
func New(store *graphstore.Store, runtime *state.Runtime) *Engine {
	return &Engine{store: store, runtime: runtime}
}

// Run executes strides for every node in active (already snapshotted by the
// tick loop from {E >= Θ}), staging transfers into the returned delta map.
// dt is the scheduler-derived Δt for this tick; cfg carries the diffusion
// constants and feature flags.
func (e *Engine) Run(active []string, dt float64, cfg config.DiffusionConfig, stickinessEnabled bool) (map[string]float64, []Stride, error) {
	log := clog.For(clog.CategoryDiffusion)
	delta := make(map[string]float64)
	var strides []Stride

	// Deterministic source order: callers may pass active in any order but
	// strides are logged and capped independent of source ordering, so a
	// stable sort just keeps event streams reproducible.
	sources := make([]string, len(active))
	copy(sources, active)
	sort.Strings(sources)

	for _, src := range sources {
		srcState, ok := e.runtime.Get(src)
		if !ok || srcState.E < srcState.Threshold {
			// Sub-threshold nodes (even with residual positive energy) are
			// not active and cannot emit strides.
			continue
		}

		links, err := e.store.AdjacencyOut(src)
		if err != nil {
			return nil, nil, err
		}
		if len(links) == 0 {
			continue
		}

		candidates := make([]fanout.Candidate, 0, len(links))
		linkByLogical := make(map[string]*graphstore.LinkVersion, len(links))
		for _, l := range links {
			score := e.runtime.Weights().StandardizedRead(l.LogicalID)
			candidates = append(candidates, fanout.Candidate{LinkLogical: l.LogicalID, Dst: l.DstLogical, Score: score})
			linkByLogical[l.LogicalID] = l
		}

		selected := fanout.Select(candidates, len(links), cfg.TopK)
		if len(selected) == 0 {
			continue
		}

		// Per-source transfer cap: Σ ΔE_{i→j} <= β · E_i^pre.
		cap := cfg.BetaPerSourceCap * srcState.E
		raw := make([]float64, len(selected))
		var rawSum float64
		for i, c := range selected {
			raw[i] = srcState.E * c.Score * cfg.AlphaTick * dt
			rawSum += raw[i]
		}
		scale := 1.0
		if rawSum > cap && rawSum > 0 {
			scale = cap / rawSum
		}

		for i, c := range selected {
			deltaE := raw[i] * scale
			if deltaE <= 0 {
				continue
			}

			dstPre := 0.0
			if ds, ok := e.runtime.Get(c.Dst); ok {
				dstPre = ds.E
			}

			retained := deltaE
			flowLoss := 0.0
			if stickinessEnabled {
				s := e.runtime.Weights().Stickiness(c.LinkLogical)
				retained = s * deltaE
				flowLoss = deltaE - retained
			}

			delta[c.Dst] += retained
			delta[src] -= deltaE

			st := Stride{
				Src:         src,
				Dst:         c.Dst,
				LinkLogical: c.LinkLogical,
				DeltaE:      retained,
				ESrcPre:     srcState.E,
				EDstPre:     dstPre,
				Score:       c.Score,
				Reason:      "stride",
				FlowLoss:    flowLoss,
			}
			strides = append(strides, st)
			log.Sugar().Debugw("stride staged", "src", src, "dst", c.Dst, "delta_e", retained)
		}
	}

	return delta, strides, nil
}

// Commit applies staged deltas atomically: E_i <- clamp(E_i^pre + delta[i], 0, 1)
// for every node touched.
func (e *Engine) Commit(delta map[string]float64) {
	for logical, d := range delta {
		ns, ok := e.runtime.Get(logical)
		pre := 0.0
		if ok {
			pre = ns.E
		}
		next := pre + d
		if next < 0 {
			next = 0
		}
		if next > 1 {
			next = 1
		}
		e.runtime.SetEnergy(logical, next)
	}
}
