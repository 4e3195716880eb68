// Package criticality estimates and controls the spectral radius ρ of the
// effective diffusion operator: a cheap per-tick branching-ratio proxy, an
// authoritative power-iteration sample on a coarser cadence, and a
// proportional controller adjusting the effective decay/diffusion levers.
package criticality

import (
	"math"
	"sync"

	"github.com/graphmind/graphmind/internal/clog"
	"github.com/graphmind/graphmind/internal/config"
)

// State is the hysteresis-smoothed safety classification derived from ρ.
type State int

const (
	Subcritical State = iota
	Critical
	Supercritical
)

func (s State) String() string {
	switch s {
	case Subcritical:
		return "subcritical"
	case Supercritical:
		return "supercritical"
	default:
		return "critical"
	}
}

// Edge is one weighted transition used by power iteration, already resolved
// to the active sub-operator (src and dst both in the active set).
type Edge struct {
	Src, Dst string
	Weight   float64
}

// Engine owns the effective δ (decay) and α (diffusion share) levers and the
// hysteresis-smoothed safety state.
type Engine struct {
	mu sync.Mutex

	delta float64
	alpha float64
	state State

	tickCount int
}

// New builds a criticality controller seeded with the initial effective
// decay/diffusion levers (typically derived from the configured decay/
// diffusion profiles at startup).
func New(initialDelta, initialAlpha float64) *Engine {
	return &Engine{delta: initialDelta, alpha: initialAlpha, state: Critical}
}

// Delta returns the current effective activation-decay factor δ.
func (e *Engine) Delta() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.delta
}

// Alpha returns the current effective diffusion share α.
func (e *Engine) Alpha() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alpha
}

// State returns the current hysteresis-smoothed safety classification.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Proxy computes the cheap branching-ratio proxy B = total_outflow /
// total_inflow on the active frontier. Returns 0 when there was
// no inflow to normalize against (e.g. an empty or newly-seeded frontier).
func Proxy(totalOutflow, totalInflow float64) float64 {
	if totalInflow <= 0 {
		return 0
	}
	return totalOutflow / totalInflow
}

// PowerIterate estimates ρ via K iterations of v <- Tv; v <- v/||v|| over the
// active sub-operator T = (1-δ)[(1-α)I + αP^T], reporting the Rayleigh
// quotient v·Tv / v·v. Returns 0 when active is empty; callers must treat
// that as "no sample available this tick" and fall back to the proxy
// themselves rather than feeding 0 into the controller.
func PowerIterate(active []string, edges []Edge, iterations int, delta, alpha float64) float64 {
	if len(active) == 0 {
		return 0
	}
	if iterations <= 0 {
		iterations = 10
	}

	idx := make(map[string]int, len(active))
	for i, n := range active {
		idx[n] = i
	}
	outSum := make(map[string]float64)
	for _, ed := range edges {
		outSum[ed.Src] += ed.Weight
	}

	n := len(active)
	v := make([]float64, n)
	init := 1.0 / math.Sqrt(float64(n))
	for i := range v {
		v[i] = init
	}

	applyT := func(v []float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = (1 - delta) * (1 - alpha) * v[i]
		}
		for _, ed := range edges {
			si, ok1 := idx[ed.Src]
			di, ok2 := idx[ed.Dst]
			if !ok1 || !ok2 {
				continue
			}
			denom := outSum[ed.Src]
			if denom <= 0 {
				continue
			}
			p := ed.Weight / denom
			out[di] += (1 - delta) * alpha * p * v[si]
		}
		return out
	}

	for it := 0; it < iterations; it++ {
		next := applyT(v)
		var norm float64
		for _, x := range next {
			norm += x * x
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			return 0
		}
		for i := range next {
			next[i] /= norm
		}
		v = next
	}

	tv := applyT(v)
	var dot, normSq float64
	for i := range v {
		dot += v[i] * tv[i]
		normSq += v[i] * v[i]
	}
	if normSq == 0 {
		return 0
	}
	return dot / normSq
}

// Control applies the P-controller of e = ρ̂ - target; δ <- clamp(δ
// + k_p·e, δ_min, δ_max); optionally α <- α - k_α·e. It also advances the
// hysteresis-smoothed safety state. Returns the resulting (δ, α, state).
func (e *Engine) Control(rhoHat float64, cfg config.CriticalityConfig) (float64, float64, State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := rhoHat - cfg.Target
	e.delta = clamp(e.delta+cfg.KP*err, cfg.DeltaMin, cfg.DeltaMax)
	if cfg.KAlpha != 0 {
		e.alpha = clamp(e.alpha-cfg.KAlpha*err, 0.0001, 0.5)
	}
	e.updateStateLocked(rhoHat, cfg.Hysteresis)

	clog.For(clog.CategoryCriticality).Sugar().Debugw("criticality control applied",
		"rho_hat", rhoHat, "delta", e.delta, "alpha", e.alpha, "state", e.state.String())
	return e.delta, e.alpha, e.state
}

func (e *Engine) updateStateLocked(rho, hysteresis float64) {
	const lo, hi = 0.9, 1.1

	switch e.state {
	case Subcritical:
		if rho >= lo+hysteresis {
			if rho > hi+hysteresis {
				e.state = Supercritical
			} else {
				e.state = Critical
			}
		}
	case Supercritical:
		if rho <= hi-hysteresis {
			if rho < lo-hysteresis {
				e.state = Subcritical
			} else {
				e.state = Critical
			}
		}
	default: // Critical
		if rho < lo-hysteresis {
			e.state = Subcritical
		} else if rho > hi+hysteresis {
			e.state = Supercritical
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Tick advances the power-iteration sampling cadence counter and reports
// whether an authoritative sample is due this tick.
func (e *Engine) Tick(cadence int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCount++
	if cadence <= 0 {
		return false
	}
	return e.tickCount%cadence == 0
}
