// Package decay implements the two independent decay clocks: per-tick
// activation decay (applied after commit) and slower-cadence weight decay,
// each scoped per node/link type by a lambda profile map.
package decay

import (
	"math"

	"github.com/graphmind/graphmind/internal/clog"
	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/state"
)

// Engine applies activation and weight decay against runtime state.
type Engine struct {
	runtime *state.Runtime
	// tickCount drives the weight-decay cadence. Owned here rather than by the tick loop so a single Engine
	// instance tracks its own cadence regardless of loop restarts.
	tickCount int
}

// New builds a decay engine bound to the given runtime state.
func New(runtime *state.Runtime) *Engine {
	return &Engine{runtime: runtime}
}

// ApplyActivation decays every node's energy by its type's activation decay
// factor raised to dt: E_i <- (lambda_E^type)^dt * E_i, with
// optional decay-resistance (stretches effective dt) and consolidation
// (exponentiates retention) modulators applied read-time, never stored.
func (e *Engine) ApplyActivation(nodesByLogical map[string]string, dt float64, cfg config.DecayConfig, resistanceEnabled, consolidationEnabled bool) {
	log := clog.For(clog.CategoryDecay)
	var totalPre, totalPost float64

	for logical, nodeType := range nodesByLogical {
		ns, ok := e.runtime.Get(logical)
		if !ok {
			continue
		}
		totalPre += ns.E

		profile := cfg.ProfileFor(nodeType)
		effectiveDt := dt
		if resistanceEnabled && ns.Resistance > 0 {
			effectiveDt = dt / ns.Resistance
		}
		retention := math.Pow(profile.LambdaE, effectiveDt)
		if consolidationEnabled {
			retention = math.Pow(retention, ns.Consolidation)
		}

		next := retention * ns.E
		e.runtime.SetEnergy(logical, next)
		totalPost += next
	}

	if len(nodesByLogical) > 0 {
		log.Sugar().Debugw("activation decay applied", "nodes", len(nodesByLogical), "energy_before", totalPre, "energy_after", totalPost)
	}
}

// DecayedEnergy returns the total energy removed by the most recent
// ApplyActivation call, used by the tick loop's conservation accounting.
// Callers should snapshot energy totals before and after calling
// ApplyActivation themselves; this helper is a convenience for that common
// pattern.
func DecayedEnergy(before, after map[string]float64) float64 {
	var total float64
	for logical, pre := range before {
		total += pre - after[logical]
	}
	return total
}

// Tick advances the weight-decay cadence counter and reports whether a
// weight-decay pass is due this tick.
func (e *Engine) Tick(cadence int) bool {
	e.tickCount++
	if cadence <= 0 {
		return false
	}
	return e.tickCount%cadence == 0
}

// ApplyWeightDecay multiplies every link's W_log by its type's lambda_W,
// run on the coarser cadence Tick signals.
func (e *Engine) ApplyWeightDecay(linkTypes []string, cfg config.DecayConfig) {
	for _, t := range linkTypes {
		profile := cfg.ProfileFor(t)
		e.runtime.Weights().DecayType(t, profile.LambdaW)
	}
}
