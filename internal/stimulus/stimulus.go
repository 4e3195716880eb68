// Package stimulus implements targeted energy injection: the
// external entry point by which collaborators (chat hooks, dashboards,
// dynamic-context generators) drive the runtime with a weighted batch of
// (logical id, weight) targets and an energy budget.
package stimulus

import (
	"errors"
	"math"
	"sort"

	"github.com/graphmind/graphmind/internal/clog"
	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/errs"
	"github.com/graphmind/graphmind/internal/graphstore"
	"github.com/graphmind/graphmind/internal/state"
)

// Target is one (logical_id, weight) injection pair. Weights across a batch
// must sum to ~1.
type Target struct {
	Logical string
	Weight  float64
}

// AppliedTarget records the actual effect of an injection on one node.
type AppliedTarget struct {
	Logical string
	DeltaE  float64
	EAfter  float64
}

// Report summarizes one Inject call.
type Report struct {
	Budget  float64
	Applied []AppliedTarget
}

// Injector applies stimulus batches against runtime node energies.
type Injector struct {
	store   *graphstore.Store
	runtime *state.Runtime
}

// New builds an injector bound to the given store (for live-version checks)
// and runtime energy state.
func New(store *graphstore.Store, runtime *state.Runtime) *Injector {
	return &Injector{store: store, runtime: runtime}
}

// saturate is the bounded write tanh(2*max(0,x)), applied to energy
// writes that can overshoot the unit interval.
func saturate(x float64) float64 {
	if x < 0 {
		x = 0
	}
	return math.Tanh(2 * x)
}

const weightSumTolerance = 1e-6

// Inject validates and applies a stimulus batch. Invalid target
// lists reject the entire batch; no partial injection.
func (inj *Injector) Inject(targets []Target, budget float64, cfg config.StimulusConfig) (*Report, error) {
	if budget < 0 || budget > cfg.MaxBudget {
		return nil, &errs.BudgetOutOfRange{Budget: budget, Max: cfg.MaxBudget}
	}
	if len(targets) == 0 {
		return nil, &errs.UnknownTarget{Target: "<empty target list>"}
	}

	var weightSum float64
	for _, t := range targets {
		weightSum += t.Weight
	}
	if math.Abs(weightSum-1.0) > weightSumTolerance {
		return nil, &errs.IntervalInvariantViolation{Logical: "inject", Reason: "target weights must sum to 1"}
	}

	// Validate every target resolves to a live version before applying
	// anything (all-or-nothing batch).
	for _, t := range targets {
		if _, err := inj.store.LiveNode(t.Logical); err != nil {
			var notFound *errs.NotFound
			if errors.As(err, &notFound) {
				if hist, herr := inj.store.History(t.Logical); herr == nil && len(hist) > 0 {
					return nil, &errs.NoLiveVersion{Logical: t.Logical}
				}
				return nil, &errs.UnknownTarget{Target: t.Logical}
			}
			return nil, &errs.UnknownTarget{Target: t.Logical}
		}
	}

	applied := make([]AppliedTarget, 0, len(targets))
	for _, t := range sortedTargets(targets) {
		ns := inj.runtime.Ensure(t.Logical)
		before := ns.E
		after := saturate(before + t.Weight*budget)
		inj.runtime.SetEnergy(t.Logical, after)
		applied = append(applied, AppliedTarget{Logical: t.Logical, DeltaE: after - before, EAfter: after})
	}

	clog.For(clog.CategoryStimulus).Sugar().Infow("stimulus injected", "targets", len(targets), "budget", budget)

	return &Report{Budget: budget, Applied: applied}, nil
}

// sortedTargets returns targets ordered by logical id for deterministic
// application order.
func sortedTargets(targets []Target) []Target {
	out := make([]Target, len(targets))
	copy(out, targets)
	sort.Slice(out, func(i, j int) bool { return out[i].Logical < out[j].Logical })
	return out
}

// ApplyAffectivePriming reweights targets by cosine similarity between a
// recent affect vector and each target's stored emotional embedding
// (score_i *= 1 + p*cos(recentAffect, embedding_i)), then renormalizes so
// the batch's weights still sum to 1 (budget total is preserved; only
// distribution shifts). p is clamped to the configured cap, and recentAffect
// magnitudes below floor are treated as absent (priming is a no-op).
func ApplyAffectivePriming(targets []Target, recentAffect map[string]float64, emotionalEmbeddings map[string]map[string]float64, p, floor float64, cfg config.StimulusConfig) []Target {
	if p > cfg.AffectivePriming {
		p = cfg.AffectivePriming
	}
	if p <= 0 || magnitude(recentAffect) < floor {
		return targets
	}

	out := make([]Target, len(targets))
	var sum float64
	for i, t := range targets {
		emb, ok := emotionalEmbeddings[t.Logical]
		score := t.Weight
		if ok {
			score *= 1 + p*cosine(recentAffect, emb)
		}
		if score < 0 {
			score = 0
		}
		out[i] = Target{Logical: t.Logical, Weight: score}
		sum += score
	}
	if sum <= 0 {
		return targets
	}
	for i := range out {
		out[i].Weight /= sum
	}
	return out
}

func magnitude(v map[string]float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func cosine(a, b map[string]float64) float64 {
	var dot, na, nb float64
	for k, av := range a {
		dot += av * b[k]
		na += av * av
	}
	for _, bv := range b {
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
