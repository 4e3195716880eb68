// Package fanout selects the bounded candidate set of outgoing edges a
// source node strides into each tick. It only ever consults a
// node's local out-neighborhood — no global topology queries are permitted —
// scoring and sorting candidates locally before truncating to the budget.
package fanout

import (
	"math"
	"sort"
)

// Candidate is one scored outgoing edge considered for a stride.
type Candidate struct {
	LinkLogical string
	Dst         string
	Score       float64 // standardized weight read W̃_dst, plus any modulators
}

// ScoreSource reads a candidate edge's standardized weight. Select does not
// take one: the diffusion engine scores candidates itself and passes them in
// already scored, so fanout stays store-agnostic.
type ScoreSource func(linkLogical, dst string) float64

// Select returns the bounded candidate set for a source with the given
// out-degree's degree-based strategy switch:
//   - degree > 10: top-K by score (selective)
//   - degree < 5: take all (exhaustive)
//   - otherwise:   top-K with K = clamp(degree/2, 1, 4)
//
// Ties break lexicographically by (-score, dst_logical) for determinism.
func Select(edges []Candidate, degree int, configuredTopK int) []Candidate {
	if len(edges) == 0 {
		return nil
	}

	scored := make([]Candidate, len(edges))
	copy(scored, edges)
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Dst < scored[j].Dst
	})

	var k int
	switch {
	case degree > 10:
		k = configuredTopK
		if k < 1 {
			k = 1
		}
	case degree < 5:
		k = len(scored)
	default:
		k = clamp(degree/2, 1, 4)
	}
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Softmax computes a deterministic softmax distribution over candidate
// scores with the given temperature, used by the optional Top-K splitting
// mode. Ties in the input ordering are preserved (stable), giving a
// deterministic arg-sort tie-break downstream.
func Softmax(scores []float64, temperature float64) []float64 {
	if temperature <= 0 {
		temperature = 1.0
	}
	if len(scores) == 0 {
		return nil
	}

	maxS := scores[0]
	for _, s := range scores[1:] {
		if s > maxS {
			maxS = s
		}
	}

	exps := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		e := math.Exp((s - maxS) / temperature)
		exps[i] = e
		sum += e
	}
	if sum == 0 {
		sum = 1
	}
	out := make([]float64, len(scores))
	for i, e := range exps {
		out[i] = e / sum
	}
	return out
}
