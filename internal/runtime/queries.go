package runtime

import (
	"math"
	"sort"
	"time"

	"github.com/graphmind/graphmind/internal/graphstore"
	"github.com/graphmind/graphmind/internal/stimulus"
)

// AsOfNode resolves the version of a logical node active at instant on
// the given bitemporal axis.
func (r *Runtime) AsOfNode(logical string, axis graphstore.Axis, instant time.Time) (*graphstore.NodeVersion, error) {
	return r.store.AsOfNode(logical, axis, instant)
}

// AsOfLink resolves the version of a logical link active at instant on
// the given bitemporal axis.
func (r *Runtime) AsOfLink(src, dst, linkType string, axis graphstore.Axis, instant time.Time) (*graphstore.LinkVersion, error) {
	return r.store.AsOfLink(src, dst, linkType, axis, instant)
}

// History returns every version of a logical node, oldest-to-newest.
func (r *Runtime) History(logical string) ([]*graphstore.NodeVersion, error) {
	return r.store.History(logical)
}

// LinkHistory is the link-side analogue of History.
func (r *Runtime) LinkHistory(src, dst, linkType string) ([]*graphstore.LinkVersion, error) {
	return r.store.LinkHistory(src, dst, linkType)
}

// EnergyThreshold is one diagnostic (E, Θ) sample for Snapshot.
type EnergyThreshold struct {
	Logical   string
	E         float64
	Threshold float64
}

// SnapshotResult is the result of a Snapshot diagnostic query.
type SnapshotResult struct {
	Active []string
	Shadow []string
	Sample []EnergyThreshold
}

// Snapshot reports the active/shadow frontier sets and a bounded sample of
// (E, Θ) pairs. sampleSize caps the number of pairs returned (0 means
// unlimited), keeping the query cheap for large graphs.
func (r *Runtime) Snapshot(sampleSize int) *SnapshotResult {
	active := r.frontier.ActiveSnapshot()
	shadow := r.frontier.ShadowSnapshot()
	full := r.rstate.Snapshot()

	logicals := make([]string, 0, len(full))
	for l := range full {
		logicals = append(logicals, l)
	}
	sort.Strings(logicals)
	if sampleSize > 0 && len(logicals) > sampleSize {
		logicals = logicals[:sampleSize]
	}

	sample := make([]EnergyThreshold, 0, len(logicals))
	for _, l := range logicals {
		ns := full[l]
		sample = append(sample, EnergyThreshold{Logical: l, E: ns.E, Threshold: ns.Threshold})
	}

	return &SnapshotResult{Active: active, Shadow: shadow, Sample: sample}
}

// EntitySummary approximates a recovered entity as a top-degree neighborhood
// around one active node.
type EntitySummary struct {
	Center    string
	Energy    float64
	Neighbors []string
}

// ContextReconstructResult is the result of a ContextReconstruct call.
type ContextReconstructResult struct {
	EntitySummary       []EntitySummary
	NodesAboveThreshold []EnergyThreshold
	TickResults         []*TickResult
	SimilarityScore     *float64
}

// ContextReconstruct injects stimulus at entryTargets, runs up to maxTicks
// ticks, and reports the activation pattern that forms: which entities rose
// above threshold, how the active frontier evolved tick by tick, and
// optionally how that pattern compares to a reference snapshot.
func (r *Runtime) ContextReconstruct(entryTargets []stimulus.Target, budget float64, maxTicks int, referenceSnapshot map[string]float64) (*ContextReconstructResult, error) {
	if _, err := r.Inject(entryTargets, budget, nil); err != nil {
		return nil, err
	}

	results := make([]*TickResult, 0, maxTicks)
	now := time.Now()
	for i := 0; i < maxTicks; i++ {
		now = now.Add(time.Second)
		tr, err := r.Tick(now)
		if err != nil {
			return nil, err
		}
		results = append(results, tr)
	}

	active := r.frontier.ActiveSnapshot()
	above := make([]EnergyThreshold, 0, len(active))
	for _, l := range active {
		if ns, ok := r.rstate.Get(l); ok {
			above = append(above, EnergyThreshold{Logical: l, E: ns.E, Threshold: ns.Threshold})
		}
	}

	summaries := r.topDegreeEntities(active)

	result := &ContextReconstructResult{
		EntitySummary:       summaries,
		NodesAboveThreshold: above,
		TickResults:         results,
	}
	if referenceSnapshot != nil {
		score := cosineAgainstActive(above, referenceSnapshot)
		result.SimilarityScore = &score
	}
	return result, nil
}

// topDegreeEntities groups the active set into neighborhoods centered on the
// highest-out-degree active nodes, an approximation of "which entities are
// active" when entities aren't modeled as first-class graph objects.
func (r *Runtime) topDegreeEntities(active []string) []EntitySummary {
	type scored struct {
		logical   string
		degree    int
		neighbors []string
	}
	candidates := make([]scored, 0, len(active))
	for _, a := range active {
		links, err := r.store.AdjacencyOut(a)
		if err != nil {
			continue
		}
		neighbors := make([]string, 0, len(links))
		for _, l := range links {
			neighbors = append(neighbors, l.DstLogical)
		}
		candidates = append(candidates, scored{logical: a, degree: len(neighbors), neighbors: neighbors})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].degree != candidates[j].degree {
			return candidates[i].degree > candidates[j].degree
		}
		return candidates[i].logical < candidates[j].logical
	})

	covered := make(map[string]struct{})
	summaries := make([]EntitySummary, 0)
	for _, c := range candidates {
		if _, done := covered[c.logical]; done {
			continue
		}
		ns, _ := r.rstate.Get(c.logical)
		summaries = append(summaries, EntitySummary{Center: c.logical, Energy: ns.E, Neighbors: c.neighbors})
		covered[c.logical] = struct{}{}
		for _, n := range c.neighbors {
			covered[n] = struct{}{}
		}
	}
	return summaries
}

// cosineAgainstActive scores the reconstructed active pattern against a
// reference energy snapshot.
func cosineAgainstActive(above []EnergyThreshold, reference map[string]float64) float64 {
	var dot, na, nb float64
	seen := make(map[string]struct{}, len(above))
	for _, a := range above {
		seen[a.Logical] = struct{}{}
		dot += a.E * reference[a.Logical]
		na += a.E * a.E
	}
	for _, v := range reference {
		nb += v * v
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
