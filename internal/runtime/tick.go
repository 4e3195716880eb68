package runtime

import (
	"math"
	"sort"
	"time"

	"github.com/graphmind/graphmind/internal/clog"
	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/criticality"
	"github.com/graphmind/graphmind/internal/diffusion"
	"github.com/graphmind/graphmind/internal/errs"
	"github.com/graphmind/graphmind/internal/events"
)

// TickResult summarizes one completed frame, for callers driving the loop
// directly (e.g. ContextReconstruct, the CLI's `run` command).
type TickResult struct {
	TickID            uint64
	Dt                float64
	FrontierSize      int
	StrideCount       int
	EnergyTransferred float64
	EnergyDecay       float64
	ConservationError float64
	InvariantViolated bool
	CriticalityState  string
	RhoProxy          float64
	RhoSampled        *float64
}

// Tick advances the engine by exactly one frame: stage -> commit -> decay ->
// criticality -> emit, in that order (stride.exec* -> commit.summary ->
// node.flip* -> criticality.update -> frame.end).
func (r *Runtime) Tick(t time.Time) (*TickResult, error) {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return nil, &errs.Busy{Operation: "tick"}
	}
	r.busy = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.busy = false
		r.mu.Unlock()
	}()

	r.tickID++
	tickID := r.tickID
	log := clog.For(clog.CategoryTick)

	dt := r.schedulerEng.Advance(t)
	cfg := r.cfg.Get()

	// Step 1: snapshot Active from {E >= Θ} at frame start.
	activeBefore := r.frontier.ActiveSnapshot()
	r.bus.Emit(tickID, events.KindFrameStart, events.FrameStart{Dt: dt, FrontierSize: len(activeBefore)})

	liveNodes, err := r.store.IterateLiveNodes()
	if err != nil {
		return nil, err
	}
	nodeType := make(map[string]string, len(liveNodes))
	allLogicals := make([]string, 0, len(liveNodes))
	for _, n := range liveNodes {
		nodeType[n.LogicalID] = n.Type
		allLogicals = append(allLogicals, n.LogicalID)
	}
	sort.Strings(allLogicals)

	activeBeforeSet := make(map[string]struct{}, len(activeBefore))
	for _, l := range activeBefore {
		activeBeforeSet[l] = struct{}{}
	}

	// Branching-ratio inflow: the frame-start active nodes' pre-stride energies.
	var activeInflow float64
	for _, l := range activeBefore {
		if ns, ok := r.rstate.Get(l); ok {
			activeInflow += ns.E
		}
	}

	// Steps 2-3: stage strides into the per-tick delta buffer.
	delta, strides, err := r.diffusionEng.Run(activeBefore, dt, cfg.Diffusion, cfg.Flags.Stickiness)
	if err != nil {
		return nil, err
	}
	for _, s := range strides {
		r.bus.Emit(tickID, events.KindStrideExec, events.StrideExec{
			Src: s.Src, Dst: s.Dst, DeltaE: s.DeltaE, ESrcPre: s.ESrcPre, EDstPre: s.EDstPre,
			Score: s.Score, Reason: s.Reason,
		})
	}

	var totalTransferred, totalFlowLoss float64
	for _, s := range strides {
		totalTransferred += s.DeltaE
		totalFlowLoss += s.FlowLoss
	}

	// Step 4: commit diffusion atomically.
	r.diffusionEng.Commit(delta)

	// Step 5: activation decay, applied after commit.
	preDecay := make(map[string]float64, len(liveNodes))
	for _, n := range liveNodes {
		ns, _ := r.rstate.Get(n.LogicalID)
		preDecay[n.LogicalID] = ns.E
	}
	r.decayEng.ApplyActivation(nodeType, dt, cfg.Decay, cfg.Flags.DecayResistance, cfg.Flags.Consolidation)
	var energyDecay, totalAfterDecay float64
	for l, pre := range preDecay {
		ns, _ := r.rstate.Get(l)
		energyDecay += pre - ns.E
		totalAfterDecay += ns.E
	}

	// Step 5b: re-derive Active against Θ for every live node now that both
	// diffusion and decay have applied. A node touched only by decay (e.g.
	// an isolated sink with no incoming stride this tick) must still flip
	// down if it falls below threshold; diffusion-driven crossings are
	// caught the same way.
	r.frontier.Reconcile(allLogicals, func(l string) float64 {
		ns, _ := r.rstate.Get(l)
		return ns.E
	}, func(l string) float64 {
		ns, _ := r.rstate.Get(l)
		return ns.Threshold
	})

	injected := r.injectedSinceLastTick
	r.injectedSinceLastTick = 0

	// Conservation check (property 6): compare the actual total-energy delta
	// since the last tick's checkpoint (which already reflects any Inject
	// calls made in between) against injected - decayed - flow_through_loss,
	// computed independently. This is what actually catches clamping/
	// saturation drift — reconstructing one side from the other would only
	// ever check a tautology.
	actualDelta := totalAfterDecay - r.totalEnergyCheckpoint
	expectedDelta := injected - energyDecay - totalFlowLoss
	conservationError := math.Abs(actualDelta - expectedDelta)
	base := injected
	if base < 1e-9 {
		base = 1e-9
	}
	invariantViolated := conservationError > 0.01*base
	r.totalEnergyCheckpoint = totalAfterDecay

	r.bus.Emit(tickID, events.KindCommitSummary, events.CommitSummary{
		EnergyTransferred: totalTransferred,
		EnergyDecay:       energyDecay,
		ConservationError: conservationError,
	})
	if invariantViolated {
		r.bus.Emit(tickID, events.KindInvariantViolation, events.InvariantViolation{
			Reason: "tick conservation check exceeded tolerance",
			Error:  conservationError,
		})
		log.Sugar().Warnw("tick invariant violated", "tick_id", tickID, "error", conservationError)
	}

	flips := r.frontier.Commit(r.outNeighbors)
	for _, f := range flips {
		r.bus.Emit(tickID, events.KindNodeFlip, events.NodeFlip{Logical: f.Logical, Direction: f.Direction.String()})
	}

	// Step 6: criticality controller. Proxy every tick; authoritative
	// power-iteration sample on the configured coarser cadence.
	activeAfter := r.frontier.ActiveSnapshot()
	proxy := criticality.Proxy(totalTransferred, activeInflow)

	rhoHat := proxy
	var rhoSampled *float64
	if r.criticalEng.Tick(cfg.Criticality.SampleCadence) {
		edges := r.buildCriticalityEdges(activeAfter)
		sampled := proxy
		if len(activeAfter) > 0 {
			sampled = criticality.PowerIterate(activeAfter, edges, cfg.Criticality.PowerIterations, r.criticalEng.Delta(), r.criticalEng.Alpha())
		}
		rhoSampled = &sampled
		rhoHat = sampled
	}
	_, _, critState := r.criticalEng.Control(rhoHat, cfg.Criticality)
	r.bus.Emit(tickID, events.KindCriticalityUpdate, events.CriticalityUpdate{
		RhoProxy: proxy, RhoSampled: rhoSampled, State: critState.String(),
	})

	// Step 7: link strengthening from this tick's strides.
	if !invariantViolated {
		r.applyStrengthening(tickID, strides, activeBeforeSet)
	}
	r.frontier.ClearRecent()

	r.bus.Emit(tickID, events.KindFrameEnd, events.FrameEnd{})

	if r.decayEng.Tick(cfg.Decay.WeightCadence) {
		r.applyWeightDecay(cfg)
	}
	r.rstate.Weights().SealTypeStats()

	return &TickResult{
		TickID:            tickID,
		Dt:                dt,
		FrontierSize:      len(activeAfter),
		StrideCount:       len(strides),
		EnergyTransferred: totalTransferred,
		EnergyDecay:       energyDecay,
		ConservationError: conservationError,
		InvariantViolated: invariantViolated,
		CriticalityState:  critState.String(),
		RhoProxy:          proxy,
		RhoSampled:        rhoSampled,
	}, nil
}

// applyStrengthening runs the Hebbian newness gate over this
// tick's strides: the destination must have been sub-threshold at frame
// start and flipped active at commit; the source must have been freshly
// activated itself (by an injection since the previous tick), not a
// long-standing active hub (see frontier.WasRecentlyActivated).
func (r *Runtime) applyStrengthening(tickID uint64, strides []diffusion.Stride, activeBeforeSet map[string]struct{}) {
	cfg := r.cfg.Get().Strengthen
	for _, s := range strides {
		_, dstPreActive := activeBeforeSet[s.Dst]
		dstPostActive := r.frontier.Active(s.Dst)
		srcFresh := r.frontier.WasRecentlyActivated(s.Src)

		_, linkType, ok := r.rstate.Weights().Get(s.LinkLogical)
		if !ok {
			continue
		}

		update, applied := r.strengthEng.Consider(s.LinkLogical, linkType, !srcFresh, dstPreActive, dstPostActive, s.EDstPre, thresholdOf(r, s.Dst), s.DeltaE, cfg)
		if !applied {
			continue
		}
		r.bus.Emit(tickID, events.KindWeightsUpdated, events.WeightsUpdated{LinkID: update.LinkLogical, DeltaLogW: update.DeltaLogW})
	}
}

func thresholdOf(r *Runtime, logical string) float64 {
	ns, _ := r.rstate.Get(logical)
	return ns.Threshold
}

func (r *Runtime) applyWeightDecay(cfg *config.Config) {
	links, err := r.store.AllLiveLinks()
	if err != nil {
		clog.For(clog.CategoryDecay).Sugar().Warnw("weight decay skipped, live link lookup failed", "error", err)
		return
	}
	seen := make(map[string]struct{})
	linkTypes := make([]string, 0)
	for _, l := range links {
		if _, ok := seen[l.Type]; !ok {
			seen[l.Type] = struct{}{}
			linkTypes = append(linkTypes, l.Type)
		}
	}
	r.decayEng.ApplyWeightDecay(linkTypes, cfg.Decay)
}

func (r *Runtime) buildCriticalityEdges(active []string) []criticality.Edge {
	var edges []criticality.Edge
	for _, a := range active {
		links, err := r.store.AdjacencyOut(a)
		if err != nil {
			continue
		}
		for _, l := range links {
			edges = append(edges, criticality.Edge{
				Src:    a,
				Dst:    l.DstLogical,
				Weight: r.rstate.Weights().StandardizedRead(l.LogicalID),
			})
		}
	}
	return edges
}
