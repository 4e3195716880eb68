// Package runtime wires the whole engine together and owns the tick loop.
// It is the single-writer goroutine's home: every other package in this
// module is a leaf the tick loop orchestrates.
package runtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/graphmind/graphmind/internal/clog"
	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/criticality"
	"github.com/graphmind/graphmind/internal/decay"
	"github.com/graphmind/graphmind/internal/diffusion"
	"github.com/graphmind/graphmind/internal/events"
	"github.com/graphmind/graphmind/internal/frontier"
	"github.com/graphmind/graphmind/internal/graphstore"
	"github.com/graphmind/graphmind/internal/scheduler"
	"github.com/graphmind/graphmind/internal/state"
	"github.com/graphmind/graphmind/internal/stimulus"
	"github.com/graphmind/graphmind/internal/strengthen"
)

// defaultThreshold seeds Θ for nodes seen for the first time, absent any
// per-type override. Must stay in (0, 1].
const defaultThreshold = 0.1

// Runtime is the orchestrator: the tick loop plus every command/query the
// external surface (pkg/graphmind) delegates to.
type Runtime struct {
	store   *graphstore.Store
	rstate  *state.Runtime
	cfg     *config.Store

	frontier     *frontier.Sets
	diffusionEng *diffusion.Engine
	decayEng     *decay.Engine
	criticalEng  *criticality.Engine
	schedulerEng *scheduler.Scheduler
	strengthEng  *strengthen.Engine
	injector     *stimulus.Injector

	bus *events.Bus

	mu     sync.Mutex
	busy   bool
	tickID uint64

	// injectedSinceLastTick accumulates the energy that Inject calls made
	// between tick boundaries actually added (after saturation), consumed by
	// the conservation check on the next Tick.
	injectedSinceLastTick float64

	// totalEnergyCheckpoint is the summed energy of every live node as of the
	// end of the last Tick, the baseline the next tick's conservation check
	// diffs against (see tick.go).
	totalEnergyCheckpoint float64
}

// New wires a Runtime around an already-open store and configuration store.
func New(store *graphstore.Store, cfg *config.Store) *Runtime {
	rstate := state.New(defaultThreshold)
	dCfg := cfg.Get().Decay.ProfileFor("Default")

	r := &Runtime{
		store:        store,
		rstate:       rstate,
		cfg:          cfg,
		frontier:     frontier.New(),
		diffusionEng: diffusion.New(store, rstate),
		decayEng:     decay.New(rstate),
		criticalEng:  criticality.New(1-dCfg.LambdaE, cfg.Get().Diffusion.AlphaTick),
		schedulerEng: scheduler.New(cfg.Get().Scheduler, time.Now()),
		strengthEng:  strengthen.New(rstate),
		injector:     stimulus.New(store, rstate),
		bus:          events.NewBus(time.Now()),
	}
	return r
}

// Bus exposes the event stream subscription surface.
func (r *Runtime) Bus() *events.Bus { return r.bus }

// RuntimeState exposes the in-memory activation/weight state, for callers
// (e.g. pkg/graphmind's Snapshot) that need read-only access without going
// through a full query method.
func (r *Runtime) RuntimeState() *state.Runtime { return r.rstate }

// Close persists the durable weight table and closes the store.
func (r *Runtime) Close() error {
	if err := r.rstate.PersistWeights(r.store.DB()); err != nil {
		return fmt.Errorf("persisting weights: %w", err)
	}
	return r.store.Close()
}

func (r *Runtime) outNeighbors(logical string) []string {
	links, err := r.store.AdjacencyOut(logical)
	if err != nil {
		clog.For(clog.CategoryFrontier).Sugar().Warnw("adjacency lookup failed", "logical", logical, "error", err)
		return nil
	}
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.DstLogical)
	}
	return out
}

// reconcileAndCommit re-derives frontier membership for touched logical ids
// after an out-of-band energy change (e.g. Inject) and commits any flips.
func (r *Runtime) reconcileAndCommit(touched []string) {
	r.frontier.Reconcile(touched, func(l string) float64 {
		ns, _ := r.rstate.Get(l)
		return ns.E
	}, func(l string) float64 {
		ns, _ := r.rstate.Get(l)
		return ns.Threshold
	})
	r.frontier.Commit(r.outNeighbors)
}
