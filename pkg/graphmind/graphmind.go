// Package graphmind is the transport-agnostic public facade over the
// runtime: a single Engine type embedding the command/query surface, so
// callers (the CLI, or an embedding program) never reach into internal/
// directly. Every method returns typed results rather than printing, since
// this package is a library surface rather than a CLI itself.
package graphmind

import (
	"time"

	"github.com/graphmind/graphmind/internal/clog"
	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/events"
	"github.com/graphmind/graphmind/internal/graphstore"
	"github.com/graphmind/graphmind/internal/runtime"
	"github.com/graphmind/graphmind/internal/stimulus"
)

// Axis re-exports graphstore.Axis so callers never import internal/.
type Axis = graphstore.Axis

const (
	AxisReality   = graphstore.AxisReality
	AxisKnowledge = graphstore.AxisKnowledge
)

type (
	NodeVersion              = graphstore.NodeVersion
	LinkVersion              = graphstore.LinkVersion
	Target                   = stimulus.Target
	StimulusReport           = stimulus.Report
	TickResult               = runtime.TickResult
	SnapshotResult           = runtime.SnapshotResult
	EnergyThreshold          = runtime.EnergyThreshold
	EntitySummary            = runtime.EntitySummary
	ContextReconstructResult = runtime.ContextReconstructResult
	Event                    = events.Event
	DecayProfile             = config.DecayProfile
)

// Options configures a new Engine.
type Options struct {
	// StorePath is the sqlite database file backing the graph store.
	StorePath string
	// ConfigPath, if set, is loaded as the initial configuration and
	// hot-reloaded on change. If empty,
	// config.Default() is used and no file watch is installed.
	ConfigPath string
}

// Engine is the embeddable, process-local runtime: one graph store, one
// configuration, one tick loop.
type Engine struct {
	store   *graphstore.Store
	cfg     *config.Store
	rt      *runtime.Runtime
	watcher *config.Watcher
}

// Open creates or attaches to a graph store at opts.StorePath and wires a
// runtime around it.
func Open(opts Options) (*Engine, error) {
	store, err := graphstore.Open(opts.StorePath)
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			store.Close()
			return nil, err
		}
	} else {
		cfg = config.Default()
	}
	cfgStore := config.NewStore(cfg)

	var watcher *config.Watcher
	if opts.ConfigPath != "" {
		watcher, err = config.WatchFile(opts.ConfigPath, cfgStore)
		if err != nil {
			clog.For(clog.CategoryConfig).Sugar().Warnw("config hot-reload unavailable", "path", opts.ConfigPath, "error", err)
			watcher = nil
		}
	}

	rt := runtime.New(store, cfgStore)
	if err := rt.RuntimeState().LoadWeights(store.DB()); err != nil {
		store.Close()
		return nil, err
	}

	return &Engine{store: store, cfg: cfgStore, rt: rt, watcher: watcher}, nil
}

// Close persists durable state and releases all resources.
func (e *Engine) Close() error {
	if e.watcher != nil {
		_ = e.watcher.Close()
	}
	return e.rt.Close()
}

// Subscribe returns a bounded event channel and an unsubscribe func.
func (e *Engine) Subscribe(capacity int) (<-chan Event, func()) {
	return e.rt.Bus().Subscribe(capacity)
}

// Tick advances the engine by exactly one frame.
func (e *Engine) Tick(at time.Time) (*TickResult, error) { return e.rt.Tick(at) }

// CreateNode forwards to Runtime.CreateNode.
func (e *Engine) CreateNode(logical, nodeType, description string, meta map[string]any, validFrom *time.Time) (string, error) {
	return e.rt.CreateNode(logical, nodeType, description, meta, validFrom)
}

// SupersedeNode forwards to Runtime.SupersedeNode.
func (e *Engine) SupersedeNode(logical, newDescription string, newValidFrom *time.Time) (string, error) {
	return e.rt.SupersedeNode(logical, newDescription, newValidFrom)
}

// CreateLink forwards to Runtime.CreateLink.
func (e *Engine) CreateLink(src, dst, linkType string, weightLog, confidence float64, validFrom *time.Time) (string, error) {
	return e.rt.CreateLink(src, dst, linkType, weightLog, confidence, validFrom)
}

// SupersedeLink forwards to Runtime.SupersedeLink.
func (e *Engine) SupersedeLink(src, dst, linkType string, newWeightLog, newConfidence float64, newValidFrom *time.Time) (string, error) {
	return e.rt.SupersedeLink(src, dst, linkType, newWeightLog, newConfidence, newValidFrom)
}

// Inject forwards to Runtime.Inject.
func (e *Engine) Inject(targets []Target, budget float64, deadline *time.Time) (*StimulusReport, error) {
	return e.rt.Inject(targets, budget, deadline)
}

// ConfigureDecay forwards to Runtime.ConfigureDecay.
func (e *Engine) ConfigureDecay(profiles map[string]DecayProfile) {
	e.rt.ConfigureDecay(profiles)
}

// ConfigureCriticality forwards to Runtime.ConfigureCriticality.
func (e *Engine) ConfigureCriticality(target, kp, kAlpha float64, cadence int) {
	e.rt.ConfigureCriticality(target, kp, kAlpha, cadence)
}

// AsOfNode forwards to Runtime.AsOfNode.
func (e *Engine) AsOfNode(logical string, axis Axis, instant time.Time) (*NodeVersion, error) {
	return e.rt.AsOfNode(logical, axis, instant)
}

// AsOfLink forwards to Runtime.AsOfLink.
func (e *Engine) AsOfLink(src, dst, linkType string, axis Axis, instant time.Time) (*LinkVersion, error) {
	return e.rt.AsOfLink(src, dst, linkType, axis, instant)
}

// History forwards to Runtime.History.
func (e *Engine) History(logical string) ([]*NodeVersion, error) { return e.rt.History(logical) }

// LinkHistory is the link-side analogue of History.
func (e *Engine) LinkHistory(src, dst, linkType string) ([]*LinkVersion, error) {
	return e.rt.LinkHistory(src, dst, linkType)
}

// Snapshot forwards to Runtime.Snapshot.
func (e *Engine) Snapshot(sampleSize int) *SnapshotResult { return e.rt.Snapshot(sampleSize) }

// ContextReconstruct forwards to Runtime.ContextReconstruct.
func (e *Engine) ContextReconstruct(entryTargets []Target, budget float64, maxTicks int, referenceSnapshot map[string]float64) (*ContextReconstructResult, error) {
	return e.rt.ContextReconstruct(entryTargets, budget, maxTicks, referenceSnapshot)
}
