package runtime

import (
	"time"

	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/errs"
	"github.com/graphmind/graphmind/internal/events"
	"github.com/graphmind/graphmind/internal/graphstore"
	"github.com/graphmind/graphmind/internal/stimulus"
)

// CreateNode registers the first version of a logical node and emits a
// version.create event.
func (r *Runtime) CreateNode(logical, nodeType, description string, meta map[string]any, validFrom *time.Time) (string, error) {
	versionID, err := r.store.CreateNode(logical, nodeType, description, meta, validFrom)
	if err != nil {
		return "", err
	}
	r.rstate.Ensure(logical)

	retroactive, _ := r.store.Retroactive(versionID)
	r.bus.Emit(r.currentTickID(), events.KindVersionCreate, events.VersionCreate{
		LogicalID: logical, VersionID: versionID, Retroactive: retroactive,
	})
	return versionID, nil
}

// SupersedeNode closes the current version of a logical node and chains a
// new one, emitting a version.supersede event.
func (r *Runtime) SupersedeNode(logical, newDescription string, newValidFrom *time.Time) (string, error) {
	old, err := r.store.LiveNode(logical)
	if err != nil {
		return "", err
	}
	newVersionID, err := r.store.SupersedeNode(logical, newDescription, newValidFrom)
	if err != nil {
		return "", err
	}
	r.bus.Emit(r.currentTickID(), events.KindVersionSupersede, events.VersionSupersede{
		LogicalID: logical, OldVersion: old.VersionID, NewVersion: newVersionID,
	})
	return newVersionID, nil
}

// CreateLink registers the first version of a logical link and seeds its
// weight-table entry.
func (r *Runtime) CreateLink(src, dst, linkType string, weightLog, confidence float64, validFrom *time.Time) (string, error) {
	versionID, err := r.store.CreateLink(src, dst, linkType, weightLog, confidence, validFrom)
	if err != nil {
		return "", err
	}
	logicalID := graphstore.LinkLogicalID(src, dst, linkType)
	r.rstate.Weights().Seed(logicalID, linkType, weightLog)
	r.rstate.Weights().SealTypeStats()

	r.bus.Emit(r.currentTickID(), events.KindVersionCreate, events.VersionCreate{
		LogicalID: logicalID, VersionID: versionID, Retroactive: false,
	})
	return versionID, nil
}

// SupersedeLink closes the current version of a logical link and chains a
// corrected one, updating its weight-table entry.
func (r *Runtime) SupersedeLink(src, dst, linkType string, newWeightLog, newConfidence float64, newValidFrom *time.Time) (string, error) {
	logicalID := graphstore.LinkLogicalID(src, dst, linkType)
	old, err := r.store.AsOfLink(src, dst, linkType, graphstore.AxisKnowledge, time.Now().UTC())
	if err != nil {
		return "", err
	}
	newVersionID, err := r.store.SupersedeLink(src, dst, linkType, newWeightLog, newConfidence, newValidFrom)
	if err != nil {
		return "", err
	}
	r.rstate.Weights().Set(logicalID, linkType, newWeightLog)
	r.rstate.Weights().SealTypeStats()

	oldVersionID := ""
	if old != nil {
		oldVersionID = old.VersionID
	}
	r.bus.Emit(r.currentTickID(), events.KindVersionSupersede, events.VersionSupersede{
		LogicalID: logicalID, OldVersion: oldVersionID, NewVersion: newVersionID,
	})
	return newVersionID, nil
}

// Inject applies a weighted stimulus batch to node energies. deadline is
// honored by the busy check below: if the tick loop is running and the
// deadline has already passed, the injection fails with Busy rather than
// blocking.
func (r *Runtime) Inject(targets []stimulus.Target, budget float64, deadline *time.Time) (*stimulus.Report, error) {
	r.mu.Lock()
	busy := r.busy
	r.mu.Unlock()
	if busy && deadline != nil && time.Now().After(*deadline) {
		return nil, &errs.Busy{Operation: "inject"}
	}

	report, err := r.injector.Inject(targets, budget, r.cfg.Get().Stimulus)
	if err != nil {
		return nil, err
	}

	var added float64
	for _, a := range report.Applied {
		added += a.DeltaE
	}
	r.mu.Lock()
	r.injectedSinceLastTick += added
	r.mu.Unlock()

	r.schedulerEng.NoteStimulus(time.Now())

	touched := make([]string, 0, len(targets))
	tw := make([]events.TargetWeight, 0, len(targets))
	for _, t := range targets {
		touched = append(touched, t.Logical)
		tw = append(tw, events.TargetWeight{Logical: t.Logical, Weight: t.Weight})
	}
	r.reconcileAndCommit(touched)

	r.bus.Emit(r.currentTickID(), events.KindStimulusInject, events.StimulusInject{Targets: tw, Budget: budget})
	return report, nil
}

// ConfigureDecay hot-reloads per-type decay profiles, merging them into
// the current configuration.
func (r *Runtime) ConfigureDecay(profiles map[string]config.DecayProfile) {
	cfg := r.cfg.Get()
	next := *cfg
	merged := make(map[string]config.DecayProfile, len(cfg.Decay.Profiles)+len(profiles))
	for k, v := range cfg.Decay.Profiles {
		merged[k] = v
	}
	for k, v := range profiles {
		merged[k] = v
	}
	next.Decay.Profiles = merged
	r.cfg.Set(&next)
}

// ConfigureCriticality updates the criticality controller's target and gains.
func (r *Runtime) ConfigureCriticality(target, kp, kAlpha float64, cadence int) {
	cfg := r.cfg.Get()
	next := *cfg
	next.Criticality.Target = target
	next.Criticality.KP = kp
	next.Criticality.KAlpha = kAlpha
	next.Criticality.SampleCadence = cadence
	r.cfg.Set(&next)
}

func (r *Runtime) currentTickID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickID
}
