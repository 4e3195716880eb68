// Package events implements the structured event stream: a
// closed, tagged-union Event type covering every frame/stride/version record
// the runtime emits, plus a bounded-buffer subscriber bus. A fixed Kind enum
// pairs with a per-kind payload struct, serialized the same way for every
// subscriber.
package events

import "time"

// Kind enumerates the closed set of event variants. New variants require an
// explicit addition here and an explicit case in every switch over Kind.
type Kind string

const (
	KindFrameStart        Kind = "frame.start"
	KindStimulusInject    Kind = "stimulus.inject"
	KindStrideExec        Kind = "stride.exec"
	KindNodeFlip          Kind = "node.flip"
	KindCommitSummary     Kind = "commit.summary"
	KindCriticalityUpdate Kind = "criticality.update"
	KindWeightsUpdated    Kind = "weights.updated"
	KindVersionCreate     Kind = "version.create"
	KindVersionSupersede  Kind = "version.supersede"
	KindFrameEnd          Kind = "frame.end"
	KindEnergyHistogram   Kind = "energy.histogram"
	KindWeightHistogram   Kind = "weight.histogram"
	KindInvariantViolation Kind = "invariant.violation"
)

// Event is one record in the stream. Payload holds one of the typed structs
// below, selected by Kind.
type Event struct {
	Seq     uint64    `json:"seq"`
	TickID  uint64    `json:"tick_id"`
	TsMono  int64     `json:"ts_mono"` // monotonic nanoseconds since the bus's start time (see NewBus)
	TsWall  time.Time `json:"ts_wall"`
	Kind    Kind      `json:"kind"`
	Payload any       `json:"payload"`
}

// FrameStart is emitted at the top of every tick.
type FrameStart struct {
	Dt           float64 `json:"dt"`
	FrontierSize int     `json:"frontier_size"`
}

// TargetWeight is one (logical_id, weight) pair, mirrored here rather than
// imported from internal/stimulus to keep the event payload set
// self-contained and import-cycle-free.
type TargetWeight struct {
	Logical string  `json:"logical"`
	Weight  float64 `json:"weight"`
}

// StimulusInject is emitted once per Inject call.
type StimulusInject struct {
	Targets []TargetWeight `json:"targets"`
	Budget  float64        `json:"budget"`
}

// StrideExec is emitted for every selected edge transfer.
type StrideExec struct {
	Src     string  `json:"src"`
	Dst     string  `json:"dst"`
	DeltaE  float64 `json:"delta_e"`
	ESrcPre float64 `json:"e_src_pre"`
	EDstPre float64 `json:"e_dst_pre"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason"`
}

// NodeFlip is emitted once per threshold crossing per tick.
type NodeFlip struct {
	Logical   string `json:"logical_id"`
	Direction string `json:"direction"` // "up" or "down"
}

// CommitSummary closes out the commit phase of a tick.
type CommitSummary struct {
	EnergyTransferred float64 `json:"energy_transferred"`
	EnergyDecay       float64 `json:"energy_decay"`
	ConservationError float64 `json:"conservation_error"`
}

// CriticalityUpdate reports the ρ estimate and safety state.
type CriticalityUpdate struct {
	RhoProxy   float64  `json:"rho_proxy"`
	RhoSampled *float64 `json:"rho_sampled,omitempty"`
	State      string   `json:"state"`
}

// WeightsUpdated is emitted for every applied Hebbian adjustment.
type WeightsUpdated struct {
	LinkID    string  `json:"link_id"`
	DeltaLogW float64 `json:"delta_log_w"`
}

// VersionCreate is emitted by CreateNode/CreateLink.
type VersionCreate struct {
	LogicalID   string `json:"logical_id"`
	VersionID   string `json:"version_id"`
	Retroactive bool   `json:"retroactive"`
}

// VersionSupersede is emitted by SupersedeNode/SupersedeLink.
type VersionSupersede struct {
	LogicalID  string `json:"logical_id"`
	OldVersion string `json:"old_version"`
	NewVersion string `json:"new_version"`
}

// FrameEnd closes out a tick.
type FrameEnd struct{}

// HistogramBucket is one bucket of a coarse-cadence aggregate histogram.
type HistogramBucket struct {
	UpperBound float64 `json:"upper_bound"`
	Count      int     `json:"count"`
}

// EnergyHistogram reports per-type activation-energy buckets.
type EnergyHistogram struct {
	ByType map[string][]HistogramBucket `json:"by_type"`
}

// WeightHistogram reports per-type W_log buckets.
type WeightHistogram struct {
	ByType map[string][]HistogramBucket `json:"by_type"`
}

// InvariantViolation is emitted when a tick's conservation/ordering check
// fails.
type InvariantViolation struct {
	Reason string  `json:"reason"`
	Error  float64 `json:"error"`
}

// critical reports whether a kind must never be silently dropped by the
// bounded subscriber buffer.
func critical(k Kind) bool {
	switch k {
	case KindFrameEnd, KindCommitSummary, KindInvariantViolation, KindVersionCreate, KindVersionSupersede:
		return true
	default:
		return false
	}
}
