// Package frontier maintains the active/shadow membership sets the tick loop
// reads each frame. Updates within a tick are deferred: a flip computed from
// staged deltas is queued and only applied at commit, so readers never see
// a frontier that's half-updated mid-tick.
package frontier

import (
	"sort"

	"github.com/graphmind/graphmind/internal/clog"
)

// Direction is the sense of a threshold crossing.
type Direction int

const (
	DirectionUp Direction = iota
	DirectionDown
)

func (d Direction) String() string {
	if d == DirectionUp {
		return "up"
	}
	return "down"
}

// Flip records one node's threshold crossing for this tick.
type Flip struct {
	Logical   string
	Direction Direction
}

// Sets holds the active and shadow membership sets as of the last commit:
// Active = {n : E_n >= Θ_n}, Shadow = one-hop out-neighbors of Active minus
// Active.
type Sets struct {
	active map[string]struct{}
	shadow map[string]struct{}

	pending map[string]Direction // staged flips, cleared each tick

	// recentUp tracks nodes whose most recent flip was upward, independent
	// of the pending/committed cycle. Link strengthening's newness gate
	// needs to know whether a stride's source was itself
	// freshly recruited (e.g. by the stimulus injection that preceded this
	// tick) rather than a long-standing active hub; recentUp is that
	// signal. Callers clear it once consulted (see ClearRecent).
	recentUp map[string]struct{}
}

// New creates an empty frontier.
func New() *Sets {
	return &Sets{
		active:   make(map[string]struct{}),
		shadow:   make(map[string]struct{}),
		pending:  make(map[string]Direction),
		recentUp: make(map[string]struct{}),
	}
}

// WasRecentlyActivated reports whether logical's most recent flip (via
// Commit or Reconcile) was upward and has not yet been cleared.
func (s *Sets) WasRecentlyActivated(logical string) bool {
	_, ok := s.recentUp[logical]
	return ok
}

// ClearRecent resets the recently-activated tracking, called once the link
// strengthening pass has consulted it for the tick.
func (s *Sets) ClearRecent() {
	s.recentUp = make(map[string]struct{})
}

// Active reports whether logical is a currently committed active node.
func (s *Sets) Active(logical string) bool {
	_, ok := s.active[logical]
	return ok
}

// ActiveSnapshot returns a sorted copy of the active set's members,
// deterministic for event/determinism tests.
func (s *Sets) ActiveSnapshot() []string {
	out := make([]string, 0, len(s.active))
	for k := range s.active {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ShadowSnapshot returns a sorted copy of the shadow set's members.
func (s *Sets) ShadowSnapshot() []string {
	out := make([]string, 0, len(s.shadow))
	for k := range s.shadow {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Size returns the committed active set's cardinality (used by frame.start).
func (s *Sets) Size() int { return len(s.active) }

// StageFlip queues a threshold crossing for application at commit. Only the
// first flip recorded for a logical id in a tick is kept.
func (s *Sets) StageFlip(logical string, dir Direction) {
	if _, already := s.pending[logical]; already {
		return
	}
	s.pending[logical] = dir
}

// Commit applies all staged flips to the active set and returns them in
// deterministic (sorted by logical id) order for event emission. It then
// recomputes Shadow from the supplied adjacency lookup and clears staging.
func (s *Sets) Commit(outNeighbors func(logical string) []string) []Flip {
	logicals := make([]string, 0, len(s.pending))
	for l := range s.pending {
		logicals = append(logicals, l)
	}
	sort.Strings(logicals)

	flips := make([]Flip, 0, len(logicals))
	for _, l := range logicals {
		dir := s.pending[l]
		switch dir {
		case DirectionUp:
			s.active[l] = struct{}{}
			s.recentUp[l] = struct{}{}
		case DirectionDown:
			delete(s.active, l)
			delete(s.recentUp, l)
		}
		flips = append(flips, Flip{Logical: l, Direction: dir})
	}
	s.pending = make(map[string]Direction)

	shadow := make(map[string]struct{})
	for a := range s.active {
		for _, n := range outNeighbors(a) {
			if _, isActive := s.active[n]; isActive {
				continue
			}
			shadow[n] = struct{}{}
		}
	}
	s.shadow = shadow

	if len(flips) > 0 {
		clog.For(clog.CategoryFrontier).Sugar().Debugw("frontier flips committed", "count", len(flips))
	}
	return flips
}

// Reconcile evaluates every known node's energy against its threshold and
// stages a flip for any that disagree with the current committed set. Used
// once at startup (and after an energy-changing command outside the tick
// loop, e.g. a direct SetEnergy from Inject) to re-derive Active := {E >= Θ}
// without waiting for a tick.
func (s *Sets) Reconcile(logicals []string, energyOf func(string) float64, thresholdOf func(string) float64) {
	for _, l := range logicals {
		isActive := s.Active(l)
		shouldBeActive := energyOf(l) >= thresholdOf(l)
		if shouldBeActive && !isActive {
			s.StageFlip(l, DirectionUp)
		} else if !shouldBeActive && isActive {
			s.StageFlip(l, DirectionDown)
		}
	}
}
