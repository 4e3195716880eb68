// Package scheduler derives the per-tick Δt: base interval from
// elapsed wall time since the last event, clamped to configured bounds,
// with optional EMA smoothing. The last event is the later of the last
// stimulus and the previous tick, so a run of ticks without stimulus yields
// the tick-to-tick interval, not the time since the stimulus.
package scheduler

import (
	"sync"
	"time"

	"github.com/graphmind/graphmind/internal/config"
)

// Scheduler derives Δt for the tick loop from elapsed wall-clock time,
// optionally smoothed with an EMA over a configurable horizon.
type Scheduler struct {
	mu         sync.Mutex
	lastEvent  time.Time
	ema        float64
	emaPrimed  bool
	horizonDt  int
	currentDt  float64
	minDt      float64
	maxDt      float64
}

// New builds a scheduler seeded with the given configuration. now should be
// the scheduler's construction time, used as the initial "last event" anchor.
func New(cfg config.SchedulerConfig, now time.Time) *Scheduler {
	return &Scheduler{
		lastEvent: now,
		horizonDt: cfg.EMAHorizon,
		minDt:     cfg.MinDt.Seconds(),
		maxDt:     cfg.MaxDt.Seconds(),
		currentDt: cfg.MinDt.Seconds(),
	}
}

// NoteStimulus records that a stimulus arrived at t, resetting the elapsed-
// time anchor used by the next Advance call.
func (s *Scheduler) NoteStimulus(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastEvent = t
}

// Advance derives Δt for the upcoming tick from elapsed time since the last
// recorded event (stimulus or previous tick), clamps it to configured
// bounds, optionally smooths it with an EMA, and returns the result. now is
// the tick's start time.
func (s *Scheduler) Advance(now time.Time) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := now.Sub(s.lastEvent).Seconds()
	s.lastEvent = now

	dt := clamp(elapsed, s.minDt, s.maxDt)

	if s.horizonDt > 1 {
		alpha := 2.0 / (float64(s.horizonDt) + 1.0)
		if !s.emaPrimed {
			s.ema = dt
			s.emaPrimed = true
		} else {
			s.ema = alpha*dt + (1-alpha)*s.ema
		}
		dt = clamp(s.ema, s.minDt, s.maxDt)
	}

	s.currentDt = dt
	return dt
}

// CurrentDt returns the most recently derived Δt without advancing the
// scheduler.
func (s *Scheduler) CurrentDt() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentDt
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
