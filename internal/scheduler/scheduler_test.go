package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/graphmind/graphmind/internal/config"
)

func cfg() config.SchedulerConfig {
	return config.SchedulerConfig{
		MinDt:      100 * time.Millisecond,
		MaxDt:      2 * time.Second,
		EMAHorizon: 0,
	}
}

func TestAdvance_ClampsToMinDt(t *testing.T) {
	start := time.Now()
	s := New(cfg(), start)
	dt := s.Advance(start.Add(10 * time.Millisecond))
	require.Equal(t, 0.1, dt)
}

func TestAdvance_ClampsToMaxDt(t *testing.T) {
	start := time.Now()
	s := New(cfg(), start)
	dt := s.Advance(start.Add(10 * time.Second))
	require.Equal(t, 2.0, dt)
}

func TestAdvance_WithinBoundsPassesThrough(t *testing.T) {
	start := time.Now()
	s := New(cfg(), start)
	dt := s.Advance(start.Add(500 * time.Millisecond))
	require.InDelta(t, 0.5, dt, 1e-9)
}

func TestNoteStimulus_ResetsElapsedAnchor(t *testing.T) {
	start := time.Now()
	s := New(cfg(), start)
	s.NoteStimulus(start.Add(900 * time.Millisecond))
	dt := s.Advance(start.Add(950 * time.Millisecond))
	require.InDelta(t, 0.1, dt, 1e-9) // clamped up from 50ms elapsed since the stimulus
}

func TestCurrentDt_ReflectsLastAdvance(t *testing.T) {
	start := time.Now()
	s := New(cfg(), start)
	s.Advance(start.Add(500 * time.Millisecond))
	require.InDelta(t, 0.5, s.CurrentDt(), 1e-9)
}

func TestAdvance_EMASmoothsAcrossTicks(t *testing.T) {
	c := cfg()
	c.EMAHorizon = 4
	start := time.Now()
	s := New(c, start)

	first := s.Advance(start.Add(2 * time.Second)) // clamped to max on first sample
	require.Equal(t, 2.0, first)

	second := s.Advance(start.Add(2*time.Second + 200*time.Millisecond))
	require.Less(t, second, first) // EMA pulls the smoothed estimate down toward the new, smaller sample
}
