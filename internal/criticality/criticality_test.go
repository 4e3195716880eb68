package criticality

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphmind/graphmind/internal/config"
)

func TestProxy_ZeroInflowReturnsZero(t *testing.T) {
	require.Equal(t, 0.0, Proxy(5.0, 0))
}

func TestProxy_RatioOfOutflowToInflow(t *testing.T) {
	require.InDelta(t, 0.5, Proxy(1.0, 2.0), 1e-9)
}

func TestPowerIterate_EmptyActiveReturnsZero(t *testing.T) {
	require.Equal(t, 0.0, PowerIterate(nil, nil, 10, 0.1, 0.5))
}

func TestPowerIterate_SingleSelfLoopConverges(t *testing.T) {
	active := []string{"a"}
	edges := []Edge{{Src: "a", Dst: "a", Weight: 1.0}}
	rho := PowerIterate(active, edges, 20, 0.1, 0.5)
	// T reduces to a scalar (1-delta): (1-alpha) + alpha*1 = 1, so rho == 1-delta.
	require.InDelta(t, 0.9, rho, 1e-6)
}

func TestControl_PushesDeltaTowardTarget(t *testing.T) {
	e := New(0.1, 0.5)
	cfg := config.CriticalityConfig{Target: 1.0, KP: 0.1, DeltaMin: 0.0, DeltaMax: 1.0, Hysteresis: 0.02}

	delta, _, _ := e.Control(1.5, cfg) // rho above target should raise delta (more decay)
	require.Greater(t, delta, 0.1)
}

func TestControl_StateEntersSupercriticalAboveHighBand(t *testing.T) {
	e := New(0.1, 0.5)
	cfg := config.CriticalityConfig{Target: 1.0, KP: 0.0, DeltaMin: 0.0, DeltaMax: 1.0, Hysteresis: 0.0}
	_, _, state := e.Control(1.5, cfg)
	require.Equal(t, Supercritical, state)
}

func TestControl_StateEntersSubcriticalBelowLowBand(t *testing.T) {
	e := New(0.1, 0.5)
	cfg := config.CriticalityConfig{Target: 1.0, KP: 0.0, DeltaMin: 0.0, DeltaMax: 1.0, Hysteresis: 0.0}
	_, _, state := e.Control(0.5, cfg)
	require.Equal(t, Subcritical, state)
}

func TestTick_SampleCadence(t *testing.T) {
	e := New(0.1, 0.5)
	require.False(t, e.Tick(2))
	require.True(t, e.Tick(2))
}
