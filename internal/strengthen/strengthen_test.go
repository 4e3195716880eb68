package strengthen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/state"
)

func testCfg() config.StrengthenConfig {
	return config.StrengthenConfig{Eta: 0.1, SoftCeiling: 2.0}
}

func TestConsider_NewnessGateRejectsTwoActiveEndpoints(t *testing.T) {
	rt := state.New(0.1)
	rt.Weights().Seed("a->b#rel", "rel", 0.0)
	e := New(rt)

	update, applied := e.Consider("a->b#rel", "rel", true, true, true, 0.05, 0.1, 0.2, testCfg())
	require.False(t, applied)
	require.Nil(t, update)
}

func TestConsider_NewnessGateRejectsAlreadyActiveSource(t *testing.T) {
	rt := state.New(0.1)
	rt.Weights().Seed("a->b#rel", "rel", 0.0)
	e := New(rt)

	update, applied := e.Consider("a->b#rel", "rel", true, false, true, 0.05, 0.1, 0.2, testCfg())
	require.False(t, applied)
	require.Nil(t, update)
}

func TestConsider_RejectsWhenDestinationDidNotFlipActive(t *testing.T) {
	rt := state.New(0.1)
	rt.Weights().Seed("a->b#rel", "rel", 0.0)
	e := New(rt)

	update, applied := e.Consider("a->b#rel", "rel", false, false, false, 0.05, 0.1, 0.2, testCfg())
	require.False(t, applied)
	require.Nil(t, update)
}

func TestConsider_AppliesWhenBothEndpointsFreshAndDestFlips(t *testing.T) {
	rt := state.New(0.1)
	rt.Weights().Seed("a->b#rel", "rel", 0.0)
	e := New(rt)

	update, applied := e.Consider("a->b#rel", "rel", false, false, true, 0.05, 0.1, 0.2, testCfg())
	require.True(t, applied)
	require.NotNil(t, update)
	require.Equal(t, "a->b#rel", update.LinkLogical)
}

func TestConsider_SubsequentCallsBuildRollingZScore(t *testing.T) {
	rt := state.New(0.1)
	rt.Weights().Seed("a->b#rel", "rel", 0.0)
	e := New(rt)

	for i := 0; i < 5; i++ {
		_, applied := e.Consider("a->b#rel", "rel", false, false, true, 0.05, 0.1, 0.01*float64(i+1), testCfg())
		require.True(t, applied)
	}
	logW, _, _ := rt.Weights().Get("a->b#rel")
	require.NotEqual(t, 0.0, logW)
}
