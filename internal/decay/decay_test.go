package decay

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/state"
)

func profiles() config.DecayConfig {
	return config.DecayConfig{
		Profiles: map[string]config.DecayProfile{
			"Memory":  {LambdaE: 0.9, LambdaW: 0.999},
			"Default": {LambdaE: 0.95, LambdaW: 0.999},
		},
		WeightCadence: 3,
	}
}

func TestApplyActivation_ExponentialDecayByType(t *testing.T) {
	rt := state.New(0.1)
	rt.SetEnergy("n1", 1.0)

	e := New(rt)
	e.ApplyActivation(map[string]string{"n1": "Memory"}, 1.0, profiles(), false, false)

	ns, ok := rt.Get("n1")
	require.True(t, ok)
	require.InDelta(t, 0.9, ns.E, 1e-9)
}

func TestApplyActivation_ResistanceStretchesEffectiveDt(t *testing.T) {
	rt := state.New(0.1)
	rt.SetEnergy("n1", 1.0)
	rt.SetModulators("n1", 2.0, 1.0) // resistance halves effective dt

	e := New(rt)
	e.ApplyActivation(map[string]string{"n1": "Memory"}, 2.0, profiles(), true, false)

	ns, _ := rt.Get("n1")
	expected := math.Pow(0.9, 1.0) // dt/resistance = 2.0/2.0 = 1.0
	require.InDelta(t, expected, ns.E, 1e-9)
}

func TestApplyActivation_ConsolidationExponentiatesRetention(t *testing.T) {
	rt := state.New(0.1)
	rt.SetEnergy("n1", 1.0)
	rt.SetModulators("n1", 1.0, 0.5)

	e := New(rt)
	e.ApplyActivation(map[string]string{"n1": "Memory"}, 1.0, profiles(), false, true)

	ns, _ := rt.Get("n1")
	expected := math.Pow(math.Pow(0.9, 1.0), 0.5)
	require.InDelta(t, expected, ns.E, 1e-9)
}

func TestTick_FiresOnConfiguredCadence(t *testing.T) {
	rt := state.New(0.1)
	e := New(rt)
	require.False(t, e.Tick(3))
	require.False(t, e.Tick(3))
	require.True(t, e.Tick(3))
}

func TestApplyWeightDecay_MultipliesLinksOfType(t *testing.T) {
	rt := state.New(0.1)
	rt.Weights().Seed("a->b#rel", "rel", 1.0)

	e := New(rt)
	e.ApplyWeightDecay([]string{"rel"}, config.DecayConfig{
		Profiles: map[string]config.DecayProfile{"rel": {LambdaE: 0.9, LambdaW: 0.5}},
	})

	logW, _, ok := rt.Weights().Get("a->b#rel")
	require.True(t, ok)
	require.InDelta(t, 0.5, logW, 1e-9)
}
