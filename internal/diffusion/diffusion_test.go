package diffusion

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/graphstore"
	"github.com/graphmind/graphmind/internal/state"
)

func newEngine(t *testing.T) (*Engine, *graphstore.Store, *state.Runtime) {
	t.Helper()
	store, err := graphstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.CreateNode("a", "Memory", "a", nil, nil)
	require.NoError(t, err)
	_, err = store.CreateNode("b", "Memory", "b", nil, nil)
	require.NoError(t, err)
	_, err = store.CreateLink("a", "b", "rel", 0.0, 1.0, nil)
	require.NoError(t, err)

	rt := state.New(0.1)
	rt.Weights().Seed(graphstore.LinkLogicalID("a", "b", "rel"), "rel", 0.0)
	rt.SetEnergy("a", 1.0)

	return New(store, rt), store, rt
}

func diffusionCfg() config.DiffusionConfig {
	return config.DiffusionConfig{AlphaTick: 0.5, BetaPerSourceCap: 0.5, TopK: 1, SoftmaxTemp: 1.0}
}

func TestRun_ZeroEnergySourceEmitsNoStrides(t *testing.T) {
	e, _, rt := newEngine(t)
	rt.SetEnergy("a", 0.0)

	delta, strides, err := e.Run([]string{"a"}, 1.0, diffusionCfg(), false)
	require.NoError(t, err)
	require.Empty(t, strides)
	require.Empty(t, delta)
}

func TestRun_StagesTransferWithinPerSourceCap(t *testing.T) {
	e, _, rt := newEngine(t)
	_, strides, err := e.Run([]string{"a"}, 1.0, diffusionCfg(), false)
	require.NoError(t, err)
	require.Len(t, strides, 1)

	cap := diffusionCfg().BetaPerSourceCap
	ns, _ := rt.Get("a")
	require.LessOrEqual(t, strides[0].DeltaE, cap*ns.E+1e-9)
}

func TestRun_StickinessCausesFlowLoss(t *testing.T) {
	e, _, rt := newEngine(t)
	rt.Weights().SetStickiness(graphstore.LinkLogicalID("a", "b", "rel"), 0.5)

	_, strides, err := e.Run([]string{"a"}, 1.0, diffusionCfg(), true)
	require.NoError(t, err)
	require.Len(t, strides, 1)
	require.Greater(t, strides[0].FlowLoss, 0.0)
}

func TestCommit_ClampsEnergyToUnitInterval(t *testing.T) {
	e, _, rt := newEngine(t)
	e.Commit(map[string]float64{"a": -5.0, "b": 5.0})

	na, _ := rt.Get("a")
	nb, _ := rt.Get("b")
	require.Equal(t, 0.0, na.E)
	require.Equal(t, 1.0, nb.E)
}

func TestCommit_ConservesSignOfDelta(t *testing.T) {
	e, _, rt := newEngine(t)
	delta, _, err := e.Run([]string{"a"}, 1.0, diffusionCfg(), false)
	require.NoError(t, err)

	e.Commit(delta)
	na, _ := rt.Get("a")
	nb, _ := rt.Get("b")
	require.Less(t, na.E, 1.0) // source lost energy
	require.Greater(t, nb.E, 0.0) // destination gained energy
}
