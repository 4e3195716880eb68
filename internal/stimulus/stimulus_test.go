package stimulus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/errs"
	"github.com/graphmind/graphmind/internal/graphstore"
	"github.com/graphmind/graphmind/internal/state"
)

func newInjector(t *testing.T) (*Injector, *graphstore.Store, *state.Runtime) {
	t.Helper()
	store, err := graphstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.CreateNode("n1", "Memory", "n1", nil, nil)
	require.NoError(t, err)
	_, err = store.CreateNode("n2", "Memory", "n2", nil, nil)
	require.NoError(t, err)

	rt := state.New(0.1)
	return New(store, rt), store, rt
}

func testCfg() config.StimulusConfig {
	return config.StimulusConfig{MaxBudget: 10.0, AffectivePriming: 0.2}
}

func TestInject_AppliesWeightedBudget(t *testing.T) {
	inj, _, rt := newInjector(t)
	report, err := inj.Inject([]Target{{Logical: "n1", Weight: 0.6}, {Logical: "n2", Weight: 0.4}}, 1.0, testCfg())
	require.NoError(t, err)
	require.Len(t, report.Applied, 2)

	ns, _ := rt.Get("n1")
	require.Greater(t, ns.E, 0.0)
}

func TestInject_RejectsBudgetOutOfRange(t *testing.T) {
	inj, _, _ := newInjector(t)
	_, err := inj.Inject([]Target{{Logical: "n1", Weight: 1.0}}, 100.0, testCfg())
	require.Error(t, err)
	require.IsType(t, &errs.BudgetOutOfRange{}, err)
}

func TestInject_RejectsWeightsNotSummingToOne(t *testing.T) {
	inj, _, _ := newInjector(t)
	_, err := inj.Inject([]Target{{Logical: "n1", Weight: 0.9}}, 1.0, testCfg())
	require.Error(t, err)
	require.IsType(t, &errs.IntervalInvariantViolation{}, err)
}

func TestInject_RejectsUnknownTarget(t *testing.T) {
	inj, _, _ := newInjector(t)
	_, err := inj.Inject([]Target{{Logical: "missing", Weight: 1.0}}, 1.0, testCfg())
	require.Error(t, err)
	require.IsType(t, &errs.UnknownTarget{}, err)
}

func TestInject_RejectsEmptyTargetList(t *testing.T) {
	inj, _, _ := newInjector(t)
	_, err := inj.Inject(nil, 1.0, testCfg())
	require.Error(t, err)
}

func TestInject_AllOrNothingOnInvalidBatch(t *testing.T) {
	inj, _, rt := newInjector(t)
	_, err := inj.Inject([]Target{{Logical: "n1", Weight: 0.5}, {Logical: "missing", Weight: 0.5}}, 1.0, testCfg())
	require.Error(t, err)

	ns, _ := rt.Get("n1")
	require.Equal(t, 0.0, ns.E) // n1 must not have been partially written
}

func TestApplyAffectivePriming_NoopWhenBelowFloor(t *testing.T) {
	targets := []Target{{Logical: "n1", Weight: 0.5}, {Logical: "n2", Weight: 0.5}}
	out := ApplyAffectivePriming(targets, map[string]float64{"x": 0.001}, nil, 0.2, 0.1, testCfg())
	require.Equal(t, targets, out)
}

func TestApplyAffectivePriming_ReweightsBySimilarity(t *testing.T) {
	targets := []Target{{Logical: "n1", Weight: 0.5}, {Logical: "n2", Weight: 0.5}}
	affect := map[string]float64{"joy": 1.0}
	embeddings := map[string]map[string]float64{
		"n1": {"joy": 1.0},
		"n2": {"joy": -1.0},
	}
	out := ApplyAffectivePriming(targets, affect, embeddings, 0.2, 0.1, testCfg())
	require.Greater(t, out[0].Weight, out[1].Weight)

	var sum float64
	for _, o := range out {
		sum += o.Weight
	}
	require.InDelta(t, 1.0, sum, 1e-9)
}
