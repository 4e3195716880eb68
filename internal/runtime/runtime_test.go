package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/events"
	"github.com/graphmind/graphmind/internal/graphstore"
	"github.com/graphmind/graphmind/internal/stimulus"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	store, err := graphstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.Scheduler.MinDt = 10 * time.Millisecond
	cfg.Scheduler.MaxDt = 10 * time.Second
	cfg.Scheduler.EMAHorizon = 0
	cfgStore := config.NewStore(cfg)

	return New(store, cfgStore)
}

func TestCreateNode_EmitsVersionCreate(t *testing.T) {
	r := newTestRuntime(t)
	ch, unsub := r.Bus().Subscribe(8)
	defer unsub()

	_, err := r.CreateNode("a", "Memory", "a", nil, nil)
	require.NoError(t, err)

	ev := <-ch
	require.Equal(t, events.KindVersionCreate, ev.Kind)
}

func TestTick_InjectThenTickRaisesFrontier(t *testing.T) {
	r := newTestRuntime(t)
	_, err := r.CreateNode("a", "Memory", "a", nil, nil)
	require.NoError(t, err)
	_, err = r.CreateNode("b", "Memory", "b", nil, nil)
	require.NoError(t, err)
	_, err = r.CreateLink("a", "b", "rel", 0.5, 1.0, nil)
	require.NoError(t, err)

	_, err = r.Inject([]stimulus.Target{{Logical: "a", Weight: 1.0}}, 1.0, nil)
	require.NoError(t, err)

	result, err := r.Tick(time.Now().Add(time.Second))
	require.NoError(t, err)
	require.False(t, result.InvariantViolated)
	require.GreaterOrEqual(t, result.FrontierSize, 1)
}

func TestTick_BusyRejectsConcurrentTick(t *testing.T) {
	r := newTestRuntime(t)
	r.mu.Lock()
	r.busy = true
	r.mu.Unlock()

	_, err := r.Tick(time.Now())
	require.Error(t, err)
}

func TestSnapshot_ReflectsInjectedEnergy(t *testing.T) {
	r := newTestRuntime(t)
	_, err := r.CreateNode("a", "Memory", "a", nil, nil)
	require.NoError(t, err)

	_, err = r.Inject([]stimulus.Target{{Logical: "a", Weight: 1.0}}, 1.0, nil)
	require.NoError(t, err)

	snap := r.Snapshot(0)
	require.Contains(t, snap.Active, "a")
}

func TestContextReconstruct_RunsTicksAndReportsActive(t *testing.T) {
	r := newTestRuntime(t)
	_, err := r.CreateNode("a", "Memory", "a", nil, nil)
	require.NoError(t, err)
	_, err = r.CreateNode("b", "Memory", "b", nil, nil)
	require.NoError(t, err)
	_, err = r.CreateLink("a", "b", "rel", 0.5, 1.0, nil)
	require.NoError(t, err)

	result, err := r.ContextReconstruct([]stimulus.Target{{Logical: "a", Weight: 1.0}}, 1.0, 3, nil)
	require.NoError(t, err)
	require.Len(t, result.TickResults, 3)
	require.NotEmpty(t, result.NodesAboveThreshold)
}
