package frontier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func noNeighbors(string) []string { return nil }

func TestStageFlip_CommitAppliesUpThenDown(t *testing.T) {
	s := New()

	s.StageFlip("n1", DirectionUp)
	flips := s.Commit(noNeighbors)
	require.Len(t, flips, 1)
	require.Equal(t, DirectionUp, flips[0].Direction)
	require.True(t, s.Active("n1"))

	s.StageFlip("n1", DirectionDown)
	flips = s.Commit(noNeighbors)
	require.Len(t, flips, 1)
	require.Equal(t, DirectionDown, flips[0].Direction)
	require.False(t, s.Active("n1"))
}

func TestStageFlip_OnlyFirstFlipPerTickKept(t *testing.T) {
	s := New()
	s.StageFlip("n1", DirectionUp)
	s.StageFlip("n1", DirectionDown) // ignored; already staged this tick
	flips := s.Commit(noNeighbors)
	require.Len(t, flips, 1)
	require.Equal(t, DirectionUp, flips[0].Direction)
}

func TestCommit_DeterministicOrderBySortedLogical(t *testing.T) {
	s := New()
	s.StageFlip("zeta", DirectionUp)
	s.StageFlip("alpha", DirectionUp)
	flips := s.Commit(noNeighbors)
	require.Equal(t, "alpha", flips[0].Logical)
	require.Equal(t, "zeta", flips[1].Logical)
}

func TestCommit_ShadowIsOutNeighborsMinusActive(t *testing.T) {
	s := New()
	s.StageFlip("a", DirectionUp)
	neighbors := func(l string) []string {
		if l == "a" {
			return []string{"b", "c"}
		}
		return nil
	}
	s.Commit(neighbors)
	shadow := s.ShadowSnapshot()
	require.ElementsMatch(t, []string{"b", "c"}, shadow)
}

func TestWasRecentlyActivated_ClearedAfterClearRecent(t *testing.T) {
	s := New()
	s.StageFlip("a", DirectionUp)
	s.Commit(noNeighbors)
	require.True(t, s.WasRecentlyActivated("a"))
	s.ClearRecent()
	require.False(t, s.WasRecentlyActivated("a"))
}

func TestReconcile_StagesFlipsForDisagreeingNodes(t *testing.T) {
	s := New()
	energy := map[string]float64{"a": 0.9, "b": 0.1}
	threshold := map[string]float64{"a": 0.5, "b": 0.5}
	s.Reconcile([]string{"a", "b"}, func(l string) float64 { return energy[l] }, func(l string) float64 { return threshold[l] })
	flips := s.Commit(noNeighbors)
	require.Len(t, flips, 1)
	require.Equal(t, "a", flips[0].Logical)
	require.Equal(t, DirectionUp, flips[0].Direction)
}
