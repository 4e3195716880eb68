package graphstore

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/graphmind/graphmind/internal/errs"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateNode_DuplicateRejected(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateNode("n1", "Memory", "first", nil, nil)
	require.NoError(t, err)

	_, err = s.CreateNode("n1", "Memory", "again", nil, nil)
	require.Error(t, err)
	require.IsType(t, &errs.DuplicateLogical{}, err)
}

func TestSupersedeNode_PreservesHistory(t *testing.T) {
	s := openTestStore(t)

	t0 := time.Now().UTC().Add(-time.Hour)
	_, err := s.CreateNode("n1", "Memory", "first", nil, &t0)
	require.NoError(t, err)

	tMid := time.Now().UTC().Add(-30 * time.Minute)
	// Simulate the as-of check at tMid before supersession.
	before, err := s.AsOfNode("n1", AxisKnowledge, tMid)
	require.NoError(t, err)
	require.NotNil(t, before)
	require.Equal(t, "first", before.Description)

	newID, err := s.SupersedeNode("n1", "second", nil)
	require.NoError(t, err)
	require.NotEmpty(t, newID)

	after, err := s.AsOfNode("n1", AxisKnowledge, time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, after)
	require.Equal(t, "second", after.Description)

	// The pre-supersession knowledge-axis read must still return the old version.
	beforeAgain, err := s.AsOfNode("n1", AxisKnowledge, tMid)
	require.NoError(t, err)
	require.Equal(t, "first", beforeAgain.Description)

	hist, err := s.History("n1")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	require.Equal(t, "first", hist[0].Description)
	require.Equal(t, "second", hist[1].Description)
}

func TestVersionUniqueness_AtMostOneLiveVersion(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateNode("n1", "Memory", "first", nil, nil)
	require.NoError(t, err)
	_, err = s.SupersedeNode("n1", "second", nil)
	require.NoError(t, err)

	hist, err := s.History("n1")
	require.NoError(t, err)

	live := 0
	for _, v := range hist {
		if v.IsLive() {
			live++
		}
	}
	require.Equal(t, 1, live)
}

func TestAdjacencyOut_OnlyLiveEndpoints(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateNode("n1", "Memory", "n1", nil, nil)
	require.NoError(t, err)
	_, err = s.CreateNode("n2", "Memory", "n2", nil, nil)
	require.NoError(t, err)
	_, err = s.CreateLink("n1", "n2", "relates_to", 0.0, 1.0, nil)
	require.NoError(t, err)

	links, err := s.AdjacencyOut("n1")
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, "n2", links[0].DstLogical)
}

func TestRetroactiveFact(t *testing.T) {
	s := openTestStore(t)

	past := time.Now().UTC().Add(-7 * 24 * time.Hour)
	versionID, err := s.CreateNode("n1", "Memory", "retro", nil, &past)
	require.NoError(t, err)

	retro, err := s.Retroactive(versionID)
	require.NoError(t, err)
	require.True(t, retro)

	threeDaysAgo := time.Now().UTC().Add(-3 * 24 * time.Hour)
	reality, err := s.AsOfNode("n1", AxisReality, threeDaysAgo)
	require.NoError(t, err)
	require.NotNil(t, reality)

	knowledge, err := s.AsOfNode("n1", AxisKnowledge, threeDaysAgo)
	require.NoError(t, err)
	require.Nil(t, knowledge)
}

func TestAsOfNode_MatchesLiveHistoryEntry(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateNode("n1", "Memory", "first", map[string]any{"tag": "a"}, nil)
	require.NoError(t, err)
	_, err = s.SupersedeNode("n1", "second", nil)
	require.NoError(t, err)

	hist, err := s.History("n1")
	require.NoError(t, err)
	live := hist[len(hist)-1]

	asOf, err := s.AsOfNode("n1", AxisKnowledge, time.Now().UTC())
	require.NoError(t, err)

	if diff := cmp.Diff(live, asOf); diff != "" {
		t.Fatalf("as-of read diverged from history's live entry (-history +asof):\n%s", diff)
	}
}

func TestSupersedeNode_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.SupersedeNode("missing", "x", nil)
	require.Error(t, err)
	require.IsType(t, &errs.NotFound{}, err)
}
