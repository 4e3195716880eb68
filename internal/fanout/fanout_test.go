package fanout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func candidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{LinkLogical: string(rune('a' + i)), Dst: string(rune('a' + i)), Score: float64(n - i)}
	}
	return out
}

func TestSelect_ExhaustiveBelowDegreeFive(t *testing.T) {
	edges := candidates(4)
	selected := Select(edges, 4, 2)
	require.Len(t, selected, 4)
}

func TestSelect_TopKAboveDegreeTen(t *testing.T) {
	edges := candidates(12)
	selected := Select(edges, 12, 3)
	require.Len(t, selected, 3)
	require.Equal(t, "a", selected[0].Dst) // highest score first
}

func TestSelect_MidRangeUsesHalfDegreeClamped(t *testing.T) {
	edges := candidates(8)
	selected := Select(edges, 8, 10)
	require.Len(t, selected, 4) // clamp(8/2, 1, 4) == 4
}

func TestSelect_TieBreakIsLexicographicByDst(t *testing.T) {
	edges := []Candidate{
		{LinkLogical: "l2", Dst: "zeta", Score: 1.0},
		{LinkLogical: "l1", Dst: "alpha", Score: 1.0},
	}
	selected := Select(edges, 2, 2)
	require.Equal(t, "alpha", selected[0].Dst)
	require.Equal(t, "zeta", selected[1].Dst)
}

func TestSelect_EmptyEdgesReturnsNil(t *testing.T) {
	require.Nil(t, Select(nil, 0, 2))
}

func TestSoftmax_SumsToOne(t *testing.T) {
	out := Softmax([]float64{1, 2, 3}, 1.0)
	var sum float64
	for _, v := range out {
		sum += v
	}
	require.InDelta(t, 1.0, sum, 1e-9)
}

func TestSoftmax_HighestScoreGetsHighestWeight(t *testing.T) {
	out := Softmax([]float64{0.1, 5.0, 0.2}, 0.5)
	require.Greater(t, out[1], out[0])
	require.Greater(t, out[1], out[2])
}
