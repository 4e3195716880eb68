package state

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeed_OnlySetsOnFirstSight(t *testing.T) {
	w := NewWeightTable()
	w.Seed("l1", "rel", 1.0)
	w.Seed("l1", "rel", 5.0) // ignored, already seeded
	logW, _, ok := w.Get("l1")
	require.True(t, ok)
	require.Equal(t, 1.0, logW)
}

func TestSet_OverwritesUnconditionally(t *testing.T) {
	w := NewWeightTable()
	w.Seed("l1", "rel", 1.0)
	w.Set("l1", "rel", 5.0)
	logW, _, ok := w.Get("l1")
	require.True(t, ok)
	require.Equal(t, 5.0, logW)
}

func TestStickiness_DefaultsToOne(t *testing.T) {
	w := NewWeightTable()
	w.Seed("l1", "rel", 0.0)
	require.Equal(t, 1.0, w.Stickiness("l1"))
	w.SetStickiness("l1", 0.5)
	require.Equal(t, 0.5, w.Stickiness("l1"))
}

func TestAdjust_SaturatesAtSoftCeiling(t *testing.T) {
	w := NewWeightTable()
	w.Seed("l1", "rel", 0.0)
	for i := 0; i < 50; i++ {
		w.Adjust("l1", 1.0, 2.0)
	}
	logW, _, _ := w.Get("l1")
	require.Less(t, logW, 2.0)
	require.Greater(t, logW, 1.9)
}

func TestDecayType_OnlyAffectsMatchingType(t *testing.T) {
	w := NewWeightTable()
	w.Seed("l1", "rel", 1.0)
	w.Seed("l2", "other", 1.0)
	w.DecayType("rel", 0.5)

	l1, _, _ := w.Get("l1")
	l2, _, _ := w.Get("l2")
	require.Equal(t, 0.5, l1)
	require.Equal(t, 1.0, l2)
}

func TestStandardizedRead_UsesSealedTypeStats(t *testing.T) {
	w := NewWeightTable()
	w.Seed("l1", "rel", 0.0)
	w.Seed("l2", "rel", 2.0)
	w.SealTypeStats()

	// mean=1, std=1 over {0,2}; l2 should read above 1.0, l1 below.
	r1 := w.StandardizedRead("l1")
	r2 := w.StandardizedRead("l2")
	require.Less(t, r1, r2)
}

func TestStandardizedRead_UnknownLinkDefaultsToOne(t *testing.T) {
	w := NewWeightTable()
	require.Equal(t, 1.0, w.StandardizedRead("missing"))
}

func TestSealTypeStats_ZeroVarianceDoesNotPanic(t *testing.T) {
	w := NewWeightTable()
	w.Seed("l1", "rel", 1.0)
	w.SealTypeStats()
	r := w.StandardizedRead("l1")
	require.False(t, math.IsNaN(r))
	require.False(t, math.IsInf(r, 0))
}
