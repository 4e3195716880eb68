package bitemporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/graphmind/graphmind/internal/errs"
)

func TestCheckInterval(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	require.NoError(t, CheckInterval("n1", "valid", now, nil))
	require.NoError(t, CheckInterval("n1", "valid", now, &later))

	err := CheckInterval("n1", "valid", now, &earlier)
	require.Error(t, err)
	require.IsType(t, &errs.IntervalInvariantViolation{}, err)
}
