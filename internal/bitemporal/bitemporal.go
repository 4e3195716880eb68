// Package bitemporal holds the interval-invariant checks shared by the
// graph store's node and link supersession paths. The supersession
// algorithm and as-of queries themselves run inside internal/graphstore;
// this package is the small piece of validation logic both node and link
// versions share, kept separate so it can be unit-tested independent of
// sqlite.
package bitemporal

import (
	"fmt"
	"time"

	"github.com/graphmind/graphmind/internal/errs"
)

// CheckInterval validates that from <= to (when to is set): known_from must
// be no later than known_to, and the same holds for valid_from/valid_to.
func CheckInterval(logical, axis string, from time.Time, to *time.Time) error {
	if to == nil {
		return nil
	}
	if from.After(*to) {
		return &errs.IntervalInvariantViolation{
			Logical: logical,
			Reason:  fmt.Sprintf("%s axis: from %s is after to %s", axis, from, *to),
		}
	}
	return nil
}
