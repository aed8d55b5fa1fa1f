// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/ipeadata-tools/inflation-indices/pkg/constants"
)

// Missing returns the sentinel used for absent observations.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether val is the missing sentinel.
func IsMissing(val float64) bool {
	return math.IsNaN(val)
}

// FactorFromRate converts a percentage variation into a multiplicative factor,
// e.g. 0.52 becomes 1.0052.
func FactorFromRate(rate float64) float64 {
	if IsMissing(rate) {
		return Missing()
	}
	return 1 + rate/constants.PercentageMultiplier
}

// RateFromLevels returns the percentage variation between two index levels.
func RateFromLevels(previous, current float64) float64 {
	if IsMissing(previous) || IsMissing(current) || previous == 0 {
		return Missing()
	}
	return (current/previous - 1) * constants.PercentageMultiplier
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Max returns the maximum of two float64 values
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
