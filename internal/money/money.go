// Package money holds the rounding and tolerance rules shared by every monetary
// computation in SplitX.
//
// Amounts are float64 currency units. Sums are compared with a fixed tolerance of
// one cent instead of exact equality, and values are rounded to cents only at
// output boundaries.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Tolerance is the threshold under which a floating sum is treated as zero.
const Tolerance = 0.01

var tolerance = decimal.NewFromFloat(Tolerance)

// IsZero reports whether x is within Tolerance of zero.
func IsZero(x float64) bool {
	return math.Abs(x) <= Tolerance
}

// Equal reports whether a and b differ by at most Tolerance. The difference is taken
// in decimal so that amounts exactly one cent apart compare equal.
func Equal(a, b float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThanOrEqual(tolerance)
}

// Round2 rounds x to two decimal places, half away from zero.
func Round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// Sum adds amounts using decimal arithmetic so long lists of cents do not drift.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.InexactFloat64()
}

// Percentage returns part as a percentage of whole. A zero whole yields zero.
func Percentage(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
