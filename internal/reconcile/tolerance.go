// Package reconcile holds the cash-count check, the trial balance, and the
// tolerance policy both of those and the balance sheet use to decide
// whether a variance counts as balanced.
package reconcile

import "github.com/shopspring/decimal"

// Tolerance is the absolute variance below which figures count as balanced.
// A zero Threshold demands an exact match.
type Tolerance struct {
	Threshold decimal.Decimal
}

// NewTolerance returns a Tolerance for threshold. Negative thresholds are treated as zero.
func NewTolerance(threshold decimal.Decimal) Tolerance {
	if threshold.IsNegative() {
		threshold = decimal.Zero
	}
	return Tolerance{Threshold: threshold}
}

// Exact is the zero-tolerance policy.
var Exact = Tolerance{}

// Within reports whether variance is balanced under t.
func (t Tolerance) Within(variance decimal.Decimal) bool {
	if !t.Threshold.IsPositive() {
		return variance.IsZero()
	}
	return variance.Abs().LessThan(t.Threshold)
}
