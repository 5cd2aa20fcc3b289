package commission

import (
	"math"

	"github.com/crestlift/salesdash/internal/reps"
)

// BonusEngine applies the salary-rep bonus threshold rule. It is a pure
// function of its inputs: the caller owns the running monthly total and must
// feed sales in chronological order so the crossing sale attributes
// correctly.
type BonusEngine struct {
	registry  *reps.Registry
	threshold float64
}

// NewBonusEngine constructs a bonus engine for the given registry and
// monthly threshold.
func NewBonusEngine(registry *reps.Registry, threshold float64) *BonusEngine {
	return &BonusEngine{registry: registry, threshold: threshold}
}

// Threshold returns the configured monthly bonus threshold.
func (e *BonusEngine) Threshold() float64 {
	return e.threshold
}

// Commission returns the payout for one sale. totalRepSalesMonth is the
// rep's cumulative monthly sales AFTER including this sale.
//
// Ordinary reps earn on every sale. Salary-bonus reps earn nothing until
// the month crosses the threshold; the crossing sale pays only on the
// portion above the threshold, and later sales pay at the full rate.
func (e *BonusEngine) Commission(repName string, saleAmount, totalRepSalesMonth, rate float64) float64 {
	if !e.registry.IsSalaryRep(repName) {
		return saleAmount * rate
	}

	previousSales := totalRepSalesMonth - saleAmount
	switch {
	case previousSales >= e.threshold:
		return saleAmount * rate
	case totalRepSalesMonth >= e.threshold:
		// The crossing sale: only the excess above the threshold earns.
		return (totalRepSalesMonth - e.threshold) * rate
	default:
		return 0
	}
}

// Progress projects a rep's position against the threshold. Read-only; it
// never advances state.
func (e *BonusEngine) Progress(repName string, totalRepSalesMonth float64) BonusProgress {
	isBonus := e.registry.IsSalaryRep(repName)
	progress := BonusProgress{
		IsBonusRep:     isBonus,
		SalesAmount:    totalRepSalesMonth,
		BonusThreshold: e.threshold,
	}
	if !isBonus {
		return progress
	}
	progress.PercentToThreshold = math.Min(100, round2(totalRepSalesMonth/e.threshold*100))
	progress.HasEarnedBonus = totalRepSalesMonth >= e.threshold
	return progress
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
