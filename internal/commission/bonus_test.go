package commission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crestlift/salesdash/internal/reps"
)

func testBonusEngine(threshold float64) *BonusEngine {
	return NewBonusEngine(reps.DefaultRegistry(), threshold)
}

func TestBonusCommissionOrdinaryRep(t *testing.T) {
	e := testBonusEngine(150_000)

	// Ordinary reps earn on every sale regardless of monthly position.
	assert.InDelta(t, 500.0, e.Commission("KLH", 10_000, 10_000, 0.05), 1e-9)
	assert.InDelta(t, 500.0, e.Commission("KLH", 10_000, 500_000, 0.05), 1e-9)
}

func TestBonusCommissionBelowThreshold(t *testing.T) {
	e := testBonusEngine(150_000)

	assert.Zero(t, e.Commission("SC", 50_000, 50_000, 0.05))
	assert.Zero(t, e.Commission("CR", 149_999, 149_999, 0.05))
}

func TestBonusCommissionCrossingSale(t *testing.T) {
	e := testBonusEngine(150_000)

	// 140k prior, a 20k sale crosses: only the 10k excess earns.
	got := e.Commission("SC", 20_000, 160_000, 0.05)
	assert.InDelta(t, 500.0, got, 1e-9)
}

func TestBonusCommissionExactlyAtThreshold(t *testing.T) {
	e := testBonusEngine(150_000)

	// Landing exactly on the threshold pays zero excess.
	assert.Zero(t, e.Commission("SC", 50_000, 150_000, 0.05))

	// The next sale after the threshold pays in full.
	assert.InDelta(t, 500.0, e.Commission("SC", 10_000, 160_000, 0.05), 1e-9)
}

func TestBonusCommissionAfterThreshold(t *testing.T) {
	e := testBonusEngine(150_000)

	// 200k prior: the full sale earns.
	got := e.Commission("CR", 10_000, 210_000, 0.05)
	assert.InDelta(t, 500.0, got, 1e-9)
}

func TestBonusProgressSalaryRep(t *testing.T) {
	e := testBonusEngine(150_000)

	p := e.Progress("SC", 50_000)
	assert.True(t, p.IsBonusRep)
	assert.InDelta(t, 33.33, p.PercentToThreshold, 1e-9)
	assert.False(t, p.HasEarnedBonus)

	p = e.Progress("SC", 180_000)
	assert.InDelta(t, 100.0, p.PercentToThreshold, 1e-9)
	assert.True(t, p.HasEarnedBonus)
}

func TestBonusProgressOrdinaryRep(t *testing.T) {
	e := testBonusEngine(150_000)

	p := e.Progress("KLH", 75_000)
	assert.False(t, p.IsBonusRep)
	assert.Zero(t, p.PercentToThreshold)
	assert.False(t, p.HasEarnedBonus)
	assert.InDelta(t, 75_000.0, p.SalesAmount, 1e-9)
}
