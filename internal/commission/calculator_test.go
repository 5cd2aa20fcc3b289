package commission

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestlift/salesdash/internal/pricelist"
)

func testPriceIndex() *pricelist.Index {
	return pricelist.NewIndex([]pricelist.Entry{
		{SKU: "4P", CurrentSalePricePerUnit: 1200, ShippingIncludedPerUnit: 100},
		{SKU: "4PBP-12", CurrentSalePricePerUnit: 3400, ShippingIncludedPerUnit: 250},
		{SKU: "RAMP", CurrentSalePricePerUnit: 80, ShippingIncludedPerUnit: 10},
	})
}

func TestCalculateInvoiceMatchedLines(t *testing.T) {
	ix := testPriceIndex()

	result := CalculateInvoice([]LineInput{
		{SKU: "4P", Quantity: 2, UnitPrice: 1200},
		{SKU: "ramp", Quantity: 4, UnitPrice: 80},
	}, ix, Options{RepCommissionRate: 0.05})

	require.Len(t, result.Lines, 2)
	assert.Equal(t, StatusMatched, result.Lines[0].MappingStatus)
	assert.InDelta(t, 200.0, result.Lines[0].ShippingDeductionLine, 1e-9)
	assert.InDelta(t, 2200.0, result.Lines[0].CommissionableLine, 1e-9)
	assert.InDelta(t, 110.0, result.Lines[0].CommissionLine, 1e-9)

	assert.InDelta(t, 2200.0+280.0, result.InvoiceCommissionable, 1e-9)
	assert.InDelta(t, 240.0, result.ShippingDeducted, 1e-9)
	assert.InDelta(t, (2200.0+280.0)*0.05, result.InvoiceCommission, 1e-9)
	assert.Zero(t, result.NeedsMappingCount)
}

func TestCalculateInvoiceMissingSKUExcludedByDefault(t *testing.T) {
	ix := testPriceIndex()

	result := CalculateInvoice([]LineInput{
		{SKU: "UNKNOWN-1", Quantity: 1, UnitPrice: 999},
		{SKU: "4P", Quantity: 1, UnitPrice: 1200},
	}, ix, Options{RepCommissionRate: 0.05})

	require.Len(t, result.Lines, 2)
	assert.Equal(t, StatusNeedsMapping, result.Lines[0].MappingStatus)
	assert.Zero(t, result.Lines[0].CommissionableLine)
	assert.Zero(t, result.Lines[0].CommissionLine)
	assert.Equal(t, 1, result.NeedsMappingCount)

	// Only the matched line contributes.
	assert.InDelta(t, 1100.0, result.InvoiceCommissionable, 1e-9)
	assert.InDelta(t, 55.0, result.InvoiceCommission, 1e-9)
}

func TestCalculateInvoiceMissingSKUZeroShipping(t *testing.T) {
	ix := testPriceIndex()

	result := CalculateInvoice([]LineInput{
		{SKU: "UNKNOWN-1", Quantity: 2, UnitPrice: 500},
	}, ix, Options{RepCommissionRate: 0.10, MissingSKUStrategy: StrategyZeroShipping})

	require.Len(t, result.Lines, 1)
	line := result.Lines[0]
	assert.Equal(t, StatusNeedsMapping, line.MappingStatus)
	assert.Zero(t, line.ShippingDeductionLine)
	assert.InDelta(t, 1000.0, line.CommissionableLine, 1e-9)
	assert.InDelta(t, 100.0, line.CommissionLine, 1e-9)
	assert.Equal(t, 1, result.NeedsMappingCount)
}

func TestCalculateInvoiceUnitPriceFallback(t *testing.T) {
	ix := testPriceIndex()

	// Zero unit price falls back to the price-list current sale price.
	result := CalculateInvoice([]LineInput{
		{SKU: "4PBP-12", Quantity: 1, UnitPrice: 0},
	}, ix, Options{RepCommissionRate: 0.05})

	require.Len(t, result.Lines, 1)
	assert.InDelta(t, 3400.0, result.Lines[0].UnitPriceUsed, 1e-9)
	assert.InDelta(t, 3400.0-250.0, result.Lines[0].CommissionableLine, 1e-9)
}

func TestCalculateInvoiceClampsNegativeLines(t *testing.T) {
	ix := testPriceIndex()

	// Discounted below the shipping allowance: commissionable clamps at zero,
	// never negative.
	result := CalculateInvoice([]LineInput{
		{SKU: "4P", Quantity: 1, UnitPrice: 50},
	}, ix, Options{RepCommissionRate: 0.05})

	require.Len(t, result.Lines, 1)
	assert.Zero(t, result.Lines[0].CommissionableLine)
	assert.Zero(t, result.Lines[0].CommissionLine)
	assert.GreaterOrEqual(t, result.InvoiceCommission, 0.0)
}

func TestCalculateInvoiceCoercesNonFiniteInputs(t *testing.T) {
	ix := testPriceIndex()

	result := CalculateInvoice([]LineInput{
		{SKU: "4P", Quantity: math.NaN(), UnitPrice: math.Inf(1)},
	}, ix, Options{RepCommissionRate: 0.05})

	require.Len(t, result.Lines, 1)
	line := result.Lines[0]
	assert.Zero(t, line.Quantity)
	// Non-finite unit price falls back to the entry price; zero quantity
	// still zeroes the line.
	assert.InDelta(t, 1200.0, line.UnitPriceUsed, 1e-9)
	assert.Zero(t, line.CommissionableLine)
	assert.False(t, math.IsNaN(result.InvoiceCommission))
}

func TestAggregateMonthly(t *testing.T) {
	totals := AggregateMonthly([]InvoiceResult{
		{InvoiceCommission: 110, InvoiceCommissionable: 2200, ShippingDeducted: 200, NeedsMappingCount: 1},
		{InvoiceCommission: 55, InvoiceCommissionable: 1100, ShippingDeducted: 100},
	})

	assert.InDelta(t, 165.0, totals.TotalCommission, 1e-9)
	assert.InDelta(t, 3300.0, totals.TotalCommissionable, 1e-9)
	assert.InDelta(t, 300.0, totals.TotalShippingDeducted, 1e-9)
	assert.Equal(t, 2, totals.InvoiceCount)
}

func TestAggregateMonthlyEmpty(t *testing.T) {
	totals := AggregateMonthly(nil)
	assert.Zero(t, totals.TotalCommission)
	assert.Zero(t, totals.InvoiceCount)
}
