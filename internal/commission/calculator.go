package commission

import (
	"math"

	"github.com/crestlift/salesdash/internal/pricelist"
)

// Options parameterizes one invoice-level calculation.
type Options struct {
	RepCommissionRate  float64            `json:"rep_commission_rate"`
	MissingSKUStrategy MissingSKUStrategy `json:"missing_sku_strategy,omitempty"`
}

// CalculateInvoice computes shipping-deducted commission for a set of
// invoice lines against the price list. Lines resolve by exact
// case-insensitive SKU only; this is the preview/import path, while the live
// sync path uses the richer pricelist matcher instead.
func CalculateInvoice(lines []LineInput, ix *pricelist.Index, opts Options) InvoiceResult {
	strategy := opts.MissingSKUStrategy
	if strategy == "" {
		strategy = StrategyExclude
	}

	result := InvoiceResult{Lines: make([]Line, 0, len(lines))}
	for _, in := range lines {
		line := calculateLine(in, ix, opts.RepCommissionRate, strategy)
		if line.MappingStatus == StatusNeedsMapping {
			result.NeedsMappingCount++
		}
		result.InvoiceCommission += line.CommissionLine
		result.InvoiceCommissionable += line.CommissionableLine
		result.ShippingDeducted += line.ShippingDeductionLine
		result.Lines = append(result.Lines, line)
	}
	return result
}

func calculateLine(in LineInput, ix *pricelist.Index, rate float64, strategy MissingSKUStrategy) Line {
	quantity := sanitize(in.Quantity)

	entry, hasMapping := ix.LookupSKU(in.SKU)

	unitPriceUsed := 0.0
	if isFinite(in.UnitPrice) && in.UnitPrice != 0 {
		unitPriceUsed = in.UnitPrice
	} else if hasMapping {
		unitPriceUsed = entry.CurrentSalePricePerUnit
	}

	line := Line{
		SKU:           in.SKU,
		Quantity:      quantity,
		UnitPriceUsed: unitPriceUsed,
		MappingStatus: StatusNeedsMapping,
	}

	if hasMapping {
		line.MappingStatus = StatusMatched
		line.ShippingIncludedPerUnit = entry.ShippingIncludedPerUnit
		line.ShippingDeductionLine = quantity * entry.ShippingIncludedPerUnit
		line.CommissionableLine = math.Max(0, quantity*unitPriceUsed-line.ShippingDeductionLine)
	} else if strategy == StrategyZeroShipping {
		// No mapping, shipping treated as zero: the full line amount stays
		// commissionable.
		line.CommissionableLine = quantity * unitPriceUsed
	}
	// StrategyExclude leaves CommissionableLine at zero for unmapped lines.

	line.CommissionLine = line.CommissionableLine * rate
	return line
}

func sanitize(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
