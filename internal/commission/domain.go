package commission

// MappingStatus flags whether an invoice line resolved to a price-list row.
// NEEDS_MAPPING is a data-quality signal, never a hard failure.
type MappingStatus string

const (
	StatusMatched      MappingStatus = "MATCHED"
	StatusNeedsMapping MappingStatus = "NEEDS_MAPPING"
)

// MissingSKUStrategy selects how the invoice-level calculator treats lines
// absent from the price list. This is deliberately distinct from the sync
// matcher's always-include policy; call sites pick one explicitly.
type MissingSKUStrategy string

const (
	// StrategyExclude drops unmapped lines from commission entirely. This is
	// the default: unverified pricing never pays out.
	StrategyExclude MissingSKUStrategy = "exclude"
	// StrategyZeroShipping keeps unmapped lines fully commissionable with a
	// zero shipping deduction.
	StrategyZeroShipping MissingSKUStrategy = "zero-shipping"
)

// LineInput is one raw invoice line fed to the calculator. Quantity is
// authoritative; a zero or non-finite unit price falls back to the matched
// price-list entry's current sale price.
type LineInput struct {
	SKU         string  `json:"sku,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Line is one computed commission line.
type Line struct {
	SKU                     string        `json:"sku,omitempty"`
	Quantity                float64       `json:"quantity"`
	UnitPriceUsed           float64       `json:"unit_price_used"`
	ShippingIncludedPerUnit float64       `json:"shipping_included_per_unit"`
	ShippingDeductionLine   float64       `json:"shipping_deduction_line"`
	CommissionableLine      float64       `json:"commissionable_line"`
	CommissionLine          float64       `json:"commission_line"`
	MappingStatus           MappingStatus `json:"mapping_status"`
}

// InvoiceResult aggregates computed lines for one invoice. Totals are plain
// sums over lines; rounding, if any, happens only at display time.
type InvoiceResult struct {
	Lines                 []Line  `json:"lines"`
	InvoiceCommission     float64 `json:"invoice_commission"`
	InvoiceCommissionable float64 `json:"invoice_commissionable"`
	ShippingDeducted      float64 `json:"shipping_deducted"`
	NeedsMappingCount     int     `json:"needs_mapping_count"`
}

// MonthlyTotals folds invoice results into one month's figures.
type MonthlyTotals struct {
	TotalCommission       float64 `json:"total_commission"`
	TotalCommissionable   float64 `json:"total_commissionable"`
	TotalShippingDeducted float64 `json:"total_shipping_deducted"`
	InvoiceCount          int     `json:"invoice_count"`
}

// BonusProgress is a read-only projection of a salary rep's run at the
// monthly bonus threshold, used for progress bars.
type BonusProgress struct {
	IsBonusRep         bool    `json:"is_bonus_rep"`
	SalesAmount        float64 `json:"sales_amount"`
	BonusThreshold     float64 `json:"bonus_threshold"`
	PercentToThreshold float64 `json:"percent_to_threshold"`
	HasEarnedBonus     bool    `json:"has_earned_bonus"`
}
