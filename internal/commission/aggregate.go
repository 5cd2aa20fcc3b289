package commission

// AggregateMonthly folds invoice results into monthly totals. Sums are plain
// arithmetic folds; invoice count equals the number of results passed in.
func AggregateMonthly(results []InvoiceResult) MonthlyTotals {
	var totals MonthlyTotals
	for _, r := range results {
		totals.TotalCommission += r.InvoiceCommission
		totals.TotalCommissionable += r.InvoiceCommissionable
		totals.TotalShippingDeducted += r.ShippingDeducted
		totals.InvoiceCount++
	}
	return totals
}
