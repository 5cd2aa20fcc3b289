package pricelist

import (
	"math"
	"strings"
)

// LineMatch is the outcome of resolving one invoice line against the price
// list. Commissionable is clamped at zero: shipping can never drive a line
// negative. Unmatched lines keep their full amount commissionable on this
// path; the invoice-level calculator applies its own, stricter missing-SKU
// policy.
type LineMatch struct {
	Matched          bool    `json:"matched"`
	SKU              string  `json:"sku,omitempty"`
	ShippingPerUnit  float64 `json:"shipping_per_unit"`
	ShippingDeducted float64 `json:"shipping_deducted"`
	Commissionable   float64 `json:"commissionable"`
}

// strategy resolves an invoice line to a price-list entry, or reports no
// match. Strategies run in a fixed order; the first hit wins.
type strategy func(ix *Index, externalID, itemName string) (*Entry, bool)

var strategies = []strategy{
	matchExternalID,
	matchExactKey,
	matchLongestContainment,
}

// MatchLine resolves an invoice line by external item id, exact name key,
// then longest-SKU containment, and computes the shipping deduction and
// commissionable amount for the given quantity and unit price.
func MatchLine(ix *Index, externalID, itemName string, quantity, unitPrice float64) LineMatch {
	quantity = sanitize(quantity)
	unitPrice = sanitize(unitPrice)

	for _, try := range strategies {
		entry, ok := try(ix, externalID, itemName)
		if !ok {
			continue
		}
		shipping := quantity * entry.ShippingIncludedPerUnit
		return LineMatch{
			Matched:          true,
			SKU:              entry.SKU,
			ShippingPerUnit:  entry.ShippingIncludedPerUnit,
			ShippingDeducted: shipping,
			Commissionable:   math.Max(0, quantity*unitPrice-shipping),
		}
	}

	return LineMatch{Commissionable: quantity * unitPrice}
}

// matchExternalID hits on the QBO item reference id, the most reliable key.
func matchExternalID(ix *Index, externalID, _ string) (*Entry, bool) {
	if externalID == "" {
		return nil, false
	}
	e, ok := ix.byExternalID[externalID]
	return e, ok
}

// matchExactKey hits on the uppercased item name or external id used as a
// lookup key.
func matchExactKey(ix *Index, externalID, itemName string) (*Entry, bool) {
	for _, key := range []string{itemName, externalID} {
		key = strings.ToUpper(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if e, ok := ix.byKey[key]; ok {
			return e, true
		}
	}
	return nil, false
}

// matchLongestContainment scans for entries whose SKU appears inside the
// item name. The longest SKU wins so a short SKU like "4P" cannot shadow
// "4PBP-12"; candidates are deduplicated by SKU first, since an entry
// indexed under several keys must not be counted twice.
func matchLongestContainment(ix *Index, _ string, itemName string) (*Entry, bool) {
	name := strings.ToUpper(strings.TrimSpace(itemName))
	if name == "" {
		return nil, false
	}
	seen := make(map[string]bool)
	var best *Entry
	for _, e := range ix.entries {
		sku := strings.ToUpper(e.SKU)
		if sku == "" || seen[sku] {
			continue
		}
		seen[sku] = true
		if !strings.Contains(name, sku) {
			continue
		}
		if best == nil || len(sku) > len(strings.ToUpper(best.SKU)) {
			best = e
		}
	}
	return best, best != nil
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
