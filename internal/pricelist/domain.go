package pricelist

import "strings"

// Entry is one active price-list row. SKU is the unique, case-insensitive
// business key; the external item id/name tie the row to its QBO item for
// invoice matching.
type Entry struct {
	SKU                     string  `json:"sku" db:"sku"`
	Description             string  `json:"description" db:"description"`
	CurrentSalePricePerUnit float64 `json:"current_sale_price_per_unit" db:"current_sale_price_per_unit"`
	ShippingIncludedPerUnit float64 `json:"shipping_included_per_unit" db:"shipping_included_per_unit"`
	ExternalItemID          string  `json:"external_item_id,omitempty" db:"external_item_id"`
	ExternalItemName        string  `json:"external_item_name,omitempty" db:"external_item_name"`
}

// Index holds the price list keyed for the three lookup paths: exact
// external item id, exact uppercased name key, and SKU containment. Several
// keys may resolve the same entry.
type Index struct {
	byExternalID map[string]*Entry
	byKey        map[string]*Entry
	bySKU        map[string]*Entry
	entries      []*Entry
}

// NewIndex builds an index over the given entries. Name keys are uppercased;
// SKU, external item id and external item name all register as keys.
func NewIndex(entries []Entry) *Index {
	ix := &Index{
		byExternalID: make(map[string]*Entry),
		byKey:        make(map[string]*Entry),
		bySKU:        make(map[string]*Entry),
		entries:      make([]*Entry, 0, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		ix.entries = append(ix.entries, e)
		ix.bySKU[strings.ToUpper(e.SKU)] = e
		ix.byKey[strings.ToUpper(e.SKU)] = e
		if e.ExternalItemID != "" {
			ix.byExternalID[e.ExternalItemID] = e
			ix.byKey[strings.ToUpper(e.ExternalItemID)] = e
		}
		if e.ExternalItemName != "" {
			ix.byKey[strings.ToUpper(e.ExternalItemName)] = e
		}
	}
	return ix
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// LookupSKU resolves an entry by exact case-insensitive SKU only. This is
// the lookup the invoice-level calculator uses; it deliberately ignores
// external id/name keys.
func (ix *Index) LookupSKU(sku string) (*Entry, bool) {
	e, ok := ix.bySKU[strings.ToUpper(strings.TrimSpace(sku))]
	return e, ok
}
