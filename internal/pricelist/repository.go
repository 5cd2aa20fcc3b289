package pricelist

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the active price list. The commission engine never writes
// price-list rows; administration owns that table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActive returns every active price-list entry. Each sync run re-reads
// the full current state; there is no cross-request caching.
func (r *Repository) ListActive(ctx context.Context) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT sku, description, current_sale_price_per_unit, shipping_included_per_unit,
		        COALESCE(external_item_id, ''), COALESCE(external_item_name, '')
		 FROM price_list
		 WHERE is_active
		 ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SKU, &e.Description, &e.CurrentSalePricePerUnit,
			&e.ShippingIncludedPerUnit, &e.ExternalItemID, &e.ExternalItemName); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LoadIndex reads the active price list and indexes it for matching.
func (r *Repository) LoadIndex(ctx context.Context) (*Index, error) {
	entries, err := r.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return NewIndex(entries), nil
}
