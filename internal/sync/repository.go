package sync

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crestlift/salesdash/internal/platform/db"
)

// ErrNotFound indicates the requested synced invoice does not exist.
var ErrNotFound = errors.New("synced invoice not found")

// Repository provides PostgreSQL backed persistence for synced invoices,
// their line detail, and rep/month snapshots.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertInvoice writes the invoice record, replacing any previous sync of
// the same external id. The line replace that follows is a separate
// transaction boundary: a crash between the two can leave a stale line set,
// which the documented recovery path (re-running the sync) repairs.
func (r *Repository) UpsertInvoice(ctx context.Context, rec InvoiceRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO synced_invoices (
			external_id, doc_number, txn_date, total_amount, balance,
			primary_rep, assistant_rep, commissionable, shipping_deducted,
			needs_mapping_count, primary_rate, primary_commission,
			assistant_commission, synced_at
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		 ON CONFLICT (external_id) DO UPDATE SET
			doc_number = EXCLUDED.doc_number,
			txn_date = EXCLUDED.txn_date,
			total_amount = EXCLUDED.total_amount,
			balance = EXCLUDED.balance,
			primary_rep = EXCLUDED.primary_rep,
			assistant_rep = EXCLUDED.assistant_rep,
			commissionable = EXCLUDED.commissionable,
			shipping_deducted = EXCLUDED.shipping_deducted,
			needs_mapping_count = EXCLUDED.needs_mapping_count,
			primary_rate = EXCLUDED.primary_rate,
			primary_commission = EXCLUDED.primary_commission,
			assistant_commission = EXCLUDED.assistant_commission,
			synced_at = EXCLUDED.synced_at`,
		rec.ExternalID, rec.DocNumber, rec.TxnDate, rec.TotalAmount, rec.Balance,
		rec.PrimaryRep, nullable(rec.AssistantRep), rec.Commissionable, rec.ShippingDeducted,
		rec.NeedsMappingCount, rec.PrimaryRate, rec.PrimaryCommission,
		rec.AssistantCommission, rec.SyncedAt)
	return err
}

// ReplaceInvoiceLines deletes and reinserts the line detail for an invoice
// inside one transaction.
func (r *Repository) ReplaceInvoiceLines(ctx context.Context, externalID string, lines []InvoiceLineRecord) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM synced_invoice_lines WHERE invoice_external_id = $1`, externalID); err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := tx.Exec(ctx,
				`INSERT INTO synced_invoice_lines (
					invoice_external_id, line_no, matched_sku, item_name,
					quantity, unit_price, shipping_deducted, commissionable, matched
				 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
				externalID, line.LineNo, nullable(line.MatchedSKU), line.ItemName,
				line.Quantity, line.UnitPrice, line.ShippingDeducted, line.Commissionable,
				line.Matched); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateAssistantCommission rewrites the bonus-rule payout on one invoice
// after snapshot recomputation re-derives it from the full month.
func (r *Repository) UpdateAssistantCommission(ctx context.Context, externalID string, amount float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE synced_invoices SET assistant_commission = $2 WHERE external_id = $1`,
		externalID, amount)
	return err
}

// GetInvoice returns one synced invoice with its line detail, or ErrNotFound.
func (r *Repository) GetInvoice(ctx context.Context, externalID string) (InvoiceRecord, []InvoiceLineRecord, error) {
	var rec InvoiceRecord
	err := r.pool.QueryRow(ctx,
		`SELECT external_id, doc_number, txn_date, total_amount, balance,
		        primary_rep, COALESCE(assistant_rep, ''), commissionable,
		        shipping_deducted, needs_mapping_count, primary_rate,
		        primary_commission, assistant_commission, synced_at
		 FROM synced_invoices WHERE external_id = $1`, externalID,
	).Scan(&rec.ExternalID, &rec.DocNumber, &rec.TxnDate, &rec.TotalAmount,
		&rec.Balance, &rec.PrimaryRep, &rec.AssistantRep, &rec.Commissionable,
		&rec.ShippingDeducted, &rec.NeedsMappingCount, &rec.PrimaryRate,
		&rec.PrimaryCommission, &rec.AssistantCommission, &rec.SyncedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InvoiceRecord{}, nil, ErrNotFound
		}
		return InvoiceRecord{}, nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT invoice_external_id, line_no, COALESCE(matched_sku, ''), item_name,
		        quantity, unit_price, shipping_deducted, commissionable, matched
		 FROM synced_invoice_lines
		 WHERE invoice_external_id = $1
		 ORDER BY line_no`, externalID)
	if err != nil {
		return InvoiceRecord{}, nil, err
	}
	defer rows.Close()

	var lines []InvoiceLineRecord
	for rows.Next() {
		var line InvoiceLineRecord
		if err := rows.Scan(&line.InvoiceExternalID, &line.LineNo, &line.MatchedSKU,
			&line.ItemName, &line.Quantity, &line.UnitPrice, &line.ShippingDeducted,
			&line.Commissionable, &line.Matched); err != nil {
			return InvoiceRecord{}, nil, err
		}
		lines = append(lines, line)
	}
	return rec, lines, rows.Err()
}

// ListInvoicesForRepMonth returns every synced invoice attributed to the rep
// (as primary or assistant) within the given month. Snapshot recomputation
// re-derives from these rows, never from incremental deltas.
func (r *Repository) ListInvoicesForRepMonth(ctx context.Context, repName string, year, month int) ([]InvoiceRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT external_id, doc_number, txn_date, total_amount, balance,
		        primary_rep, COALESCE(assistant_rep, ''), commissionable,
		        shipping_deducted, needs_mapping_count, primary_rate,
		        primary_commission, assistant_commission, synced_at
		 FROM synced_invoices
		 WHERE (primary_rep = $1 OR assistant_rep = $1)
		   AND EXTRACT(YEAR FROM txn_date) = $2
		   AND EXTRACT(MONTH FROM txn_date) = $3
		 ORDER BY txn_date, external_id`,
		repName, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

// UpsertSnapshot replaces the rep/month snapshot.
func (r *Repository) UpsertSnapshot(ctx context.Context, snap RepMonthSnapshot) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO rep_month_snapshots (
			rep_name, year, month, total_commission, total_commissionable,
			total_shipping_deducted, invoice_count, updated_at
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (rep_name, year, month) DO UPDATE SET
			total_commission = EXCLUDED.total_commission,
			total_commissionable = EXCLUDED.total_commissionable,
			total_shipping_deducted = EXCLUDED.total_shipping_deducted,
			invoice_count = EXCLUDED.invoice_count,
			updated_at = EXCLUDED.updated_at`,
		snap.RepName, snap.Year, snap.Month, snap.TotalCommission,
		snap.TotalCommissionable, snap.TotalShippingDeducted, snap.InvoiceCount,
		snap.UpdatedAt)
	return err
}

// ListSnapshots returns a rep's monthly snapshots, newest first.
func (r *Repository) ListSnapshots(ctx context.Context, repName string) ([]RepMonthSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT rep_name, year, month, total_commission, total_commissionable,
		        total_shipping_deducted, invoice_count, updated_at
		 FROM rep_month_snapshots
		 WHERE rep_name = $1
		 ORDER BY year DESC, month DESC`, repName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []RepMonthSnapshot
	for rows.Next() {
		var s RepMonthSnapshot
		if err := rows.Scan(&s.RepName, &s.Year, &s.Month, &s.TotalCommission,
			&s.TotalCommissionable, &s.TotalShippingDeducted, &s.InvoiceCount,
			&s.UpdatedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// ListInvoicesByRep returns a rep's synced invoices filtered by date range
// and payment status.
func (r *Repository) ListInvoicesByRep(ctx context.Context, repName string, start, end *time.Time, paidOnly *bool) ([]InvoiceRecord, error) {
	query := `SELECT external_id, doc_number, txn_date, total_amount, balance,
	                 primary_rep, COALESCE(assistant_rep, ''), commissionable,
	                 shipping_deducted, needs_mapping_count, primary_rate,
	                 primary_commission, assistant_commission, synced_at
	          FROM synced_invoices
	          WHERE (primary_rep = $1 OR assistant_rep = $1)`
	args := []any{repName}
	if start != nil {
		args = append(args, *start)
		query += ` AND txn_date >= $` + itoa(len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += ` AND txn_date <= $` + itoa(len(args))
	}
	if paidOnly != nil {
		if *paidOnly {
			query += ` AND balance = 0`
		} else {
			query += ` AND balance <> 0`
		}
	}
	query += ` ORDER BY txn_date, external_id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

// ListInvoices returns all synced invoices in a date/status window, used by
// the sales-by-rep aggregate.
func (r *Repository) ListInvoices(ctx context.Context, start, end *time.Time, paidOnly *bool) ([]InvoiceRecord, error) {
	query := `SELECT external_id, doc_number, txn_date, total_amount, balance,
	                 primary_rep, COALESCE(assistant_rep, ''), commissionable,
	                 shipping_deducted, needs_mapping_count, primary_rate,
	                 primary_commission, assistant_commission, synced_at
	          FROM synced_invoices WHERE TRUE`
	var args []any
	if start != nil {
		args = append(args, *start)
		query += ` AND txn_date >= $` + itoa(len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += ` AND txn_date <= $` + itoa(len(args))
	}
	if paidOnly != nil {
		if *paidOnly {
			query += ` AND balance = 0`
		} else {
			query += ` AND balance <> 0`
		}
	}
	query += ` ORDER BY txn_date, external_id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

func scanInvoices(rows pgx.Rows) ([]InvoiceRecord, error) {
	var recs []InvoiceRecord
	for rows.Next() {
		var rec InvoiceRecord
		if err := rows.Scan(&rec.ExternalID, &rec.DocNumber, &rec.TxnDate,
			&rec.TotalAmount, &rec.Balance, &rec.PrimaryRep, &rec.AssistantRep,
			&rec.Commissionable, &rec.ShippingDeducted, &rec.NeedsMappingCount,
			&rec.PrimaryRate, &rec.PrimaryCommission, &rec.AssistantCommission,
			&rec.SyncedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
