package sync

import "time"

// InvoiceRecord is the persisted snapshot of one attributed QBO invoice.
// Keyed by the external invoice id; sync writes are idempotent upserts.
type InvoiceRecord struct {
	ExternalID          string    `json:"external_id" db:"external_id"`
	DocNumber           string    `json:"doc_number" db:"doc_number"`
	TxnDate             time.Time `json:"txn_date" db:"txn_date"`
	TotalAmount         float64   `json:"total_amount" db:"total_amount"`
	Balance             float64   `json:"balance" db:"balance"`
	PrimaryRep          string    `json:"primary_rep" db:"primary_rep"`
	AssistantRep        string    `json:"assistant_rep,omitempty" db:"assistant_rep"`
	Commissionable      float64   `json:"commissionable" db:"commissionable"`
	ShippingDeducted    float64   `json:"shipping_deducted" db:"shipping_deducted"`
	NeedsMappingCount   int       `json:"needs_mapping_count" db:"needs_mapping_count"`
	PrimaryRate         float64   `json:"primary_rate" db:"primary_rate"`
	PrimaryCommission   float64   `json:"primary_commission" db:"primary_commission"`
	AssistantCommission float64   `json:"assistant_commission" db:"assistant_commission"`
	SyncedAt            time.Time `json:"synced_at" db:"synced_at"`
}

// Paid reports whether the invoice balance has been settled.
func (r InvoiceRecord) Paid() bool {
	return r.Balance == 0
}

// InvoiceLineRecord is the persisted line-level detail behind an invoice
// record. Lines are replaced wholesale on every sync of their invoice.
type InvoiceLineRecord struct {
	InvoiceExternalID string  `json:"invoice_external_id" db:"invoice_external_id"`
	LineNo            int     `json:"line_no" db:"line_no"`
	MatchedSKU        string  `json:"matched_sku,omitempty" db:"matched_sku"`
	ItemName          string  `json:"item_name" db:"item_name"`
	Quantity          float64 `json:"quantity" db:"quantity"`
	UnitPrice         float64 `json:"unit_price" db:"unit_price"`
	ShippingDeducted  float64 `json:"shipping_deducted" db:"shipping_deducted"`
	Commissionable    float64 `json:"commissionable" db:"commissionable"`
	Matched           bool    `json:"matched" db:"matched"`
}

// RepMonthSnapshot is the per-rep, per-month aggregate, recomputed from
// scratch whenever any invoice in that rep/month is touched. Upsert keyed by
// (rep, year, month).
type RepMonthSnapshot struct {
	RepName               string    `json:"rep_name" db:"rep_name"`
	Year                  int       `json:"year" db:"year"`
	Month                 int       `json:"month" db:"month"`
	TotalCommission       float64   `json:"total_commission" db:"total_commission"`
	TotalCommissionable   float64   `json:"total_commissionable" db:"total_commissionable"`
	TotalShippingDeducted float64   `json:"total_shipping_deducted" db:"total_shipping_deducted"`
	InvoiceCount          int       `json:"invoice_count" db:"invoice_count"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
}

// RunReport summarizes one sync run.
type RunReport struct {
	RunID             string        `json:"run_id"`
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration"`
	InvoicesFetched   int           `json:"invoices_fetched"`
	InvoicesProcessed int           `json:"invoices_processed"`
	InvoicesSkipped   int           `json:"invoices_skipped"`
	SnapshotsUpdated  int           `json:"snapshots_updated"`
}

// RepSales is one row of the sales-by-rep aggregate, splitting volume the
// rep closed as primary from volume supported as assistant.
type RepSales struct {
	RepName                 string  `json:"rep_name"`
	PrimaryInvoices         int     `json:"primary_invoices"`
	PrimaryCommissionable   float64 `json:"primary_commissionable"`
	PrimaryCommission       float64 `json:"primary_commission"`
	AssistantInvoices       int     `json:"assistant_invoices"`
	AssistantCommissionable float64 `json:"assistant_commissionable"`
	AssistantCommission     float64 `json:"assistant_commission"`
}
