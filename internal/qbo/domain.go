// Package qbo defines the consumed contract for the QuickBooks Online
// invoice feed. The OAuth dance and token refresh live outside this service;
// the client here only binds an already-issued bearer token.
package qbo

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// PaymentStatus filters fetched invoices. Paid means balance is zero.
type PaymentStatus string

const (
	StatusPaid   PaymentStatus = "paid"
	StatusUnpaid PaymentStatus = "unpaid"
	StatusAll    PaymentStatus = "all"
)

// Query bounds one invoice fetch.
type Query struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    PaymentStatus
}

// CustomField is a QBO name/value custom field pair.
type CustomField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LineItem is one invoice line as fetched from QBO.
type LineItem struct {
	ItemRefID   string  `json:"item_ref_id"`
	ItemRefName string  `json:"item_ref_name"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

// Invoice is one fetched invoice record.
type Invoice struct {
	ID           string        `json:"id"`
	DocNumber    string        `json:"doc_number"`
	TxnDate      time.Time     `json:"txn_date"`
	TotalAmount  float64       `json:"total_amount"`
	Balance      float64       `json:"balance"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
	Memo         string        `json:"memo,omitempty"`
	Lines        []LineItem    `json:"lines"`
}

// Paid reports whether the invoice balance has been settled.
func (inv Invoice) Paid() bool {
	return inv.Balance == 0
}

// InvoiceSource is the consumed collaborator interface: given a date range
// and payment status filter, return invoice records.
type InvoiceSource interface {
	FetchInvoices(ctx context.Context, q Query) ([]Invoice, error)
}

// repFieldNames are the custom field names carrying the sales-rep code, in
// the order they are tried.
var repFieldNames = []string{"Sales Rep", "SalesRep", "Rep"}

var memoRepPattern = regexp.MustCompile(`Rep:\s*([A-Za-z\s/]+)`)

// RepCode extracts the raw sales-rep code from the invoice's custom fields,
// falling back to a "Rep: ..." marker in the free-text memo. Returns false
// when no code can be found; the caller decides whether that skips the
// invoice.
func (inv Invoice) RepCode() (string, bool) {
	for _, want := range repFieldNames {
		for _, cf := range inv.CustomFields {
			if cf.Name == want && strings.TrimSpace(cf.Value) != "" {
				return strings.TrimSpace(cf.Value), true
			}
		}
	}
	if m := memoRepPattern.FindStringSubmatch(inv.Memo); m != nil {
		if code := strings.TrimSpace(m[1]); code != "" {
			return code, true
		}
	}
	return "", false
}
