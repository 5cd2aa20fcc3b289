package qbo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const txnDateLayout = "2006-01-02"

// Client fetches invoices from the QBO query API. It implements
// InvoiceSource. A fetch is a single blocking call bounded by the underlying
// HTTP client's timeout; a failed fetch aborts the caller's sync run.
type Client struct {
	baseURL     string
	realmID     string
	accessToken string
	httpClient  *http.Client
}

// NewClient constructs a QBO query client.
func NewClient(baseURL, realmID, accessToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		realmID:     realmID,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// FetchInvoices queries invoices in the given range and filters by payment
// status client-side (paid means balance zero).
func (c *Client) FetchInvoices(ctx context.Context, q Query) ([]Invoice, error) {
	stmt := buildStatement(q)
	endpoint := fmt.Sprintf("%s/v3/company/%s/query?query=%s&minorversion=65",
		c.baseURL, url.PathEscape(c.realmID), url.QueryEscape(stmt))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("qbo: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qbo: fetch invoices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("qbo: query returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("qbo: decode response: %w", err)
	}

	invoices := make([]Invoice, 0, len(payload.QueryResponse.Invoice))
	for _, raw := range payload.QueryResponse.Invoice {
		inv, err := raw.toInvoice()
		if err != nil {
			return nil, fmt.Errorf("qbo: invoice %s: %w", raw.ID, err)
		}
		switch q.Status {
		case StatusPaid:
			if !inv.Paid() {
				continue
			}
		case StatusUnpaid:
			if inv.Paid() {
				continue
			}
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func buildStatement(q Query) string {
	var conds []string
	if q.StartDate != nil {
		conds = append(conds, fmt.Sprintf("TxnDate >= '%s'", q.StartDate.Format(txnDateLayout)))
	}
	if q.EndDate != nil {
		conds = append(conds, fmt.Sprintf("TxnDate <= '%s'", q.EndDate.Format(txnDateLayout)))
	}
	stmt := "SELECT * FROM Invoice"
	if len(conds) > 0 {
		stmt += " WHERE " + strings.Join(conds, " AND ")
	}
	return stmt + " ORDERBY TxnDate ASC MAXRESULTS 1000"
}

type queryResponse struct {
	QueryResponse struct {
		Invoice []rawInvoice `json:"Invoice"`
	} `json:"QueryResponse"`
}

type rawInvoice struct {
	ID           string           `json:"Id"`
	DocNumber    string           `json:"DocNumber"`
	TxnDate      string           `json:"TxnDate"`
	TotalAmt     float64          `json:"TotalAmt"`
	Balance      float64          `json:"Balance"`
	CustomField  []rawCustomField `json:"CustomField"`
	CustomerMemo *struct {
		Value string `json:"value"`
	} `json:"CustomerMemo"`
	Line []rawLine `json:"Line"`
}

type rawCustomField struct {
	Name        string `json:"Name"`
	StringValue string `json:"StringValue"`
}

type rawLine struct {
	DetailType          string  `json:"DetailType"`
	Amount              float64 `json:"Amount"`
	SalesItemLineDetail *struct {
		ItemRef struct {
			Value string `json:"value"`
			Name  string `json:"name"`
		} `json:"ItemRef"`
		Qty       float64 `json:"Qty"`
		UnitPrice float64 `json:"UnitPrice"`
	} `json:"SalesItemLineDetail"`
}

func (r rawInvoice) toInvoice() (Invoice, error) {
	txnDate, err := time.Parse(txnDateLayout, r.TxnDate)
	if err != nil {
		return Invoice{}, fmt.Errorf("parse txn date %q: %w", r.TxnDate, err)
	}
	inv := Invoice{
		ID:          r.ID,
		DocNumber:   r.DocNumber,
		TxnDate:     txnDate,
		TotalAmount: r.TotalAmt,
		Balance:     r.Balance,
	}
	for _, cf := range r.CustomField {
		inv.CustomFields = append(inv.CustomFields, CustomField{Name: cf.Name, Value: cf.StringValue})
	}
	if r.CustomerMemo != nil {
		inv.Memo = r.CustomerMemo.Value
	}
	for _, l := range r.Line {
		if l.SalesItemLineDetail == nil {
			continue
		}
		inv.Lines = append(inv.Lines, LineItem{
			ItemRefID:   l.SalesItemLineDetail.ItemRef.Value,
			ItemRefName: l.SalesItemLineDetail.ItemRef.Name,
			Quantity:    l.SalesItemLineDetail.Qty,
			UnitPrice:   l.SalesItemLineDetail.UnitPrice,
			Amount:      l.Amount,
		})
	}
	return inv, nil
}
