package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestlift/salesdash/internal/qbo"
)

type mockEnqueuer struct {
	calls  int
	status qbo.PaymentStatus
}

func (m *mockEnqueuer) EnqueueInvoiceSync(_ context.Context, _, _ *time.Time, status qbo.PaymentStatus) error {
	m.calls++
	m.status = status
	return nil
}

func newHandlerServer(svc *Service, enqueuer Enqueuer) http.Handler {
	h := NewHandler(testLogger(), svc, enqueuer)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func postJSON(t *testing.T, srv http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRunSyncInline(t *testing.T) {
	store := newMockStore()
	source := &mockSource{invoices: []qbo.Invoice{syncInvoice("1", 2, 1000, "DM")}}
	srv := newHandlerServer(newTestService(source, store, &mockLock{}, 150_000), nil)

	rec := postJSON(t, srv, "/sync", `{"start_date":"2025-03-01","end_date":"2025-03-31","status":"all"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var report RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.InvoicesProcessed)
	assert.Len(t, store.invoices, 1)
}

func TestHandlerRunSyncConflict(t *testing.T) {
	svc := newTestService(&mockSource{}, newMockStore(), &mockLock{acquireErr: ErrSyncInProgress}, 150_000)
	srv := newHandlerServer(svc, nil)

	rec := postJSON(t, srv, "/sync", `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerRunSyncBackground(t *testing.T) {
	enq := &mockEnqueuer{}
	source := &mockSource{}
	srv := newHandlerServer(newTestService(source, newMockStore(), &mockLock{}, 150_000), enq)

	rec := postJSON(t, srv, "/sync", `{"background":true,"status":"paid"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, enq.calls)
	assert.Equal(t, qbo.StatusPaid, enq.status)
	// Nothing ran inline.
	assert.Zero(t, source.calls)
}

func TestHandlerRunSyncRejectsBadDate(t *testing.T) {
	srv := newHandlerServer(newTestService(&mockSource{}, newMockStore(), &mockLock{}, 150_000), nil)

	rec := postJSON(t, srv, "/sync", `{"start_date":"03/01/2025"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerSalesByRep(t *testing.T) {
	store := newMockStore()
	store.invoices["1"] = InvoiceRecord{ExternalID: "1", PrimaryRep: "DM", Commissionable: 1000, PrimaryCommission: 50}
	srv := newHandlerServer(newTestService(&mockSource{}, store, &mockLock{}, 150_000), nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales-by-rep", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Reps []RepSales `json:"reps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Reps, 1)
	assert.Equal(t, "DM", body.Reps[0].RepName)
}

func TestHandlerSalesByRepRejectsBadStatus(t *testing.T) {
	srv := newHandlerServer(newTestService(&mockSource{}, newMockStore(), &mockLock{}, 150_000), nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales-by-rep?status=overdue", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerInvoiceDetail(t *testing.T) {
	store := newMockStore()
	store.invoices["42"] = InvoiceRecord{ExternalID: "42", PrimaryRep: "DM", Commissionable: 1000}
	store.lines["42"] = []InvoiceLineRecord{
		{InvoiceExternalID: "42", LineNo: 1, ItemName: "4 Post Lift", Commissionable: 1000},
	}
	srv := newHandlerServer(newTestService(&mockSource{}, store, &mockLock{}, 150_000), nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices/42", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Invoice InvoiceRecord       `json:"invoice"`
		Lines   []InvoiceLineRecord `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "42", body.Invoice.ExternalID)
	require.Len(t, body.Lines, 1)
	assert.Equal(t, "4 Post Lift", body.Lines[0].ItemName)
}

func TestHandlerInvoiceDetailNotFound(t *testing.T) {
	srv := newHandlerServer(newTestService(&mockSource{}, newMockStore(), &mockLock{}, 150_000), nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices/999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerBonusProgress(t *testing.T) {
	store := newMockStore()
	store.invoices["1"] = InvoiceRecord{
		ExternalID: "1", PrimaryRep: "KLH", AssistantRep: "SC",
		TxnDate:        time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		Commissionable: 50_000,
	}
	srv := newHandlerServer(newTestService(&mockSource{}, store, &mockLock{}, 150_000), nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reps/SC/bonus-progress?year=2025&month=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		IsBonusRep         bool    `json:"is_bonus_rep"`
		PercentToThreshold float64 `json:"percent_to_threshold"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.IsBonusRep)
	assert.InDelta(t, 33.33, body.PercentToThreshold, 1e-9)
}

func TestHandlerBonusProgressDefaultsToServiceClock(t *testing.T) {
	store := newMockStore()
	store.invoices["1"] = InvoiceRecord{
		ExternalID: "1", PrimaryRep: "KLH", AssistantRep: "SC",
		TxnDate:        time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		Commissionable: 50_000,
	}
	svc := newTestService(&mockSource{}, store, &mockLock{}, 150_000)
	// The unqualified endpoint reports the month of the service clock, not
	// the wall clock.
	svc.WithNow(func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) })
	srv := newHandlerServer(svc, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reps/SC/bonus-progress", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		SalesAmount float64 `json:"sales_amount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 50_000.0, body.SalesAmount, 1e-9)
}

func TestHandlerBonusProgressRejectsBadMonth(t *testing.T) {
	srv := newHandlerServer(newTestService(&mockSource{}, newMockStore(), &mockLock{}, 150_000), nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reps/SC/bonus-progress?month=13", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
