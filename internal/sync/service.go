package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/crestlift/salesdash/internal/commission"
	"github.com/crestlift/salesdash/internal/observability"
	"github.com/crestlift/salesdash/internal/pricelist"
	"github.com/crestlift/salesdash/internal/qbo"
	"github.com/crestlift/salesdash/internal/reps"
)

// Store is the persistence contract the orchestrator needs.
type Store interface {
	UpsertInvoice(ctx context.Context, rec InvoiceRecord) error
	ReplaceInvoiceLines(ctx context.Context, externalID string, lines []InvoiceLineRecord) error
	UpdateAssistantCommission(ctx context.Context, externalID string, amount float64) error
	GetInvoice(ctx context.Context, externalID string) (InvoiceRecord, []InvoiceLineRecord, error)
	ListInvoicesForRepMonth(ctx context.Context, repName string, year, month int) ([]InvoiceRecord, error)
	UpsertSnapshot(ctx context.Context, snap RepMonthSnapshot) error
	ListInvoicesByRep(ctx context.Context, repName string, start, end *time.Time, paidOnly *bool) ([]InvoiceRecord, error)
	ListInvoices(ctx context.Context, start, end *time.Time, paidOnly *bool) ([]InvoiceRecord, error)
	ListSnapshots(ctx context.Context, repName string) ([]RepMonthSnapshot, error)
}

// PriceIndexLoader reads the current price list as a matching index.
type PriceIndexLoader interface {
	LoadIndex(ctx context.Context) (*pricelist.Index, error)
}

// RateStore reads commission rates by canonical rep name.
type RateStore interface {
	GetRate(ctx context.Context, repName string) (float64, error)
}

// Locker serializes sync runs.
type Locker interface {
	Acquire(ctx context.Context, runID string) error
	Release(ctx context.Context, runID string) error
}

// Service orchestrates invoice attribution: it fetches QBO invoices, matches
// lines against the price list, splits attribution between primary and
// assistant reps, persists invoice records, and recomputes rep/month
// snapshots.
type Service struct {
	logger   *slog.Logger
	source   qbo.InvoiceSource
	prices   PriceIndexLoader
	rates    RateStore
	registry *reps.Registry
	bonus    *commission.BonusEngine
	store    Store
	lock     Locker
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewService constructs a sync service.
func NewService(
	logger *slog.Logger,
	source qbo.InvoiceSource,
	prices PriceIndexLoader,
	rates RateStore,
	registry *reps.Registry,
	bonus *commission.BonusEngine,
	store Store,
	lock Locker,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		logger:   logger,
		source:   source,
		prices:   prices,
		rates:    rates,
		registry: registry,
		bonus:    bonus,
		store:    store,
		lock:     lock,
		metrics:  metrics,
		now:      time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

type repMonth struct {
	rep   string
	year  int
	month int
}

// Run executes one sync over the given invoice window. An upstream fetch or
// persistence failure aborts the run; invoices without a resolvable rep are
// skipped with a warning. Re-running the same window is safe: all writes are
// idempotent upserts.
func (s *Service) Run(ctx context.Context, q qbo.Query) (RunReport, error) {
	runID := uuid.NewString()
	started := s.now()
	report := RunReport{RunID: runID, StartedAt: started}

	if err := s.lock.Acquire(ctx, runID); err != nil {
		return report, err
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), runID); err != nil {
			s.logger.Warn("release sync lock", slog.String("run_id", runID), slog.Any("error", err))
		}
	}()

	invoices, err := s.source.FetchInvoices(ctx, q)
	if err != nil {
		s.metrics.ObserveSyncRun("fetch_failed", 0, 0, s.now().Sub(started))
		return report, fmt.Errorf("fetch invoices: %w", err)
	}
	report.InvoicesFetched = len(invoices)

	ix, err := s.prices.LoadIndex(ctx)
	if err != nil {
		s.metrics.ObserveSyncRun("failed", 0, 0, s.now().Sub(started))
		return report, fmt.Errorf("load price list: %w", err)
	}

	// Deterministic processing order. Assistant bonus attribution is NOT
	// accumulated here; it is re-derived from the full stored month in
	// recomputeSnapshots, so a date-bounded run cannot see a partial total.
	sort.SliceStable(invoices, func(i, j int) bool {
		if invoices[i].TxnDate.Equal(invoices[j].TxnDate) {
			return invoices[i].ID < invoices[j].ID
		}
		return invoices[i].TxnDate.Before(invoices[j].TxnDate)
	})

	touched := make(map[repMonth]bool)

	for _, inv := range invoices {
		code, ok := inv.RepCode()
		if !ok {
			s.logger.Warn("no rep resolvable, skipping invoice",
				slog.String("invoice", inv.ID), slog.String("doc_number", inv.DocNumber))
			report.InvoicesSkipped++
			continue
		}
		parsed := reps.ParseRepCode(code)
		primary := s.registry.Canonicalize(parsed.PrimaryRep)
		assistant := ""
		if parsed.HasAssistant() {
			assistant = s.registry.Canonicalize(parsed.AssistantRep)
		}

		rec, lines := s.attribute(inv, ix, primary, assistant)

		primaryRate, err := s.rates.GetRate(ctx, primary)
		if err != nil {
			s.metrics.ObserveSyncRun("failed", report.InvoicesProcessed, report.InvoicesSkipped, s.now().Sub(started))
			return report, fmt.Errorf("rate for %s: %w", primary, err)
		}
		rec.PrimaryRate = primaryRate
		rec.PrimaryCommission = rec.Commissionable * primaryRate

		year, month := inv.TxnDate.Year(), int(inv.TxnDate.Month())

		if err := s.store.UpsertInvoice(ctx, rec); err != nil {
			s.metrics.ObserveSyncRun("failed", report.InvoicesProcessed, report.InvoicesSkipped, s.now().Sub(started))
			return report, fmt.Errorf("upsert invoice %s: %w", rec.ExternalID, err)
		}
		if err := s.store.ReplaceInvoiceLines(ctx, rec.ExternalID, lines); err != nil {
			s.metrics.ObserveSyncRun("failed", report.InvoicesProcessed, report.InvoicesSkipped, s.now().Sub(started))
			return report, fmt.Errorf("replace lines for %s: %w", rec.ExternalID, err)
		}

		report.InvoicesProcessed++
		touched[repMonth{primary, year, month}] = true
		if assistant != "" {
			touched[repMonth{assistant, year, month}] = true
		}
	}

	if err := s.recomputeSnapshots(ctx, touched); err != nil {
		s.metrics.ObserveSyncRun("failed", report.InvoicesProcessed, report.InvoicesSkipped, s.now().Sub(started))
		return report, err
	}
	report.SnapshotsUpdated = len(touched)
	report.Duration = s.now().Sub(started)

	s.metrics.ObserveSyncRun("ok", report.InvoicesProcessed, report.InvoicesSkipped, report.Duration)
	s.logger.Info("sync run complete",
		slog.String("run_id", runID),
		slog.Int("fetched", report.InvoicesFetched),
		slog.Int("processed", report.InvoicesProcessed),
		slog.Int("skipped", report.InvoicesSkipped),
		slog.Int("snapshots", report.SnapshotsUpdated),
		slog.Duration("duration", report.Duration))
	return report, nil
}

// attribute matches every line of the invoice and builds the persisted
// record plus line detail. The whole-invoice commissionable total goes to
// the primary rep; the caller layers rates and the bonus rule on top.
func (s *Service) attribute(inv qbo.Invoice, ix *pricelist.Index, primary, assistant string) (InvoiceRecord, []InvoiceLineRecord) {
	rec := InvoiceRecord{
		ExternalID:   inv.ID,
		DocNumber:    inv.DocNumber,
		TxnDate:      inv.TxnDate,
		TotalAmount:  inv.TotalAmount,
		Balance:      inv.Balance,
		PrimaryRep:   primary,
		AssistantRep: assistant,
		SyncedAt:     s.now().UTC(),
	}

	lines := make([]InvoiceLineRecord, 0, len(inv.Lines))
	for i, item := range inv.Lines {
		m := pricelist.MatchLine(ix, item.ItemRefID, item.ItemRefName, item.Quantity, item.UnitPrice)
		rec.Commissionable += m.Commissionable
		rec.ShippingDeducted += m.ShippingDeducted
		if !m.Matched {
			rec.NeedsMappingCount++
		}
		lines = append(lines, InvoiceLineRecord{
			InvoiceExternalID: inv.ID,
			LineNo:            i + 1,
			MatchedSKU:        m.SKU,
			ItemName:          item.ItemRefName,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			ShippingDeducted:  m.ShippingDeducted,
			Commissionable:    m.Commissionable,
			Matched:           m.Matched,
		})
	}
	return rec, lines
}

// recomputeSnapshots re-derives every touched rep/month from its source
// invoices. Full re-derivation, never an incremental delta: drift from a
// partially failed run disappears on the next sync. Distinct rep/months
// recompute in parallel; assistant-commission rewrites only happen in the
// assisting rep's own rep/month, so the same invoice is never written
// concurrently.
func (s *Service) recomputeSnapshots(ctx context.Context, touched map[repMonth]bool) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for key := range touched {
		key := key
		g.Go(func() error {
			rows, err := s.store.ListInvoicesForRepMonth(gctx, key.rep, key.year, key.month)
			if err != nil {
				return fmt.Errorf("list invoices for %s %d-%02d: %w", key.rep, key.year, key.month, err)
			}
			sort.SliceStable(rows, func(i, j int) bool {
				if rows[i].TxnDate.Equal(rows[j].TxnDate) {
					return rows[i].ExternalID < rows[j].ExternalID
				}
				return rows[i].TxnDate.Before(rows[j].TxnDate)
			})
			if err := s.rederiveAssistantCommissions(gctx, key, rows); err != nil {
				return err
			}
			snap := RepMonthSnapshot{
				RepName:   key.rep,
				Year:      key.year,
				Month:     key.month,
				UpdatedAt: s.now().UTC(),
			}
			for _, rec := range rows {
				if rec.PrimaryRep == key.rep {
					snap.TotalCommission += rec.PrimaryCommission
				}
				if rec.AssistantRep == key.rep {
					snap.TotalCommission += rec.AssistantCommission
				}
				snap.TotalCommissionable += rec.Commissionable
				snap.TotalShippingDeducted += rec.ShippingDeducted
				snap.InvoiceCount++
			}
			if err := s.store.UpsertSnapshot(gctx, snap); err != nil {
				return fmt.Errorf("upsert snapshot for %s %d-%02d: %w", key.rep, key.year, key.month, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// rederiveAssistantCommissions recomputes the bonus-rule payout for every
// invoice the rep assisted in the month. The running monthly total
// accumulates over the complete stored invoice set in chronological order,
// so the threshold-crossing attribution is a pure function of the month and
// stays correct no matter which date window each run fetched. rows must be
// sorted by txn date then external id and is repaired in place.
func (s *Service) rederiveAssistantCommissions(ctx context.Context, key repMonth, rows []InvoiceRecord) error {
	var (
		rate     float64
		haveRate bool
		running  float64
	)
	for i := range rows {
		rec := &rows[i]
		if rec.AssistantRep != key.rep {
			continue
		}
		if !haveRate {
			r, err := s.rates.GetRate(ctx, key.rep)
			if err != nil {
				return fmt.Errorf("rate for %s: %w", key.rep, err)
			}
			rate, haveRate = r, true
		}
		running += rec.Commissionable
		want := s.bonus.Commission(key.rep, rec.Commissionable, running, rate)
		if want == rec.AssistantCommission {
			continue
		}
		if err := s.store.UpdateAssistantCommission(ctx, rec.ExternalID, want); err != nil {
			return fmt.Errorf("update assistant commission for %s: %w", rec.ExternalID, err)
		}
		rec.AssistantCommission = want
	}
	return nil
}

// ListRepInvoices returns a rep's synced invoices in a date/status window.
func (s *Service) ListRepInvoices(ctx context.Context, repName string, start, end *time.Time, status qbo.PaymentStatus) ([]InvoiceRecord, error) {
	rep := s.registry.Canonicalize(repName)
	return s.store.ListInvoicesByRep(ctx, rep, start, end, paidFilter(status))
}

// ListSnapshots returns a rep's monthly snapshots.
func (s *Service) ListSnapshots(ctx context.Context, repName string) ([]RepMonthSnapshot, error) {
	return s.store.ListSnapshots(ctx, s.registry.Canonicalize(repName))
}

// InvoiceDetail returns one synced invoice with its line detail.
func (s *Service) InvoiceDetail(ctx context.Context, externalID string) (InvoiceRecord, []InvoiceLineRecord, error) {
	return s.store.GetInvoice(ctx, externalID)
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// SalesByRep aggregates synced invoices into per-rep rows with the
// primary/assistant split.
func (s *Service) SalesByRep(ctx context.Context, start, end *time.Time, status qbo.PaymentStatus) ([]RepSales, error) {
	recs, err := s.store.ListInvoices(ctx, start, end, paidFilter(status))
	if err != nil {
		return nil, err
	}
	byRep := make(map[string]*RepSales)
	get := func(rep string) *RepSales {
		if row, ok := byRep[rep]; ok {
			return row
		}
		row := &RepSales{RepName: rep}
		byRep[rep] = row
		return row
	}
	for _, rec := range recs {
		p := get(rec.PrimaryRep)
		p.PrimaryInvoices++
		p.PrimaryCommissionable += rec.Commissionable
		p.PrimaryCommission += rec.PrimaryCommission
		if rec.AssistantRep != "" {
			a := get(rec.AssistantRep)
			a.AssistantInvoices++
			a.AssistantCommissionable += rec.Commissionable
			a.AssistantCommission += rec.AssistantCommission
		}
	}
	rows := make([]RepSales, 0, len(byRep))
	for _, row := range byRep {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].RepName < rows[j].RepName })
	return rows, nil
}

// BonusProgress projects a salary rep's position against the monthly
// threshold from the invoices synced for that month.
func (s *Service) BonusProgress(ctx context.Context, repName string, year, month int) (commission.BonusProgress, error) {
	rep := s.registry.Canonicalize(repName)
	rows, err := s.store.ListInvoicesForRepMonth(ctx, rep, year, month)
	if err != nil {
		return commission.BonusProgress{}, err
	}
	var total float64
	for _, rec := range rows {
		total += rec.Commissionable
	}
	return s.bonus.Progress(rep, total), nil
}

func paidFilter(status qbo.PaymentStatus) *bool {
	switch status {
	case qbo.StatusPaid:
		paid := true
		return &paid
	case qbo.StatusUnpaid:
		paid := false
		return &paid
	default:
		return nil
	}
}
