package sync

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/crestlift/salesdash/internal/platform/httpx"
	"github.com/crestlift/salesdash/internal/qbo"
)

const dateLayout = "2006-01-02"

// Enqueuer schedules a sync to run in the background worker.
type Enqueuer interface {
	EnqueueInvoiceSync(ctx context.Context, start, end *time.Time, status qbo.PaymentStatus) error
}

// Handler manages sync and attribution endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	enqueuer Enqueuer
	validate *validator.Validate
}

// NewHandler builds Handler instance. enqueuer may be nil; the sync endpoint
// then always runs inline.
func NewHandler(logger *slog.Logger, service *Service, enqueuer Enqueuer) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		enqueuer: enqueuer,
		validate: validator.New(),
	}
}

// MountRoutes registers sync routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sync", h.runSync)
	r.Get("/sales-by-rep", h.salesByRep)
	r.Get("/invoices/{id}", h.invoiceDetail)
	r.Get("/reps/{rep}/invoices", h.repInvoices)
	r.Get("/reps/{rep}/snapshots", h.repSnapshots)
	r.Get("/reps/{rep}/bonus-progress", h.bonusProgress)
}

// SyncRequest bounds one sync run.
type SyncRequest struct {
	StartDate  string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate    string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status     string `json:"status,omitempty" validate:"omitempty,oneof=paid unpaid all"`
	Background bool   `json:"background,omitempty"`
}

func (h *Handler) runSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	start := parseDate(req.StartDate)
	end := parseDate(req.EndDate)
	status := qbo.PaymentStatus(req.Status)
	if status == "" {
		status = qbo.StatusAll
	}

	if req.Background && h.enqueuer != nil {
		if err := h.enqueuer.EnqueueInvoiceSync(r.Context(), start, end, status); err != nil {
			h.logger.Error("enqueue sync", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "enqueued"})
		return
	}

	report, err := h.service.Run(r.Context(), qbo.Query{StartDate: start, EndDate: end, Status: status})
	if err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			httpx.Problem(w, http.StatusConflict, "Sync In Progress", err.Error())
			return
		}
		h.logger.Error("sync run", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) salesByRep(w http.ResponseWriter, r *http.Request) {
	start, end, status, err := parseWindow(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}
	rows, err := h.service.SalesByRep(r.Context(), start, end, status)
	if err != nil {
		h.logger.Error("sales by rep", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"reps": rows})
}

func (h *Handler) repInvoices(w http.ResponseWriter, r *http.Request) {
	start, end, status, err := parseWindow(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}
	rep := chi.URLParam(r, "rep")
	recs, err := h.service.ListRepInvoices(r.Context(), rep, start, end, status)
	if err != nil {
		h.logger.Error("list rep invoices", slog.String("rep", rep), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": recs})
}

func (h *Handler) invoiceDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, lines, err := h.service.InvoiceDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("invoice detail", slog.String("invoice", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoice": rec, "lines": lines})
}

func (h *Handler) repSnapshots(w http.ResponseWriter, r *http.Request) {
	rep := chi.URLParam(r, "rep")
	snaps, err := h.service.ListSnapshots(r.Context(), rep)
	if err != nil {
		h.logger.Error("list snapshots", slog.String("rep", rep), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

func (h *Handler) bonusProgress(w http.ResponseWriter, r *http.Request) {
	rep := chi.URLParam(r, "rep")
	now := h.service.Now()
	year := now.Year()
	month := int(now.Month())
	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "year must be an integer")
			return
		}
		year = parsed
	}
	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 12 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "month must be 1-12")
			return
		}
		month = parsed
	}

	progress, err := h.service.BonusProgress(r.Context(), rep, year, month)
	if err != nil {
		h.logger.Error("bonus progress", slog.String("rep", rep), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, progress)
}

func parseWindow(r *http.Request) (start, end *time.Time, status qbo.PaymentStatus, err error) {
	q := r.URL.Query()
	if v := q.Get("start"); v != "" {
		t, perr := time.Parse(dateLayout, v)
		if perr != nil {
			return nil, nil, "", errors.New("start must be YYYY-MM-DD")
		}
		start = &t
	}
	if v := q.Get("end"); v != "" {
		t, perr := time.Parse(dateLayout, v)
		if perr != nil {
			return nil, nil, "", errors.New("end must be YYYY-MM-DD")
		}
		end = &t
	}
	switch s := q.Get("status"); s {
	case "", "all":
		status = qbo.StatusAll
	case "paid":
		status = qbo.StatusPaid
	case "unpaid":
		status = qbo.StatusUnpaid
	default:
		return nil, nil, "", errors.New("status must be paid, unpaid or all")
	}
	return start, end, status, nil
}

func parseDate(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil
	}
	return &t
}
