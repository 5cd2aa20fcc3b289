package reps

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/crestlift/salesdash/internal/platform/httpx"
)

// RateStore is the persistence contract the handler needs.
type RateStore interface {
	GetRate(ctx context.Context, repName string) (float64, error)
	UpsertRate(ctx context.Context, repName string, rate float64) (RepRate, error)
	DeleteRate(ctx context.Context, repName string) error
	ListRates(ctx context.Context) ([]RepRate, error)
}

// Handler manages rep registry and rate endpoints.
type Handler struct {
	logger   *slog.Logger
	registry *Registry
	rates    RateStore
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, registry *Registry, rates RateStore) *Handler {
	return &Handler{
		logger:   logger,
		registry: registry,
		rates:    rates,
		validate: validator.New(),
	}
}

// MountRoutes registers rep routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reps", h.listReps)
	r.Get("/reps/{rep}/rate", h.getRate)
	r.Put("/reps/{rep}/rate", h.putRate)
	r.Delete("/reps/{rep}/rate", h.deleteRate)
}

type repView struct {
	Name  string         `json:"name"`
	Class Classification `json:"class"`
	Rate  *float64       `json:"rate,omitempty"`
}

func (h *Handler) listReps(w http.ResponseWriter, r *http.Request) {
	stored, err := h.rates.ListRates(r.Context())
	if err != nil {
		h.logger.Error("list rep rates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	rateBy := make(map[string]float64, len(stored))
	for _, rr := range stored {
		rateBy[rr.RepName] = rr.Rate
	}

	views := make([]repView, 0, len(h.registry.Identities()))
	for _, id := range h.registry.Identities() {
		v := repView{Name: id.Name, Class: id.Class}
		if rate, ok := rateBy[id.Name]; ok {
			v.Rate = &rate
		}
		views = append(views, v)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"reps": views})
}

func (h *Handler) getRate(w http.ResponseWriter, r *http.Request) {
	rep := h.registry.Canonicalize(chi.URLParam(r, "rep"))
	rate, err := h.rates.GetRate(r.Context(), rep)
	if err != nil {
		h.logger.Error("get rep rate", slog.String("rep", rep), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rep_name": rep, "rate": rate})
}

func (h *Handler) putRate(w http.ResponseWriter, r *http.Request) {
	rep := h.registry.Canonicalize(chi.URLParam(r, "rep"))

	var req UpsertRateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	stored, err := h.rates.UpsertRate(r.Context(), rep, req.Rate)
	if err != nil {
		h.logger.Error("upsert rep rate", slog.String("rep", rep), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stored)
}

// deleteRate reverts a rep to the default commission rate.
func (h *Handler) deleteRate(w http.ResponseWriter, r *http.Request) {
	rep := h.registry.Canonicalize(chi.URLParam(r, "rep"))

	if err := h.rates.DeleteRate(r.Context(), rep); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("delete rep rate", slog.String("rep", rep), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
