package commission

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/crestlift/salesdash/internal/platform/httpx"
	"github.com/crestlift/salesdash/internal/pricelist"
)

// PriceIndexLoader reads the stored price list as a lookup index.
type PriceIndexLoader interface {
	LoadIndex(ctx context.Context) (*pricelist.Index, error)
}

// Handler manages the commission preview endpoint.
type Handler struct {
	logger   *slog.Logger
	prices   PriceIndexLoader
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, prices PriceIndexLoader) *Handler {
	return &Handler{
		logger:   logger,
		prices:   prices,
		validate: validator.New(),
	}
}

// MountRoutes registers commission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/commission/preview", h.preview)
}

// PreviewRequest carries invoice lines for a dry-run calculation. The price
// list may be supplied inline (the import flow previews against unsaved
// rows); otherwise the stored price list is used.
type PreviewRequest struct {
	Lines              []LineInput        `json:"lines" validate:"required,min=1"`
	PriceList          []pricelist.Entry  `json:"price_list,omitempty"`
	RepCommissionRate  float64            `json:"rep_commission_rate" validate:"gte=0,lte=1"`
	MissingSKUStrategy MissingSKUStrategy `json:"missing_sku_strategy,omitempty" validate:"omitempty,oneof=exclude zero-shipping"`
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	var ix *pricelist.Index
	if len(req.PriceList) > 0 {
		ix = pricelist.NewIndex(req.PriceList)
	} else {
		loaded, err := h.prices.LoadIndex(r.Context())
		if err != nil {
			h.logger.Error("load price list", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		ix = loaded
	}

	result := CalculateInvoice(req.Lines, ix, Options{
		RepCommissionRate:  req.RepCommissionRate,
		MissingSKUStrategy: req.MissingSKUStrategy,
	})
	httpx.JSON(w, http.StatusOK, result)
}
