package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crestlift/salesdash/internal/commission"
	"github.com/crestlift/salesdash/internal/observability"
	"github.com/crestlift/salesdash/internal/reps"
	invsync "github.com/crestlift/salesdash/internal/sync"
	"github.com/crestlift/salesdash/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	RepsHandler       *reps.Handler
	CommissionHandler *commission.Handler
	SyncHandler       *invsync.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with salesdash defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		if params.RepsHandler != nil {
			params.RepsHandler.MountRoutes(api)
		}
		if params.CommissionHandler != nil {
			params.CommissionHandler.MountRoutes(api)
		}
		if params.SyncHandler != nil {
			params.SyncHandler.MountRoutes(api)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", func(jr chi.Router) {
			params.JobHandler.MountRoutes(jr)
		})
	}

	return r
}
