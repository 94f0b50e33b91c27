package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/curvacraft/studio-erp/internal/accounts"
	"github.com/curvacraft/studio-erp/internal/enquiries"
	"github.com/curvacraft/studio-erp/internal/invoices"
	"github.com/curvacraft/studio-erp/internal/observability"
	"github.com/curvacraft/studio-erp/internal/progress"
	"github.com/curvacraft/studio-erp/internal/projects"
	"github.com/curvacraft/studio-erp/internal/purchaseorders"
	"github.com/curvacraft/studio-erp/internal/quotations"
	"github.com/curvacraft/studio-erp/internal/reports"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	EnquiryHandler       *enquiries.Handler
	QuotationHandler     *quotations.Handler
	ProjectHandler       *projects.Handler
	InvoiceHandler       *invoices.Handler
	AccountsHandler      *accounts.Handler
	PurchaseOrderHandler *purchaseorders.Handler
	ProgressHandler      *progress.Handler
	ReportHandler        *reports.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with studio defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if params.EnquiryHandler != nil {
			params.EnquiryHandler.MountRoutes(r)
		}
		if params.QuotationHandler != nil {
			params.QuotationHandler.MountRoutes(r)
		}
		if params.ProjectHandler != nil {
			params.ProjectHandler.MountRoutes(r)
		}
		if params.InvoiceHandler != nil {
			params.InvoiceHandler.MountRoutes(r)
		}
		if params.AccountsHandler != nil {
			params.AccountsHandler.MountRoutes(r)
		}
		if params.PurchaseOrderHandler != nil {
			params.PurchaseOrderHandler.MountRoutes(r)
		}
		if params.ProgressHandler != nil {
			params.ProgressHandler.MountRoutes(r)
		}
		if params.ReportHandler != nil {
			params.ReportHandler.MountRoutes(r)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
