package projects

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/curvacraft/studio-erp/internal/platform/httpx"
	"github.com/curvacraft/studio-erp/internal/shared"
)

// Handler manages project endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/from-quotation/{quotationID}", h.createFromQuotation)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/status", h.setStatus)
		r.Get("/{id}/ledger", h.ledger)
	})
}

func (h *Handler) createFromQuotation(w http.ResponseWriter, r *http.Request) {
	quotationID, err := strconv.ParseInt(chi.URLParam(r, "quotationID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid quotation id")
		return
	}
	var payload struct {
		Title string `json:"title"`
	}
	// An empty body keeps the generated default title.
	_ = httpx.DecodeJSON(r, &payload)

	p, err := h.service.CreateFromQuotation(r.Context(), quotationID, payload.Title)
	if err != nil {
		h.logger.Error("create project from quotation", slog.Any("error", err), slog.Int64("quotation_id", quotationID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

type updatePayload struct {
	Title         string `json:"title" validate:"required"`
	TaxPercentage string `json:"tax_percentage"`
	Items         []struct {
		Description string `json:"description" validate:"required"`
		Quantity    string `json:"quantity" validate:"required"`
		Unit        string `json:"unit"`
		UnitPrice   string `json:"unit_price" validate:"required"`
	} `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid project id")
		return
	}
	var payload updatePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	tax := decimal.Zero
	if payload.TaxPercentage != "" {
		tax, err = decimal.NewFromString(payload.TaxPercentage)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tax_percentage must be a decimal number")
			return
		}
	}
	p := &Project{ID: id, Title: payload.Title, TaxPercentage: tax}
	for _, it := range payload.Items {
		qty, qerr := decimal.NewFromString(it.Quantity)
		price, perr := decimal.NewFromString(it.UnitPrice)
		if qerr != nil || perr != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "item quantity and unit price must be decimal numbers")
			return
		}
		p.Items = append(p.Items, Item{Description: it.Description, Quantity: qty, Unit: it.Unit, UnitPrice: price})
	}

	if err := h.service.Update(r.Context(), p); err != nil {
		h.logger.Error("update project", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid project id")
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	totals := p.Totals()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"project":     p,
		"subtotal":    totals.Subtotal,
		"tax_amount":  totals.TaxAmount,
		"grand_total": totals.GrandTotal,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	status := Status(r.URL.Query().Get("status"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	projects, err := h.service.List(r.Context(), status, shared.NewPageRequest(page, size))
	if err != nil {
		h.logger.Error("list projects", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid project id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid project id")
		return
	}
	var payload struct {
		Status string `json:"status" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.SetStatus(r.Context(), id, Status(payload.Status)); err != nil {
		h.logger.Error("set project status", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ledger returns the project's derived financial position.
func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid project id")
		return
	}
	ledger, err := h.service.Ledger(r.Context(), id)
	if err != nil {
		h.logger.Error("project ledger", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"budget":                    ledger.Budget,
		"total_invoiced_subtotal":   ledger.TotalInvoicedSubtotal(),
		"total_invoiced_grand":      ledger.TotalInvoicedGrand(),
		"total_received":            ledger.TotalReceived,
		"total_credited":            ledger.TotalCredited,
		"accounts_receivable":       ledger.AccountsReceivable(),
		"budget_remaining_subtotal": ledger.BudgetRemainingToInvoiceSubtotal(),
		"budget_remaining_grand":    ledger.BudgetRemainingToInvoiceGrand(),
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
