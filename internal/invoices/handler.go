package invoices

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/curvacraft/studio-erp/internal/finance"
	"github.com/curvacraft/studio-erp/internal/platform/httpx"
	"github.com/curvacraft/studio-erp/internal/shared"
)

const dateLayout = "2006-01-02"

// Handler manages invoice endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Post("/{id}/status", h.setStatus)
		r.Post("/{id}/void", h.void)
	})
}

type itemPayload struct {
	Description  string `json:"description" validate:"required"`
	QuantityType string `json:"quantity_type" validate:"required,oneof=FIXED PERCENTAGE"`
	Quantity     string `json:"quantity" validate:"required"`
	UnitPrice    string `json:"unit_price" validate:"required"`
}

type invoicePayload struct {
	ProjectID     int64         `json:"project_id" validate:"required,gt=0"`
	IssueDate     string        `json:"date"`
	DueDate       string        `json:"due_date"`
	TaxPercentage string        `json:"tax_percentage" validate:"required"`
	Items         []itemPayload `json:"items" validate:"required,min=1,dive"`
}

func (p invoicePayload) toInvoice() (*Invoice, error) {
	tax, err := decimal.NewFromString(p.TaxPercentage)
	if err != nil {
		return nil, err
	}
	inv := &Invoice{ProjectID: p.ProjectID, TaxPercentage: tax}
	if p.IssueDate != "" {
		d, err := time.Parse(dateLayout, p.IssueDate)
		if err != nil {
			return nil, err
		}
		inv.IssueDate = d
	}
	if p.DueDate != "" {
		d, err := time.Parse(dateLayout, p.DueDate)
		if err != nil {
			return nil, err
		}
		inv.DueDate = &d
	}
	for _, it := range p.Items {
		qty, err := decimal.NewFromString(it.Quantity)
		if err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(it.UnitPrice)
		if err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, Item{
			Description:  it.Description,
			QuantityType: finance.QuantityType(it.QuantityType),
			Quantity:     qty,
			UnitPrice:    price,
		})
	}
	return inv, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload invoicePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	inv, err := payload.toInvoice()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amounts must be decimal numbers and dates YYYY-MM-DD")
		return
	}
	if err := h.service.Create(r.Context(), inv); err != nil {
		h.logger.Error("create invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid invoice id")
		return
	}
	var payload invoicePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	inv, err := payload.toInvoice()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amounts must be decimal numbers and dates YYYY-MM-DD")
		return
	}
	inv.ID = id
	if err := h.service.Update(r.Context(), inv); err != nil {
		h.logger.Error("update invoice", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid invoice id")
		return
	}
	detail, err := h.service.Detail(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	projectID, _ := strconv.ParseInt(r.URL.Query().Get("project_id"), 10, 64)
	filter := ListFilter{
		ProjectID: projectID,
		Status:    Status(r.URL.Query().Get("status")),
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	list, err := h.service.List(r.Context(), filter, shared.NewPageRequest(page, size))
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": list})
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid invoice id")
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
		h.logger.Error("set invoice status", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) void(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid invoice id")
		return
	}
	var payload struct {
		Confirm bool `json:"confirm"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.service.Void(r.Context(), id, payload.Confirm); err != nil {
		h.logger.Error("void invoice", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
