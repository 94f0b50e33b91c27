package purchaseorders

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

// Handler manages contractor and purchase order endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers contractor and purchase order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/contractors", func(r chi.Router) {
		r.Get("/", h.listContractors)
		r.Post("/", h.createContractor)
		r.Get("/{id}", h.getContractor)
		r.Put("/{id}", h.updateContractor)
		r.Delete("/{id}", h.deleteContractor)
	})
	r.Route("/purchase-orders", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/status", h.setStatus)
	})
}

type contractorPayload struct {
	Name          string `json:"name" validate:"required"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

type itemPayload struct {
	Description string `json:"description" validate:"required"`
	Quantity    string `json:"quantity" validate:"required"`
	Unit        string `json:"unit"`
	UnitPrice   string `json:"unit_price" validate:"required"`
}

type orderPayload struct {
	ContractorID  int64         `json:"contractor_id" validate:"required,gt=0"`
	TaxPercentage string        `json:"tax_percentage"`
	Items         []itemPayload `json:"items" validate:"required,min=1,dive"`
}

func decodeItems(payloads []itemPayload) ([]Item, error) {
	items := make([]Item, 0, len(payloads))
	for _, p := range payloads {
		qty, err := decimal.NewFromString(p.Quantity)
		if err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(p.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, Item{
			Description: p.Description,
			Quantity:    qty,
			Unit:        p.Unit,
			UnitPrice:   price,
		})
	}
	return items, nil
}

func decodeTax(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return DefaultTaxPercentage, nil
	}
	return decimal.NewFromString(raw)
}

// orderView decorates a purchase order with its derived totals.
type orderView struct {
	*PurchaseOrder
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

func viewOf(po *PurchaseOrder) orderView {
	t := po.Totals()
	return orderView{PurchaseOrder: po, Subtotal: t.Subtotal, TaxAmount: t.TaxAmount, GrandTotal: t.GrandTotal}
}

func (h *Handler) createContractor(w http.ResponseWriter, r *http.Request) {
	var payload contractorPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c := &Contractor{
		Name:          payload.Name,
		ContactPerson: payload.ContactPerson,
		Email:         payload.Email,
		Phone:         payload.Phone,
		Address:       payload.Address,
	}
	if err := h.service.CreateContractor(r.Context(), c); err != nil {
		h.logger.Error("create contractor", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) updateContractor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid contractor id")
		return
	}
	var payload contractorPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c := &Contractor{
		ID:            id,
		Name:          payload.Name,
		ContactPerson: payload.ContactPerson,
		Email:         payload.Email,
		Phone:         payload.Phone,
		Address:       payload.Address,
	}
	if err := h.service.UpdateContractor(r.Context(), c); err != nil {
		h.logger.Error("update contractor", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) getContractor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid contractor id")
		return
	}
	c, err := h.service.GetContractor(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) listContractors(w http.ResponseWriter, r *http.Request) {
	contractors, err := h.service.ListContractors(r.Context(), paginationFrom(r))
	if err != nil {
		h.logger.Error("list contractors", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"contractors": contractors})
}

func (h *Handler) deleteContractor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid contractor id")
		return
	}
	if err := h.service.DeleteContractor(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	items, err := decodeItems(payload.Items)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "item quantity and unit price must be decimal numbers")
		return
	}
	tax, err := decodeTax(payload.TaxPercentage)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tax_percentage must be a decimal number")
		return
	}

	po := &PurchaseOrder{
		ContractorID:  payload.ContractorID,
		TaxPercentage: tax,
		Items:         items,
	}
	if err := h.service.Create(r.Context(), po); err != nil {
		h.logger.Error("create purchase order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(po))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid purchase order id")
		return
	}
	var payload struct {
		TaxPercentage string        `json:"tax_percentage"`
		Items         []itemPayload `json:"items" validate:"required,min=1,dive"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	items, err := decodeItems(payload.Items)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "item quantity and unit price must be decimal numbers")
		return
	}
	tax, err := decodeTax(payload.TaxPercentage)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tax_percentage must be a decimal number")
		return
	}

	po := &PurchaseOrder{ID: id, TaxPercentage: tax, Items: items}
	if err := h.service.Update(r.Context(), po); err != nil {
		h.logger.Error("update purchase order", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(po))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid purchase order id")
		return
	}
	po, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(po))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	contractorID, _ := strconv.ParseInt(r.URL.Query().Get("contractor_id"), 10, 64)
	filter := ListFilter{
		ContractorID: contractorID,
		Status:       Status(r.URL.Query().Get("status")),
	}
	orders, err := h.service.List(r.Context(), filter, paginationFrom(r))
	if err != nil {
		h.logger.Error("list purchase orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purchase_orders": orders})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid purchase order id")
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
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid purchase order id")
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
		h.logger.Error("set purchase order status", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func paginationFrom(r *http.Request) shared.PageRequest {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	return shared.NewPageRequest(page, size)
}
