package quotations

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

// Handler manages quotation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers quotation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/quotations", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/status", h.setStatus)
	})
}

type itemPayload struct {
	Description string `json:"description" validate:"required"`
	Quantity    string `json:"quantity" validate:"required"`
	Unit        string `json:"unit"`
	UnitPrice   string `json:"unit_price" validate:"required"`
}

type quotationPayload struct {
	EnquiryID     int64         `json:"enquiry_id" validate:"required,gt=0"`
	QuoteType     string        `json:"quote_type" validate:"required,oneof=DESIGN FITOUT"`
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

// quotationView decorates a quotation with its derived totals for responses.
type quotationView struct {
	*Quotation
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

func viewOf(q *Quotation) quotationView {
	t := q.Totals()
	return quotationView{Quotation: q, Subtotal: t.Subtotal, TaxAmount: t.TaxAmount, GrandTotal: t.GrandTotal}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload quotationPayload
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

	q := &Quotation{
		EnquiryID:     payload.EnquiryID,
		QuoteType:     QuoteType(payload.QuoteType),
		TaxPercentage: tax,
		Items:         items,
	}
	if err := h.service.Create(r.Context(), q); err != nil {
		h.logger.Error("create quotation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(q))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid quotation id")
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

	q := &Quotation{ID: id, TaxPercentage: tax, Items: items}
	if err := h.service.Update(r.Context(), q); err != nil {
		h.logger.Error("update quotation", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(q))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid quotation id")
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(q))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	enquiryID, _ := strconv.ParseInt(r.URL.Query().Get("enquiry_id"), 10, 64)
	filter := ListFilter{
		EnquiryID: enquiryID,
		Status:    QuoteStatus(r.URL.Query().Get("status")),
	}
	quotes, err := h.service.List(r.Context(), filter, paginationFrom(r))
	if err != nil {
		h.logger.Error("list quotations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quotations": quotes})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid quotation id")
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
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid quotation id")
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
	if err := h.service.SetStatus(r.Context(), id, QuoteStatus(payload.Status)); err != nil {
		h.logger.Error("set quotation status", slog.Any("error", err), slog.Int64("id", id))
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
