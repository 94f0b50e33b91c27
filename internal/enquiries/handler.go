package enquiries

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

// Handler manages customer and enquiry endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers customer and enquiry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Get("/{id}", h.getCustomer)
		r.Put("/{id}", h.updateCustomer)
		r.Delete("/{id}", h.deleteCustomer)
	})
	r.Route("/enquiries", func(r chi.Router) {
		r.Get("/", h.listEnquiries)
		r.Post("/", h.createEnquiry)
		r.Get("/{id}", h.getEnquiry)
		r.Put("/{id}", h.updateEnquiry)
		r.Delete("/{id}", h.deleteEnquiry)
		r.Post("/{id}/status", h.setEnquiryStatus)
	})
}

type customerPayload struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
}

type enquiryPayload struct {
	CustomerID  int64  `json:"customer_id" validate:"required,gt=0"`
	ProjectType string `json:"project_type" validate:"required,oneof=DESIGN FITOUT BOTH"`
	Scope       string `json:"scope" validate:"required"`
	Location    string `json:"location"`
	Budget      string `json:"budget"`
	Timeframe   string `json:"timeframe"`
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var payload customerPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	c := &Customer{
		Name:        payload.Name,
		Email:       payload.Email,
		PhoneNumber: payload.PhoneNumber,
		Address:     payload.Address,
	}
	if err := h.service.CreateCustomer(r.Context(), c); err != nil {
		h.logger.Error("create customer", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid customer id")
		return
	}
	var payload customerPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	c := &Customer{
		ID:          id,
		Name:        payload.Name,
		Email:       payload.Email,
		PhoneNumber: payload.PhoneNumber,
		Address:     payload.Address,
	}
	if err := h.service.UpdateCustomer(r.Context(), c); err != nil {
		h.logger.Error("update customer", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid customer id")
		return
	}
	c, err := h.service.GetCustomer(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context(), paginationFrom(r))
	if err != nil {
		h.logger.Error("list customers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid customer id")
		return
	}
	if err := h.service.DeleteCustomer(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createEnquiry(w http.ResponseWriter, r *http.Request) {
	var payload enquiryPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	budget, err := parseBudget(payload.Budget)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "budget must be a decimal number")
		return
	}

	e := &Enquiry{
		CustomerID:  payload.CustomerID,
		ProjectType: ProjectType(payload.ProjectType),
		Scope:       payload.Scope,
		Location:    payload.Location,
		Budget:      budget,
		Timeframe:   payload.Timeframe,
	}
	if err := h.service.CreateEnquiry(r.Context(), e); err != nil {
		h.logger.Error("create enquiry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *Handler) updateEnquiry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid enquiry id")
		return
	}
	var payload enquiryPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	budget, err := parseBudget(payload.Budget)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "budget must be a decimal number")
		return
	}

	e := &Enquiry{
		ID:          id,
		CustomerID:  payload.CustomerID,
		ProjectType: ProjectType(payload.ProjectType),
		Scope:       payload.Scope,
		Location:    payload.Location,
		Budget:      budget,
		Timeframe:   payload.Timeframe,
	}
	if err := h.service.UpdateEnquiry(r.Context(), e); err != nil {
		h.logger.Error("update enquiry", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) getEnquiry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid enquiry id")
		return
	}
	e, err := h.service.GetEnquiry(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) listEnquiries(w http.ResponseWriter, r *http.Request) {
	status := EnquiryStatus(r.URL.Query().Get("status"))
	enqs, err := h.service.ListEnquiries(r.Context(), status, paginationFrom(r))
	if err != nil {
		h.logger.Error("list enquiries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"enquiries": enqs})
}

func (h *Handler) deleteEnquiry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid enquiry id")
		return
	}
	if err := h.service.DeleteEnquiry(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setEnquiryStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid enquiry id")
		return
	}
	var payload struct {
		Status string `json:"status" validate:"required,oneof=PENDING QUALIFIED REJECTED"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.SetStatus(r.Context(), id, EnquiryStatus(payload.Status)); err != nil {
		h.logger.Error("set enquiry status", slog.Any("error", err), slog.Int64("id", id))
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

func parseBudget(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
