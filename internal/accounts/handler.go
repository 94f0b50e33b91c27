package accounts

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/curvacraft/studio-erp/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Handler manages payment, credit note and dashboard endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers accounts routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices/{invoiceID}", func(r chi.Router) {
		r.Get("/payments", h.listPayments)
		r.Post("/payments", h.recordPayment)
		r.Get("/credit-notes", h.listCreditNotes)
		r.Post("/credit-notes", h.issueCreditNote)
	})
	r.Delete("/payments/{id}", h.deletePayment)
	r.Get("/accounts/dashboard", h.dashboard)
}

type paymentPayload struct {
	Amount   string `json:"amount" validate:"required"`
	DatePaid string `json:"date_paid"`
	Method   string `json:"payment_method"`
	Notes    string `json:"notes"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "invoiceID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid invoice id")
		return
	}
	var payload paymentPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amount must be a decimal number")
		return
	}

	p := &Payment{InvoiceID: invoiceID, Amount: amount, Method: payload.Method, Notes: payload.Notes}
	if payload.DatePaid != "" {
		d, err := time.Parse(dateLayout, payload.DatePaid)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date_paid must be YYYY-MM-DD")
			return
		}
		p.DatePaid = d
	}
	if err := h.service.RecordPayment(r.Context(), p); err != nil {
		h.logger.Error("record payment", slog.Any("error", err), slog.Int64("invoice_id", invoiceID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

type creditNotePayload struct {
	Amount     string `json:"amount" validate:"required"`
	DateIssued string `json:"date_issued"`
	Reason     string `json:"reason" validate:"required"`
}

func (h *Handler) issueCreditNote(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "invoiceID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid invoice id")
		return
	}
	var payload creditNotePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amount must be a decimal number")
		return
	}

	cn := &CreditNote{InvoiceID: invoiceID, Amount: amount, Reason: payload.Reason}
	if payload.DateIssued != "" {
		d, err := time.Parse(dateLayout, payload.DateIssued)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date_issued must be YYYY-MM-DD")
			return
		}
		cn.DateIssued = d
	}
	if err := h.service.IssueCreditNote(r.Context(), cn); err != nil {
		h.logger.Error("issue credit note", slog.Any("error", err), slog.Int64("invoice_id", invoiceID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, cn)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "invoiceID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid invoice id")
		return
	}
	payments, err := h.service.ListPayments(r.Context(), invoiceID)
	if err != nil {
		h.logger.Error("list payments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (h *Handler) listCreditNotes(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "invoiceID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid invoice id")
		return
	}
	notes, err := h.service.ListCreditNotes(r.Context(), invoiceID)
	if err != nil {
		h.logger.Error("list credit notes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"credit_notes": notes})
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid payment id")
		return
	}
	if err := h.service.DeletePayment(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("accounts dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}
