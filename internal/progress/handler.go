package progress

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/curvacraft/studio-erp/internal/platform/httpx"
	"github.com/curvacraft/studio-erp/internal/shared"
)

// Handler manages progress endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers progress routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/progress", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.plan)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.updatePlan)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/submit", h.submit)
		r.Post("/{id}/review", h.review)
	})
}

type planPayload struct {
	ProjectID   int64  `json:"project_id" validate:"required,gt=0"`
	Kind        string `json:"kind" validate:"required,oneof=DAILY WEEKLY"`
	Date        string `json:"date" validate:"required"`
	AssignedTo  string `json:"assigned_to" validate:"required"`
	PlannedTask string `json:"planned_task" validate:"required"`
}

func (h *Handler) plan(w http.ResponseWriter, r *http.Request) {
	var payload planPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}

	e := &Entry{
		ProjectID:   payload.ProjectID,
		Kind:        Kind(payload.Kind),
		Date:        date,
		AssignedTo:  payload.AssignedTo,
		PlannedTask: payload.PlannedTask,
	}
	if err := h.service.Plan(r.Context(), e); err != nil {
		h.logger.Error("plan progress", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid progress entry id")
		return
	}
	var payload struct {
		ActualProgress string `json:"actual_progress" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	e, err := h.service.Submit(r.Context(), id, payload.ActualProgress)
	if err != nil {
		h.logger.Error("submit progress", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid progress entry id")
		return
	}
	var payload struct {
		AdminRemarks string `json:"admin_remarks"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	e, err := h.service.Review(r.Context(), id, payload.AdminRemarks)
	if err != nil {
		h.logger.Error("review progress", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) updatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid progress entry id")
		return
	}
	var payload struct {
		PlannedTask string `json:"planned_task" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	e, err := h.service.UpdatePlan(r.Context(), id, payload.PlannedTask)
	if err != nil {
		h.logger.Error("update progress plan", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid progress entry id")
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	projectID, _ := strconv.ParseInt(r.URL.Query().Get("project_id"), 10, 64)
	filter := ListFilter{
		ProjectID:  projectID,
		Kind:       Kind(r.URL.Query().Get("kind")),
		Status:     Status(r.URL.Query().Get("status")),
		AssignedTo: r.URL.Query().Get("assigned_to"),
	}
	entries, err := h.service.List(r.Context(), filter, paginationFrom(r))
	if err != nil {
		h.logger.Error("list progress", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"progress": entries})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid progress entry id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
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
