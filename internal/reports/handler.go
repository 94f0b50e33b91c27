package reports

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

// Handler manages daily report endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers daily report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/daily-reports", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type logPayload struct {
	Label      string `json:"label" validate:"required"`
	DayCount   int    `json:"day_count" validate:"gte=0"`
	NightCount int    `json:"night_count" validate:"gte=0"`
}

type reportPayload struct {
	ProjectID            int64        `json:"project_id" validate:"required,gt=0"`
	Date                 string       `json:"date"`
	ContractorName       string       `json:"contractor_name"`
	SubcontractorName    string       `json:"subcontractor_name"`
	ChronologicalAccount string       `json:"chronological_account"`
	ActivitiesForNextDay string       `json:"activities_for_next_day"`
	IssuesEncountered    string       `json:"issues_encountered"`
	ManpowerLogs         []logPayload `json:"manpower_logs" validate:"dive"`
	SubcontractorLogs    []logPayload `json:"subcontractor_logs" validate:"dive"`
	EquipmentLogs        []logPayload `json:"equipment_logs" validate:"dive"`
}

func decodeLogs(payloads []logPayload) []Log {
	logs := make([]Log, 0, len(payloads))
	for _, p := range payloads {
		logs = append(logs, Log{Label: p.Label, DayCount: p.DayCount, NightCount: p.NightCount})
	}
	return logs
}

func (p reportPayload) toReport() (*DailyReport, error) {
	rep := &DailyReport{
		ProjectID:            p.ProjectID,
		ContractorName:       p.ContractorName,
		SubcontractorName:    p.SubcontractorName,
		ChronologicalAccount: p.ChronologicalAccount,
		ActivitiesForNextDay: p.ActivitiesForNextDay,
		IssuesEncountered:    p.IssuesEncountered,
		ManpowerLogs:         decodeLogs(p.ManpowerLogs),
		SubcontractorLogs:    decodeLogs(p.SubcontractorLogs),
		EquipmentLogs:        decodeLogs(p.EquipmentLogs),
	}
	if p.Date != "" {
		date, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			return nil, err
		}
		rep.Date = date
	}
	return rep, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload reportPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rep, err := payload.toReport()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	if err := h.service.Create(r.Context(), rep); err != nil {
		h.logger.Error("create daily report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rep)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid daily report id")
		return
	}
	var payload reportPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	rep, err := payload.toReport()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	rep.ID = id
	if err := h.service.Update(r.Context(), rep); err != nil {
		h.logger.Error("update daily report", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid daily report id")
		return
	}
	rep, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	projectID, _ := strconv.ParseInt(r.URL.Query().Get("project_id"), 10, 64)
	reps, err := h.service.List(r.Context(), ListFilter{ProjectID: projectID}, paginationFrom(r))
	if err != nil {
		h.logger.Error("list daily reports", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"daily_reports": reps})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid daily report id")
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
