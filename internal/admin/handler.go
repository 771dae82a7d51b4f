package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"casestatus/internal/admin/models"
	"casestatus/internal/audit"
	dErrors "casestatus/pkg/domain-errors"
	"casestatus/pkg/platform/httputil"
	"casestatus/pkg/requestcontext"
	"casestatus/pkg/validation"
)

const defaultAuditLimit = 50

// DashboardService is satisfied by *Service.
type DashboardService interface {
	GetStats(ctx context.Context) (*Stats, error)
	GetRecentAuditEvents(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handler serves the admin dashboard. Routes must be mounted behind RequireAdmin.
type Handler struct {
	service DashboardService
	logger  *slog.Logger
}

func New(service DashboardService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/dashboard", h.HandleDashboard)
	r.Get("/admin/audit/recent", h.HandleGetRecentAuditEvents)
}

type DashboardResponse struct {
	Admin *models.AdminRecord `json:"admin"`
	Stats *Stats              `json:"stats"`
}

// HandleDashboard returns the signed-in administrator and registry statistics.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	admin, ok := AdminFromContext(ctx)
	if !ok {
		// Mounted without RequireAdmin.
		h.logger.ErrorContext(ctx, "dashboard reached without admin grant", "request_id", requestID)
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "forbidden"))
		return
	}

	stats, err := h.service.GetStats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get dashboard stats",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "admin dashboard retrieved",
		"request_id", requestID,
		"user_id", admin.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, DashboardResponse{Admin: admin, Stats: stats})
}

// AuditQuery is the query string of /admin/audit/recent.
type AuditQuery struct {
	Limit int `query:"limit" validate:"min=1,max=200"`
}

func (q *AuditQuery) Validate() error {
	return validation.Validate(q)
}

type AuditEventsResponse struct {
	Events []audit.Event `json:"events"`
	Total  int           `json:"total"`
}

// HandleGetRecentAuditEvents returns recent audit events, newest first.
func (h *Handler) HandleGetRecentAuditEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	query := &AuditQuery{Limit: defaultAuditLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeValidation, "limit must be a number, got %q", raw))
			return
		}
		query.Limit = limit
	}
	if !httputil.ValidateRequest(ctx, w, h.logger, requestID, query) {
		return
	}

	events, err := h.service.GetRecentAuditEvents(ctx, query.Limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get recent audit events",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	h.logger.InfoContext(ctx, "admin audit events retrieved",
		"request_id", requestID,
		"count", len(events),
	)
	httputil.WriteJSON(w, http.StatusOK, AuditEventsResponse{Events: events, Total: len(events)})
}
