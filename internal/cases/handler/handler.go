package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"casestatus/internal/cases/models"
	"casestatus/pkg/platform/httputil"
	"casestatus/pkg/requestcontext"
	"casestatus/pkg/validation"
)

// Resolver is satisfied by *service.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, query models.CaseQuery) models.LookupResult
}

// Handler serves the public case lookup.
type Handler struct {
	resolver Resolver
	logger   *slog.Logger
}

func New(resolver Resolver, logger *slog.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		logger:   logger,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/cases/lookup", h.HandleLookup)
}

// LookupRequest is the query string of /cases/lookup. Values are passed to
// the resolver exactly as received.
type LookupRequest struct {
	RegistrationNumber string `query:"registration_number" validate:"required,notblank,max=64"`
	Nationality        string `query:"nationality" validate:"required,notblank,max=64"`
}

func (r *LookupRequest) Validate() error {
	return validation.Validate(r)
}

func (r *LookupRequest) Query() models.CaseQuery {
	return models.CaseQuery{
		RegistrationNumber: r.RegistrationNumber,
		Nationality:        r.Nationality,
	}
}

type LookupResponse struct {
	Case *models.CaseRecord `json:"case"`
}

type NotFoundResponse struct {
	Error string           `json:"error"`
	Query models.CaseQuery `json:"query"`
}

// HandleLookup answers 200 with the record or 404 echoing the query.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	values := r.URL.Query()
	req := &LookupRequest{
		RegistrationNumber: values.Get("registration_number"),
		Nationality:        values.Get("nationality"),
	}
	if !httputil.ValidateRequest(ctx, w, h.logger, requestID, req) {
		return
	}

	result := h.resolver.Resolve(ctx, req.Query())
	if !result.IsFound() {
		h.logger.InfoContext(ctx, "case not found",
			"request_id", requestID,
			"nationality", req.Nationality,
		)
		httputil.WriteJSON(w, http.StatusNotFound, NotFoundResponse{
			Error: "not_found",
			Query: result.Query(),
		})
		return
	}

	h.logger.InfoContext(ctx, "case found",
		"request_id", requestID,
		"case_id", result.Record().ID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, LookupResponse{Case: result.Record()})
}
