package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "casestatus/pkg/domain-errors"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// DecodeJSON decodes a JSON request body into the target type.
// On failure, writes an error response and returns nil, false.
//
// Usage:
//
//	req, ok := httputil.DecodeJSON[CreateSessionRequest](w, r, h.logger, ctx, requestID)
//	if !ok {
//	    return
//	}
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	return &req, true
}

// Sanitizable is implemented by request types that clean their own input.
type Sanitizable interface {
	Sanitize()
}

// DecodeAndValidate decodes the body, then calls Sanitize() if implemented
// and Validate() if implemented.
func DecodeAndValidate[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger, ctx, requestID)
	if !ok {
		return nil, false
	}
	if s, ok := any(req).(Sanitizable); ok {
		s.Sanitize()
	}
	if v, ok := any(req).(Validatable); ok {
		if !ValidateRequest(ctx, w, logger, requestID, v) {
			return nil, false
		}
	}
	return req, true
}
