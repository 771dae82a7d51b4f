package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"casestatus/internal/ratelimit/metrics"
	"casestatus/internal/ratelimit/models"
	"casestatus/pkg/platform/httputil"
	"casestatus/pkg/platform/privacy"
	"casestatus/pkg/requestcontext"
)

// Limiter decides whether one more request for key fits in limit per window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

type Middleware struct {
	limiter Limiter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(limiter Limiter, m *metrics.Metrics, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{
		limiter: limiter,
		metrics: m,
		logger:  logger,
	}
}

// PerClientIP limits requests per client IP under scope. A limit of zero
// or less returns a pass-through middleware.
func (m *Middleware) PerClientIP(scope string, limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)

			result, err := m.limiter.Allow(ctx, scope+":"+ip, limit, window)
			if err != nil {
				// Fail open: an unavailable limiter must not take lookups down.
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"scope", scope,
					"ip_prefix", privacy.AnonymizeIP(ip),
				)
				if m.metrics != nil {
					m.metrics.RecordError()
				}
				next.ServeHTTP(w, r)
				return
			}
			if m.metrics != nil {
				m.metrics.RecordDecision(scope, result.Allowed)
			}

			addRateLimitHeaders(w, result)

			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"scope", scope,
					"ip_prefix", privacy.AnonymizeIP(ip),
				)
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
