package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"casestatus/internal/admin"
	casehandler "casestatus/internal/cases/handler"
	identityhandler "casestatus/internal/identity/handler"
	"casestatus/internal/platform/health"
	"casestatus/pkg/platform/middleware/metadata"
	"casestatus/pkg/platform/middleware/request"
	"casestatus/pkg/platform/middleware/requesttime"
	"casestatus/pkg/platform/middleware/session"
)

// Config carries the transport settings resolved from platform config.
type Config struct {
	RequestTimeout time.Duration
	TrustedProxies []string
	CookieName     string
	LoginURL       string

	// DevRoutes mounts the development login stand-in.
	DevRoutes bool
}

// Routes are the handlers the router mounts. Nil handlers are skipped.
type Routes struct {
	Health   *health.Handler
	Metrics  http.Handler
	Latency  *request.Metrics
	Cases    *casehandler.Handler
	Gate     admin.AccessChecker
	Admin    *admin.Handler
	Sessions *identityhandler.Handler

	// LookupLimit wraps the case lookup routes only.
	LookupLimit func(http.Handler) http.Handler
}

// NewRouter wires all public endpoints with middleware.
// Admin routes are mounted in a group behind RequireAdmin; everything else is public.
func NewRouter(cfg Config, routes Routes, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	meta := metadata.NewMiddleware(&metadata.Config{
		TrustedProxies: metadata.ParseTrustedProxies(cfg.TrustedProxies),
	})

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(meta.Handler)
	r.Use(request.Logger(logger))
	r.Use(request.LatencyMiddleware(routes.Latency))
	if cfg.RequestTimeout > 0 {
		r.Use(request.Timeout(cfg.RequestTimeout))
	}
	r.Use(session.Extract(session.Config{CookieName: cfg.CookieName}))

	if routes.Health != nil {
		routes.Health.Register(r)
	}
	if routes.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", routes.Metrics)
	}
	if routes.Cases != nil {
		r.Group(func(r chi.Router) {
			if routes.LookupLimit != nil {
				r.Use(routes.LookupLimit)
			}
			routes.Cases.Register(r)
		})
	}
	if cfg.DevRoutes && routes.Sessions != nil {
		routes.Sessions.RegisterDev(r)
	}

	if routes.Gate != nil {
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdmin(routes.Gate, cfg.LoginURL))
			if routes.Admin != nil {
				routes.Admin.Register(r)
			}
			if routes.Sessions != nil {
				routes.Sessions.RegisterAdmin(r)
			}
		})
	}

	return r
}
