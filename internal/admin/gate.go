package admin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"casestatus/internal/admin/metrics"
	"casestatus/internal/admin/models"
	"casestatus/internal/admin/types"
	"casestatus/internal/audit"
	"casestatus/internal/platform/tracer"
	id "casestatus/pkg/domain"
	dErrors "casestatus/pkg/domain-errors"
	"casestatus/pkg/platform/sentinel"
	"casestatus/pkg/requestcontext"
)

// SessionProvider resolves the caller's session. Any error means the caller
// is not authenticated.
type SessionProvider interface {
	CurrentSession(ctx context.Context) (*types.Session, error)
}

// AdminStore is the administrator registry.
// Error Contract: sentinel.ErrNotFound when no record exists,
// sentinel.ErrInvalidState when more than one record matches.
type AdminStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.AdminRecord, error)
}

// AuditLogger is satisfied by *audit.Logger.
type AuditLogger interface {
	Log(ctx context.Context, event audit.Event)
}

// Gate decides whether the current request may see the admin dashboard.
// It holds no per-request state.
type Gate struct {
	sessions SessionProvider
	admins   AdminStore
	logger   *slog.Logger
	auditLog AuditLogger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
}

type GateOption func(*Gate)

func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

func WithGateAudit(a AuditLogger) GateOption {
	return func(g *Gate) {
		g.auditLog = a
	}
}

func WithGateMetrics(m *metrics.Metrics) GateOption {
	return func(g *Gate) {
		g.metrics = m
	}
}

func WithGateTracer(t tracer.Tracer) GateOption {
	return func(g *Gate) {
		g.tracer = t
	}
}

func NewGate(sessions SessionProvider, admins AdminStore, opts ...GateOption) *Gate {
	g := &Gate{sessions: sessions, admins: admins}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.tracer == nil {
		g.tracer = tracer.NewNoop()
	}
	return g
}

// CheckAccess validates the session first and consults the registry only for
// an authenticated identity. Every failure collapses into Denied.
func (g *Gate) CheckAccess(ctx context.Context) models.Decision {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, tracer.SpanAdminGate)

	decision, session := g.decide(ctx)

	span.SetAttributes(
		tracer.String(tracer.AttrOutcome, string(decision.Outcome)),
		tracer.String(tracer.AttrReason, decision.ReasonLabel()),
	)
	span.End(nil)

	if g.metrics != nil {
		g.metrics.ObserveDecision(string(decision.Outcome), decision.ReasonLabel(), time.Since(start).Seconds())
	}
	g.audit(ctx, decision, session)
	return decision
}

func (g *Gate) decide(ctx context.Context) (models.Decision, *types.Session) {
	sessionCtx, sessionSpan := g.tracer.Start(ctx, tracer.SpanSessionCheck)
	session, err := g.sessions.CurrentSession(sessionCtx)
	sessionSpan.End(err)
	if err != nil || session == nil {
		level := slog.LevelInfo
		if err != nil && dErrors.IsUnavailable(err) {
			level = slog.LevelError
		}
		g.logger.Log(ctx, level, "admin access denied",
			"reason", models.ReasonUnauthenticated,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return models.Denied(models.ReasonUnauthenticated), nil
	}

	lookupCtx, lookupSpan := g.tracer.Start(ctx, tracer.SpanAdminLookup)
	admin, err := g.admins.FindByID(lookupCtx, session.UserID)
	lookupSpan.End(err)

	switch {
	case err == nil && admin != nil && admin.ID == session.UserID:
		return models.Granted(admin), session
	case err == nil:
		g.logger.ErrorContext(ctx, "admin registry returned a mismatched record",
			"user_id", session.UserID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return models.Denied(models.ReasonRegistryError), session
	case errors.Is(err, sentinel.ErrNotFound):
		g.logger.InfoContext(ctx, "admin access denied",
			"reason", models.ReasonNotAdmin,
			"user_id", session.UserID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return models.Denied(models.ReasonNotAdmin), session
	default:
		// Ambiguous registry rows and backend failures look the same to the caller.
		g.logger.ErrorContext(ctx, "admin registry lookup failed",
			"user_id", session.UserID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return models.Denied(models.ReasonRegistryError), session
	}
}

func (g *Gate) audit(ctx context.Context, decision models.Decision, session *types.Session) {
	if g.auditLog == nil {
		return
	}
	event := audit.Event{
		Action:  string(audit.EventAdminAccessDenied),
		Outcome: string(decision.Outcome),
		Reason:  string(decision.Reason),
	}
	if decision.IsGranted() {
		event.Action = string(audit.EventAdminAccessGranted)
	}
	if session != nil {
		event.UserID = session.UserID
		event.Subject = session.UserID.String()
		event.Device = session.Device
	}
	g.auditLog.Log(ctx, event)
}
