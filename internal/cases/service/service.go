// Package service resolves public case-status queries.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"casestatus/internal/audit"
	"casestatus/internal/cases/metrics"
	"casestatus/internal/cases/models"
	"casestatus/internal/platform/tracer"
	"casestatus/pkg/platform/privacy"
	"casestatus/pkg/platform/sentinel"
	"casestatus/pkg/requestcontext"
)

// CaseStore is the case-data collaborator.
// Error Contract: sentinel.ErrNotFound for zero matches,
// sentinel.ErrInvalidState for more than one.
type CaseStore interface {
	FindByKey(ctx context.Context, registrationNumber, nationality string) (*models.CaseRecord, error)
}

// AuditLogger is satisfied by *audit.Logger.
type AuditLogger interface {
	Log(ctx context.Context, event audit.Event)
}

// Resolver turns a query into Found or NotFound. It never retries and never
// returns an error: collaborator failures read as a miss.
type Resolver struct {
	store    CaseStore
	logger   *slog.Logger
	auditLog AuditLogger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithAuditLogger(a AuditLogger) Option {
	return func(r *Resolver) {
		r.auditLog = a
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Resolver) {
		r.tracer = t
	}
}

func New(store CaseStore, opts ...Option) *Resolver {
	r := &Resolver{store: store}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.tracer == nil {
		r.tracer = tracer.NewNoop()
	}
	return r
}

// Resolve looks the query up by its compound key. The query is echoed back
// unchanged on NotFound.
func (r *Resolver) Resolve(ctx context.Context, query models.CaseQuery) models.LookupResult {
	start := time.Now()
	registrationHash := privacy.HashIdentifier(query.RegistrationNumber)

	ctx, span := r.tracer.Start(ctx, tracer.SpanCaseResolve,
		tracer.String(tracer.AttrRegistrationHash, registrationHash),
		tracer.String(tracer.AttrNationality, query.Nationality),
	)
	result, reason := r.lookup(ctx, query)

	outcome := outcomeOf(result)
	span.SetAttributes(
		tracer.String(tracer.AttrOutcome, outcome),
		tracer.String(tracer.AttrReason, reason.Label()),
	)
	span.End(nil)

	if r.metrics != nil {
		r.metrics.ObserveLookup(outcome, reason.Label(), time.Since(start).Seconds())
	}
	if r.auditLog != nil {
		r.auditLog.Log(ctx, audit.Event{
			Action:  string(audit.EventCaseLookup),
			Subject: registrationHash,
			Outcome: outcome,
			Reason:  string(reason),
		})
	}
	return result
}

func (r *Resolver) lookup(ctx context.Context, query models.CaseQuery) (models.LookupResult, models.MissReason) {
	storeCtx, storeSpan := r.tracer.Start(ctx, tracer.SpanCaseStore)
	record, err := r.store.FindByKey(storeCtx, query.RegistrationNumber, query.Nationality)
	storeSpan.End(err)

	switch {
	case err == nil && record.Matches(query):
		return models.Found(record), models.MissNone
	case err == nil:
		r.logger.ErrorContext(ctx, "case store returned a record that does not match the query",
			"request_id", requestcontext.RequestID(ctx),
			"nationality", query.Nationality,
		)
		return models.NotFound(query), models.MissMismatch
	case errors.Is(err, sentinel.ErrNotFound):
		return models.NotFound(query), models.MissNoMatch
	case errors.Is(err, sentinel.ErrInvalidState):
		r.logger.ErrorContext(ctx, "case key matches more than one record",
			"request_id", requestcontext.RequestID(ctx),
			"nationality", query.Nationality,
		)
		return models.NotFound(query), models.MissAmbiguous
	default:
		r.logger.ErrorContext(ctx, "case lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return models.NotFound(query), models.MissBackendError
	}
}

func outcomeOf(result models.LookupResult) string {
	if result.IsFound() {
		return "found"
	}
	return "not_found"
}
