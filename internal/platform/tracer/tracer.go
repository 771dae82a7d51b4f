// Package tracer is a small tracing abstraction so that services can emit
// spans without importing OpenTelemetry throughout the codebase.
//
// NoopTracer is used in tests; OTelTracer adapts the global OpenTelemetry
// provider in production.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span and marks it failed when err is non-nil.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start opens a span and returns a context carrying it.
	//
	//   ctx, span := t.Start(ctx, tracer.SpanCaseResolve,
	//       tracer.String(tracer.AttrRegistrationHash, hash),
	//   )
	//   defer span.End(nil)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanCaseResolve  = "cases.resolve"
	SpanCaseStore    = "cases.store.find"
	SpanAdminGate    = "admin.gate.check"
	SpanAdminLookup  = "admin.registry.find"
	SpanSessionCheck = "identity.session.current"
)

// Attribute keys. Raw registration numbers never go into spans.
const (
	AttrRegistrationHash = "case.registration_hash"
	AttrNationality      = "case.nationality"
	AttrOutcome          = "outcome"
	AttrReason           = "reason"
	AttrCacheHit         = "cache.hit"
)
