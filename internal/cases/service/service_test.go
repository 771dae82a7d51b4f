package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks CaseStore,AuditLogger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"casestatus/internal/audit"
	"casestatus/internal/cases/metrics"
	"casestatus/internal/cases/models"
	"casestatus/internal/cases/service/mocks"
	id "casestatus/pkg/domain"
	"casestatus/pkg/platform/privacy"
	"casestatus/pkg/platform/sentinel"
)

// ResolverSuite covers the lookup outcomes.
//
// Justification: every non-hit path must produce the same NotFound with the
// query echoed verbatim, while the internal reason stays observable.
type ResolverSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	store    *mocks.MockCaseStore
	auditLog *mocks.MockAuditLogger
	metrics  *metrics.Metrics
	resolver *Resolver
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockCaseStore(s.ctrl)
	s.auditLog = mocks.NewMockAuditLogger(s.ctrl)
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.resolver = New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditLogger(s.auditLog),
		WithMetrics(s.metrics),
	)
}

func (s *ResolverSuite) TearDownTest() {
	s.ctrl.Finish()
}

func janeDoe() *models.CaseRecord {
	return &models.CaseRecord{
		ID:                 id.CaseID(uuid.New()),
		FullName:           "Jane Doe",
		RegistrationNumber: "A123",
		Nationality:        "MX",
		Status:             models.StatusInReview,
		UpdatedAt:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *ResolverSuite) expectAudit(outcome string, reason models.MissReason) {
	s.auditLog.EXPECT().Log(gomock.Any(), gomock.Any()).Do(func(_ context.Context, event audit.Event) {
		s.Equal(string(audit.EventCaseLookup), event.Action)
		s.Equal(outcome, event.Outcome)
		s.Equal(string(reason), event.Reason)
		s.NotContains(event.Subject, "A123")
	})
}

func (s *ResolverSuite) lookups(outcome, reason string) float64 {
	return testutil.ToFloat64(s.metrics.LookupsTotal.WithLabelValues(outcome, reason))
}

func (s *ResolverSuite) TestFound() {
	record := janeDoe()
	query := models.CaseQuery{RegistrationNumber: "A123", Nationality: "MX"}
	s.store.EXPECT().FindByKey(gomock.Any(), "A123", "MX").Return(record, nil)
	s.auditLog.EXPECT().Log(gomock.Any(), gomock.Any()).Do(func(_ context.Context, event audit.Event) {
		s.Equal("found", event.Outcome)
		s.Equal(privacy.HashIdentifier("A123"), event.Subject)
	})

	result := s.resolver.Resolve(context.Background(), query)

	s.Require().True(result.IsFound())
	s.Same(record, result.Record())
	s.Equal("Jane Doe", result.Record().FullName)
	s.Equal(1.0, s.lookups("found", "none"))
}

func (s *ResolverSuite) TestNotFoundEchoesQuery() {
	query := models.CaseQuery{RegistrationNumber: "A999", Nationality: "MX"}
	s.store.EXPECT().FindByKey(gomock.Any(), "A999", "MX").Return(nil, fmt.Errorf("find case: %w", sentinel.ErrNotFound))
	s.expectAudit("not_found", models.MissNoMatch)

	result := s.resolver.Resolve(context.Background(), query)

	s.False(result.IsFound())
	s.Nil(result.Record())
	s.Equal(query, result.Query())
	s.Equal(1.0, s.lookups("not_found", "no_match"))
}

func (s *ResolverSuite) TestQueryIsNotNormalized() {
	query := models.CaseQuery{RegistrationNumber: " a123 ", Nationality: "mx"}
	s.store.EXPECT().FindByKey(gomock.Any(), " a123 ", "mx").Return(nil, sentinel.ErrNotFound)
	s.expectAudit("not_found", models.MissNoMatch)

	result := s.resolver.Resolve(context.Background(), query)

	s.Equal(" a123 ", result.Query().RegistrationNumber)
	s.Equal("mx", result.Query().Nationality)
}

func (s *ResolverSuite) TestCollaboratorFailuresReadAsMiss() {
	tests := []struct {
		name   string
		record *models.CaseRecord
		err    error
		reason models.MissReason
	}{
		{name: "backend error", err: errors.New("connection refused"), reason: models.MissBackendError},
		{name: "context deadline", err: context.DeadlineExceeded, reason: models.MissBackendError},
		{name: "ambiguous key", err: fmt.Errorf("find case: %w", sentinel.ErrInvalidState), reason: models.MissAmbiguous},
		{name: "nil record without error", reason: models.MissMismatch},
		{
			name: "record for a different nationality",
			record: func() *models.CaseRecord {
				r := janeDoe()
				r.Nationality = "GT"
				return r
			}(),
			reason: models.MissMismatch,
		},
	}
	query := models.CaseQuery{RegistrationNumber: "A123", Nationality: "MX"}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			// Exactly one store call: no retries.
			s.store.EXPECT().FindByKey(gomock.Any(), "A123", "MX").Return(tt.record, tt.err).Times(1)
			s.expectAudit("not_found", tt.reason)

			result := s.resolver.Resolve(context.Background(), query)

			s.False(result.IsFound())
			s.Equal(query, result.Query())
			s.Equal(1.0, s.lookups("not_found", tt.reason.Label()))
		})
	}
}

func (s *ResolverSuite) TestRepeatedLookupsAgree() {
	record := janeDoe()
	query := models.CaseQuery{RegistrationNumber: "A123", Nationality: "MX"}
	s.store.EXPECT().FindByKey(gomock.Any(), "A123", "MX").Return(record, nil).Times(2)
	s.auditLog.EXPECT().Log(gomock.Any(), gomock.Any()).Times(2)

	first := s.resolver.Resolve(context.Background(), query)
	second := s.resolver.Resolve(context.Background(), query)

	s.Equal(first.IsFound(), second.IsFound())
	s.Equal(first.Record().ID, second.Record().ID)
	s.Equal(2.0, s.lookups("found", "none"))
}

func (s *ResolverSuite) TestWorksWithoutOptionalCollaborators() {
	resolver := New(s.store)
	s.store.EXPECT().FindByKey(gomock.Any(), "A123", "MX").Return(nil, sentinel.ErrNotFound)

	result := resolver.Resolve(context.Background(), models.CaseQuery{RegistrationNumber: "A123", Nationality: "MX"})

	s.False(result.IsFound())
}
