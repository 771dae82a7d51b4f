//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"casestatus/internal/audit"
	"casestatus/internal/audit/store/postgres"
	id "casestatus/pkg/domain"
	"casestatus/pkg/testutil/containers"
)

type PostgresAuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditStoreSuite))
}

func (s *PostgresAuditStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresAuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func (s *PostgresAuditStoreSuite) TestAppendAndListRecent() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)
	userID := id.UserID(uuid.New())

	for i, action := range []audit.AuditEvent{audit.EventAdminAccessDenied, audit.EventAdminAccessGranted, audit.EventCaseLookup} {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			ID:        uuid.New(),
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Action:    string(action),
			UserID:    userID,
			Outcome:   "ok",
		}))
	}

	events, err := s.store.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventCaseLookup), events[0].Action)
	s.Equal(string(audit.EventAdminAccessGranted), events[1].Action)
	s.Equal(userID, events[1].UserID)
}

func (s *PostgresAuditStoreSuite) TestAppendIsIdempotentByID() {
	ctx := context.Background()
	event := audit.Event{ID: uuid.New(), Timestamp: time.Now(), Action: string(audit.EventCaseLookup), Outcome: "not_found"}

	s.Require().NoError(s.store.Append(ctx, event))
	s.Require().NoError(s.store.Append(ctx, event))

	events, err := s.store.ListRecent(ctx, 10)
	s.Require().NoError(err)
	s.Len(events, 1)
	s.True(events[0].UserID.IsNil())
}
