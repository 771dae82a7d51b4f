package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"casestatus/internal/cases/models"
	id "casestatus/pkg/domain"
	"casestatus/pkg/platform/sentinel"
)

// InMemoryStoreSuite pins compound-key matching.
//
// Justification: a record matching only one of the two key fields must be a
// miss; this is the core property of the lookup.
type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func newRecord(name, reg, nat string, status models.Status) *models.CaseRecord {
	now := time.Now()
	return &models.CaseRecord{
		ID:                 id.CaseID(uuid.New()),
		FullName:           name,
		RegistrationNumber: reg,
		Nationality:        nat,
		Status:             status,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, newRecord("Jane Doe", "A123", "MX", models.StatusInReview)))
	s.Require().NoError(s.store.Save(ctx, newRecord("John Roe", "B456", "GT", models.StatusApproved)))
}

func (s *InMemoryStoreSuite) TestFindByKey() {
	ctx := context.Background()

	record, err := s.store.FindByKey(ctx, "A123", "MX")
	s.Require().NoError(err)
	s.Equal("Jane Doe", record.FullName)

	for _, q := range []models.CaseQuery{
		{RegistrationNumber: "A123", Nationality: "GT"},
		{RegistrationNumber: "B456", Nationality: "MX"},
		{RegistrationNumber: "A999", Nationality: "MX"},
		{RegistrationNumber: "a123", Nationality: "mx"},
		{RegistrationNumber: "", Nationality: ""},
	} {
		_, err := s.store.FindByKey(ctx, q.RegistrationNumber, q.Nationality)
		s.ErrorIs(err, sentinel.ErrNotFound, "query %+v", q)
	}
}

func (s *InMemoryStoreSuite) TestDuplicateKeyIsInvalidState() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, newRecord("Jane Duplicate", "A123", "MX", models.StatusReceived)))

	_, err := s.store.FindByKey(ctx, "A123", "MX")
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *InMemoryStoreSuite) TestReturnedRecordIsACopy() {
	ctx := context.Background()
	record, err := s.store.FindByKey(ctx, "A123", "MX")
	s.Require().NoError(err)
	record.FullName = "mutated"

	again, err := s.store.FindByKey(ctx, "A123", "MX")
	s.Require().NoError(err)
	s.Equal("Jane Doe", again.FullName)
}

func (s *InMemoryStoreSuite) TestCountByStatus() {
	counts, err := s.store.CountByStatus(context.Background())
	s.Require().NoError(err)
	s.Equal(map[string]int{"in_review": 1, "approved": 1}, counts)
}
