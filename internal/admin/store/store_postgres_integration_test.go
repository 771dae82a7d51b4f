//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"casestatus/internal/admin/models"
	"casestatus/internal/admin/store"
	id "casestatus/pkg/domain"
	"casestatus/pkg/platform/sentinel"
	"casestatus/pkg/testutil/containers"
)

type PostgresAdminStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresAdminStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAdminStoreSuite))
}

func (s *PostgresAdminStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresAdminStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "admins"))
}

func (s *PostgresAdminStoreSuite) TestExactlyOne() {
	ctx := context.Background()
	userID := id.UserID(uuid.New())

	_, err := s.store.FindByID(ctx, userID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	admin := &models.AdminRecord{ID: userID, Email: "a@example.org", DisplayName: "A", Role: models.RoleAdmin, CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.store.Save(ctx, admin))
	s.Require().NoError(s.store.Save(ctx, admin), "saving twice upserts")

	found, err := s.store.FindByID(ctx, userID)
	s.Require().NoError(err)
	s.Equal(userID, found.ID)
	s.Equal(models.RoleAdmin, found.Role)

	auditor := *admin
	auditor.Role = models.Role("auditor")
	s.Require().NoError(s.store.Save(ctx, &auditor))

	_, err = s.store.FindByID(ctx, userID)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}
