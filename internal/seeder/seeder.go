package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	adminModels "casestatus/internal/admin/models"
	caseModels "casestatus/internal/cases/models"
	"casestatus/internal/identity/device"
	identityModels "casestatus/internal/identity/models"
	id "casestatus/pkg/domain"
)

// Fixed identities so cmd/tokengen can mint tokens for the seeded sessions.
var (
	DemoAdminUserID      = id.UserID(uuid.MustParse("5f0c8a52-3b7e-4b8e-9f21-6a1d2c3e4f50"))
	DemoAdminSessionID   = id.SessionID(uuid.MustParse("0b6f1f8e-7a3c-4d2e-8c5b-1e9a7d6c5b41"))
	DemoVisitorUserID    = id.UserID(uuid.MustParse("9e3d2c1b-0a9f-4e8d-b7c6-5a4b3c2d1e0f"))
	DemoVisitorSessionID = id.SessionID(uuid.MustParse("3c4d5e6f-7a8b-4c9d-8e0f-1a2b3c4d5e6f"))
)

// DemoSessionTTL keeps seeded sessions usable for a working day.
const DemoSessionTTL = 24 * time.Hour

// AdminStore defines methods for seeding administrators
type AdminStore interface {
	Save(ctx context.Context, admin *adminModels.AdminRecord) error
}

// CaseStore defines methods for seeding case records
type CaseStore interface {
	Save(ctx context.Context, record *caseModels.CaseRecord) error
}

// SessionStore defines methods for seeding sessions
type SessionStore interface {
	Create(ctx context.Context, session *identityModels.Session) error
}

// Seeder populates stores with demo data
type Seeder struct {
	admins   AdminStore
	cases    CaseStore
	sessions SessionStore
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a new seeder
func New(admins AdminStore, cases CaseStore, sessions SessionStore, logger *slog.Logger) *Seeder {
	return &Seeder{
		admins:   admins,
		cases:    cases,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// SeedAll populates all stores with demo data
func (s *Seeder) SeedAll(ctx context.Context) error {
	s.logger.InfoContext(ctx, "seeding demo data")

	if err := s.seedAdmins(ctx); err != nil {
		return fmt.Errorf("failed to seed admins: %w", err)
	}
	if err := s.seedSessions(ctx); err != nil {
		return fmt.Errorf("failed to seed sessions: %w", err)
	}
	count, err := s.seedCases(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed cases: %w", err)
	}

	s.logger.InfoContext(ctx, "demo data seeded",
		"admin_user_id", DemoAdminUserID.String(),
		"visitor_user_id", DemoVisitorUserID.String(),
		"cases", count,
	)
	return nil
}

func (s *Seeder) seedAdmins(ctx context.Context) error {
	return s.admins.Save(ctx, &adminModels.AdminRecord{
		ID:          DemoAdminUserID,
		Email:       "admin@casestatus.local",
		DisplayName: "Demo Administrator",
		Role:        adminModels.RoleAdmin,
		CreatedAt:   s.now(),
	})
}

func (s *Seeder) seedSessions(ctx context.Context) error {
	now := s.now()
	sessions := []struct {
		id        id.SessionID
		userID    id.UserID
		userAgent string
	}{
		{DemoAdminSessionID, DemoAdminUserID, "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"},
		{DemoVisitorSessionID, DemoVisitorUserID, "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"},
	}

	for _, sess := range sessions {
		session := &identityModels.Session{
			ID:                sess.id,
			UserID:            sess.userID,
			Status:            identityModels.SessionStatusActive,
			DeviceDisplayName: device.ParseUserAgent(sess.userAgent),
			CreatedAt:         now,
			ExpiresAt:         now.Add(DemoSessionTTL),
		}
		if err := s.sessions.Create(ctx, session); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedCases(ctx context.Context) (int, error) {
	now := s.now()

	demoCases := []struct {
		fullName           string
		registrationNumber string
		nationality        string
		status             caseModels.Status
		detail             string
		updatedOffset      time.Duration
	}{
		{"Jane Doe", "A123", "MX", caseModels.StatusInReview, "Documents under review", -48 * time.Hour},
		{"Carlos Mendoza", "A124", "MX", caseModels.StatusApproved, "Residence permit issued", -72 * time.Hour},
		{"Ana Lucía Pérez", "B200", "GT", caseModels.StatusReceived, "", -2 * time.Hour},
		{"José Ramírez", "B201", "SV", caseModels.StatusRejected, "Incomplete application", -240 * time.Hour},
		{"María Hernández", "C310", "HN", caseModels.StatusInReview, "Interview scheduled", -24 * time.Hour},
		{"Luis Fernández", "C311", "CO", caseModels.StatusWithdrawn, "Withdrawn by applicant", -480 * time.Hour},
		{"Sofía Castillo", "A123", "GT", caseModels.StatusApproved, "Work permit issued", -96 * time.Hour},
	}

	for _, c := range demoCases {
		record := &caseModels.CaseRecord{
			ID:                 id.CaseID(uuid.New()),
			FullName:           c.fullName,
			RegistrationNumber: c.registrationNumber,
			Nationality:        c.nationality,
			Status:             c.status,
			StatusDetail:       c.detail,
			CreatedAt:          now.Add(c.updatedOffset - 24*time.Hour),
			UpdatedAt:          now.Add(c.updatedOffset),
		}
		if err := s.cases.Save(ctx, record); err != nil {
			return 0, err
		}
	}
	return len(demoCases), nil
}
