package adapters

import (
	"context"

	"casestatus/internal/admin/types"
	identity "casestatus/internal/identity/models"
)

// IdentityService is the part of the identity service the admin module uses.
type IdentityService interface {
	CurrentSession(ctx context.Context) (*identity.Session, error)
	CountActive(ctx context.Context) (int, error)
}

// IdentityAdapter adapts the identity service to the gate's SessionProvider
// and the dashboard's SessionCounter.
type IdentityAdapter struct {
	identity IdentityService
}

func NewIdentityAdapter(svc IdentityService) *IdentityAdapter {
	return &IdentityAdapter{identity: svc}
}

func (a *IdentityAdapter) CurrentSession(ctx context.Context) (*types.Session, error) {
	s, err := a.identity.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	return &types.Session{
		ID:        s.ID,
		UserID:    s.UserID,
		Device:    s.DeviceDisplayName,
		ExpiresAt: s.ExpiresAt,
	}, nil
}

func (a *IdentityAdapter) ActiveSessions(ctx context.Context) (int, error) {
	return a.identity.CountActive(ctx)
}
