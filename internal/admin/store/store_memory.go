package store

import (
	"context"
	"fmt"
	"sync"

	"casestatus/internal/admin/models"
	id "casestatus/pkg/domain"
	"casestatus/pkg/platform/sentinel"
)

// InMemoryStore keeps registry rows per user. A user with more than one row
// is ambiguous and FindByID refuses to pick one.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[id.UserID][]models.AdminRecord
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{rows: make(map[id.UserID][]models.AdminRecord)}
}

// Save inserts the record or replaces the existing row with the same user and role.
func (s *InMemoryStore) Save(_ context.Context, admin *models.AdminRecord) error {
	if admin == nil {
		return fmt.Errorf("admin record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows[admin.ID]
	for i := range rows {
		if rows[i].Role == admin.Role {
			rows[i] = *admin
			return nil
		}
	}
	s.rows[admin.ID] = append(rows, *admin)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.AdminRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.rows[userID]
	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("admin not found: %w", sentinel.ErrNotFound)
	case 1:
		record := rows[0]
		return &record, nil
	default:
		return nil, fmt.Errorf("admin %s has %d registry rows: %w", userID, len(rows), sentinel.ErrInvalidState)
	}
}
