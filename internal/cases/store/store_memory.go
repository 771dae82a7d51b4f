package store

import (
	"context"
	"fmt"
	"sync"

	"casestatus/internal/cases/models"
	id "casestatus/pkg/domain"
	"casestatus/pkg/platform/sentinel"
)

// InMemoryStore holds case records for tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.CaseID]models.CaseRecord
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.CaseID]models.CaseRecord)}
}

// Save inserts or replaces a record by ID.
func (s *InMemoryStore) Save(_ context.Context, record *models.CaseRecord) error {
	if record == nil {
		return fmt.Errorf("case record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = *record
	return nil
}

// FindByKey requires both fields to match the same record.
func (s *InMemoryStore) FindByKey(_ context.Context, registrationNumber, nationality string) (*models.CaseRecord, error) {
	query := models.CaseQuery{RegistrationNumber: registrationNumber, Nationality: nationality}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var match *models.CaseRecord
	for _, record := range s.records {
		if !record.Matches(query) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("case key matches several records: %w", sentinel.ErrInvalidState)
		}
		r := record
		match = &r
	}
	if match == nil {
		return nil, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
	}
	return match, nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, record := range s.records {
		counts[string(record.Status)]++
	}
	return counts, nil
}
