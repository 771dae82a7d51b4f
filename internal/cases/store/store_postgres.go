package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"casestatus/internal/cases/models"
	id "casestatus/pkg/domain"
	"casestatus/pkg/platform/sentinel"
)

// PostgresStore reads case records from the cases table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, record *models.CaseRecord) error {
	if record == nil {
		return fmt.Errorf("case record is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cases (
			id, full_name, registration_number, nationality,
			status, status_detail, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			registration_number = EXCLUDED.registration_number,
			nationality = EXCLUDED.nationality,
			status = EXCLUDED.status,
			status_detail = EXCLUDED.status_detail,
			updated_at = EXCLUDED.updated_at
	`,
		uuid.UUID(record.ID),
		record.FullName,
		record.RegistrationNumber,
		record.Nationality,
		string(record.Status),
		record.StatusDetail,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save case: %w", err)
	}
	return nil
}

// FindByKey matches both columns exactly. Two rows for one key is a data
// error and is reported as ErrInvalidState.
func (s *PostgresStore) FindByKey(ctx context.Context, registrationNumber, nationality string) (*models.CaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, full_name, registration_number, nationality,
		       status, status_detail, created_at, updated_at
		FROM cases
		WHERE registration_number = $1 AND nationality = $2
		LIMIT 2
	`, registrationNumber, nationality)
	if err != nil {
		return nil, fmt.Errorf("find case by key: %w", err)
	}
	defer rows.Close()

	var found []models.CaseRecord
	for rows.Next() {
		var (
			caseID uuid.UUID
			record models.CaseRecord
			status string
		)
		if err := rows.Scan(
			&caseID,
			&record.FullName,
			&record.RegistrationNumber,
			&record.Nationality,
			&status,
			&record.StatusDetail,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		record.ID = id.CaseID(caseID)
		record.Status = models.Status(status)
		found = append(found, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("case key matches several records: %w", sentinel.ErrInvalidState)
	}
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM cases GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count cases by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan case count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case counts: %w", err)
	}
	return counts, nil
}
