package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"casestatus/internal/admin/models"
	id "casestatus/pkg/domain"
	"casestatus/pkg/platform/sentinel"
)

// PostgresStore reads the administrator registry from the admins table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, admin *models.AdminRecord) error {
	if admin == nil {
		return fmt.Errorf("admin record is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (id, user_id, email, display_name, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, role) DO UPDATE
		SET email = EXCLUDED.email, display_name = EXCLUDED.display_name
	`,
		uuid.New(),
		uuid.UUID(admin.ID),
		admin.Email,
		admin.DisplayName,
		string(admin.Role),
		admin.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save admin: %w", err)
	}
	return nil
}

// FindByID fetches at most two rows: one is a match, two is ambiguous.
func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.AdminRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, email, display_name, role, created_at
		FROM admins
		WHERE user_id = $1
		LIMIT 2
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	defer rows.Close()

	var found []models.AdminRecord
	for rows.Next() {
		var (
			rowUserID uuid.UUID
			record    models.AdminRecord
			role      string
		)
		if err := rows.Scan(&rowUserID, &record.Email, &record.DisplayName, &role, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		record.ID = id.UserID(rowUserID)
		record.Role = models.Role(role)
		found = append(found, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("admin not found: %w", sentinel.ErrNotFound)
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("admin %s is ambiguous: %w", userID, sentinel.ErrInvalidState)
	}
}
