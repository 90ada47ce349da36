package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/gradapply/admission-service/internal/models"
)

type AdminRepository interface {
	PermissionByUserID(ctx context.Context, userID string) (*models.AdminPermission, error)
}

type adminRepository struct {
	*PostgresRepository
}

func NewAdminRepository(db *sql.DB, logger zerolog.Logger) AdminRepository {
	return &adminRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *adminRepository) PermissionByUserID(ctx context.Context, userID string) (*models.AdminPermission, error) {
	query := `
		SELECT user_id, role, faculty_id, has_full_access
		FROM admin_permissions
		WHERE user_id = $1
	`

	permission := &models.AdminPermission{}
	err := r.conn(ctx).QueryRowContext(ctx, query, userID).Scan(
		&permission.UserID,
		&permission.Role,
		&permission.FacultyID,
		&permission.HasFullAccess,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return permission, err
}
