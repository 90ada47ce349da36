package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/gradapply/admission-service/internal/models"
)

type ApplicantRepository interface {
	GetByID(ctx context.Context, id string) (*models.Applicant, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type applicantRepository struct {
	*PostgresRepository
}

func NewApplicantRepository(db *sql.DB, logger zerolog.Logger) ApplicantRepository {
	return &applicantRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *applicantRepository) GetByID(ctx context.Context, id string) (*models.Applicant, error) {
	query := `
		SELECT id, first_name, last_name, father_name, gender, national_id, email, mobile, created_at, updated_at
		FROM applicants
		WHERE id = $1
	`

	applicant := &models.Applicant{}
	err := r.conn(ctx).QueryRowContext(ctx, query, id).Scan(
		&applicant.ID,
		&applicant.FirstName,
		&applicant.LastName,
		&applicant.FatherName,
		&applicant.Gender,
		&applicant.NationalID,
		&applicant.Email,
		&applicant.Mobile,
		&applicant.CreatedAt,
		&applicant.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return applicant, err
}

func (r *applicantRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM applicants WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
