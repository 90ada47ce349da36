package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/gradapply/admission-service/internal/models"
)

type ProgramRepository interface {
	GetByID(ctx context.Context, id string) (*models.Program, error)
	GetActiveByRound(ctx context.Context, roundID string, degreeLevel models.DegreeLevel) ([]models.ProgramWithDetails, error)
}

type programRepository struct {
	*PostgresRepository
}

func NewProgramRepository(db *sql.DB, logger zerolog.Logger) ProgramRepository {
	return &programRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *programRepository) GetByID(ctx context.Context, id string) (*models.Program, error) {
	query := `
		SELECT id, round_id, faculty_id, department_id, degree_level, code, name,
		       orientation, capacity, is_active, created_at, updated_at
		FROM programs
		WHERE id = $1
	`

	program := &models.Program{}
	err := r.conn(ctx).QueryRowContext(ctx, query, id).Scan(
		&program.ID,
		&program.RoundID,
		&program.FacultyID,
		&program.DepartmentID,
		&program.DegreeLevel,
		&program.Code,
		&program.Name,
		&program.Orientation,
		&program.Capacity,
		&program.IsActive,
		&program.CreatedAt,
		&program.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return program, err
}

func (r *programRepository) GetActiveByRound(ctx context.Context, roundID string, degreeLevel models.DegreeLevel) ([]models.ProgramWithDetails, error) {
	query := `
		SELECT
			p.id, p.round_id, p.faculty_id, p.department_id, p.degree_level, p.code,
			p.name, p.orientation, p.capacity, p.is_active, p.created_at, p.updated_at,
			f.name AS faculty_name, d.name AS department_name
		FROM programs p
		JOIN faculties f ON p.faculty_id = f.id
		JOIN departments d ON p.department_id = d.id
		WHERE p.round_id = $1 AND p.degree_level = $2 AND p.is_active = true
		ORDER BY f.name, d.name, p.name
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, roundID, degreeLevel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var programs []models.ProgramWithDetails
	for rows.Next() {
		var program models.ProgramWithDetails
		err := rows.Scan(
			&program.ID,
			&program.RoundID,
			&program.FacultyID,
			&program.DepartmentID,
			&program.DegreeLevel,
			&program.Code,
			&program.Name,
			&program.Orientation,
			&program.Capacity,
			&program.IsActive,
			&program.CreatedAt,
			&program.UpdatedAt,
			&program.FacultyName,
			&program.DepartmentName,
		)
		if err != nil {
			return nil, err
		}
		programs = append(programs, program)
	}

	return programs, rows.Err()
}
