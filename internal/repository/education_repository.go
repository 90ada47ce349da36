package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/gradapply/admission-service/internal/models"
)

type EducationRepository interface {
	CreateRecord(ctx context.Context, record *models.EducationRecord) error
	RecordsByApplication(ctx context.Context, applicationID string) ([]models.EducationRecord, error)
	RecordByDegreeLevel(ctx context.Context, applicationID string, level models.EducationDegreeLevel) (*models.EducationRecord, error)
	UpsertScoring(ctx context.Context, scoring *models.EducationScoring) error
	ScoringByApplication(ctx context.Context, applicationID string) (*models.EducationScoring, error)
}

type educationRepository struct {
	*PostgresRepository
}

func NewEducationRepository(db *sql.DB, logger zerolog.Logger) EducationRepository {
	return &educationRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *educationRepository) CreateRecord(ctx context.Context, record *models.EducationRecord) error {
	query := `
		INSERT INTO education_records (id, application_id, degree_level, university, field_of_study, study_status, gpa, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn(ctx).ExecContext(ctx, query,
		record.ID,
		record.ApplicationID,
		record.DegreeLevel,
		record.University,
		record.FieldOfStudy,
		record.StudyStatus,
		record.GPA,
		record.CreatedAt,
		record.UpdatedAt,
	)

	return err
}

const educationRecordColumns = `id, application_id, degree_level, university, field_of_study, study_status, gpa, created_at, updated_at`

func (r *educationRepository) RecordsByApplication(ctx context.Context, applicationID string) ([]models.EducationRecord, error) {
	query := `
		SELECT ` + educationRecordColumns + `
		FROM education_records
		WHERE application_id = $1
		ORDER BY degree_level
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.EducationRecord
	for rows.Next() {
		var record models.EducationRecord
		err := rows.Scan(
			&record.ID,
			&record.ApplicationID,
			&record.DegreeLevel,
			&record.University,
			&record.FieldOfStudy,
			&record.StudyStatus,
			&record.GPA,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (r *educationRepository) RecordByDegreeLevel(ctx context.Context, applicationID string, level models.EducationDegreeLevel) (*models.EducationRecord, error) {
	query := `
		SELECT ` + educationRecordColumns + `
		FROM education_records
		WHERE application_id = $1 AND degree_level = $2
		ORDER BY created_at
		LIMIT 1
	`

	record := &models.EducationRecord{}
	err := r.conn(ctx).QueryRowContext(ctx, query, applicationID, level).Scan(
		&record.ID,
		&record.ApplicationID,
		&record.DegreeLevel,
		&record.University,
		&record.FieldOfStudy,
		&record.StudyStatus,
		&record.GPA,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return record, err
}

func (r *educationRepository) UpsertScoring(ctx context.Context, scoring *models.EducationScoring) error {
	query := `
		INSERT INTO education_scorings (id, application_id, total_score, calculated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (application_id)
		DO UPDATE SET total_score = EXCLUDED.total_score, calculated_at = EXCLUDED.calculated_at
	`

	_, err := r.conn(ctx).ExecContext(ctx, query,
		scoring.ID,
		scoring.ApplicationID,
		scoring.TotalScore,
		time.Now(),
	)

	return err
}

func (r *educationRepository) ScoringByApplication(ctx context.Context, applicationID string) (*models.EducationScoring, error) {
	query := `
		SELECT id, application_id, total_score, calculated_at
		FROM education_scorings
		WHERE application_id = $1
	`

	scoring := &models.EducationScoring{}
	err := r.conn(ctx).QueryRowContext(ctx, query, applicationID).Scan(
		&scoring.ID,
		&scoring.ApplicationID,
		&scoring.TotalScore,
		&scoring.CalculatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return scoring, err
}
