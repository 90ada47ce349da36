package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/gradapply/admission-service/internal/models"
)

// CandidateRow is a choice joined with the ranking attributes of its
// application, plus the applicant identity used by the preview.
type CandidateRow struct {
	ChoiceID        string
	ChoiceCreatedAt time.Time
	Priority        int
	AdmissionStatus models.ChoiceAdmissionStatus
	ApplicationID   string
	TrackingCode    string
	TotalScore      sql.NullFloat64
	EducationScore  sql.NullFloat64
	Applicant       models.Applicant
}

type ChoiceRepository interface {
	Create(ctx context.Context, choice *models.ApplicationChoice) error
	GetByID(ctx context.Context, id string) (*models.ApplicationChoice, error)
	GetByApplication(ctx context.Context, applicationID string) ([]models.ChoiceWithProgram, error)
	CountByApplication(ctx context.Context, applicationID string) (int, error)
	DeleteByApplication(ctx context.Context, applicationID string) error
	Delete(ctx context.Context, id string) error
	UpdatePriority(ctx context.Context, id string, priority int) error
	CandidatesByProgram(ctx context.Context, programID string, statuses []models.ApplicationStatus) ([]CandidateRow, error)
	TopChoicesByApplications(ctx context.Context, applicationIDs []string) (map[string][]models.PreviewChoice, error)
	ResetProgramAllocation(ctx context.Context, programID string) error
	SetAllocationOutcome(ctx context.Context, choiceID string, status models.ChoiceAdmissionStatus, priorityResult *int) error
	RejectSiblings(ctx context.Context, applicationID, exceptChoiceID string) error
	AcceptedSibling(ctx context.Context, applicationID, exceptChoiceID string) (*models.ApplicationChoice, error)
}

type choiceRepository struct {
	*PostgresRepository
}

func NewChoiceRepository(db *sql.DB, logger zerolog.Logger) ChoiceRepository {
	return &choiceRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *choiceRepository) Create(ctx context.Context, choice *models.ApplicationChoice) error {
	query := `
		INSERT INTO application_choices (id, application_id, program_id, priority, admission_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn(ctx).ExecContext(ctx, query,
		choice.ID,
		choice.ApplicationID,
		choice.ProgramID,
		choice.Priority,
		choice.AdmissionStatus,
		choice.CreatedAt,
		choice.UpdatedAt,
	)

	return err
}

func (r *choiceRepository) GetByID(ctx context.Context, id string) (*models.ApplicationChoice, error) {
	query := `
		SELECT id, application_id, program_id, priority, admission_status, admission_priority_result, created_at, updated_at
		FROM application_choices
		WHERE id = $1
	`

	choice := &models.ApplicationChoice{}
	err := r.conn(ctx).QueryRowContext(ctx, query, id).Scan(
		&choice.ID,
		&choice.ApplicationID,
		&choice.ProgramID,
		&choice.Priority,
		&choice.AdmissionStatus,
		&choice.AdmissionPriorityResult,
		&choice.CreatedAt,
		&choice.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return choice, err
}

func (r *choiceRepository) GetByApplication(ctx context.Context, applicationID string) ([]models.ChoiceWithProgram, error) {
	query := `
		SELECT
			c.id, c.application_id, c.program_id, c.priority, c.admission_status,
			c.admission_priority_result, c.created_at, c.updated_at,
			p.name AS program_name, p.orientation AS program_orientation
		FROM application_choices c
		JOIN programs p ON c.program_id = p.id
		WHERE c.application_id = $1
		ORDER BY c.priority
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var choices []models.ChoiceWithProgram
	for rows.Next() {
		var choice models.ChoiceWithProgram
		err := rows.Scan(
			&choice.ID,
			&choice.ApplicationID,
			&choice.ProgramID,
			&choice.Priority,
			&choice.AdmissionStatus,
			&choice.AdmissionPriorityResult,
			&choice.CreatedAt,
			&choice.UpdatedAt,
			&choice.ProgramName,
			&choice.ProgramOrientation,
		)
		if err != nil {
			return nil, err
		}
		choices = append(choices, choice)
	}

	return choices, rows.Err()
}

func (r *choiceRepository) CountByApplication(ctx context.Context, applicationID string) (int, error) {
	var count int
	err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM application_choices WHERE application_id = $1`, applicationID).Scan(&count)
	return count, err
}

func (r *choiceRepository) DeleteByApplication(ctx context.Context, applicationID string) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		`DELETE FROM application_choices WHERE application_id = $1`, applicationID)
	return err
}

func (r *choiceRepository) Delete(ctx context.Context, id string) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		`DELETE FROM application_choices WHERE id = $1`, id)
	return err
}

func (r *choiceRepository) UpdatePriority(ctx context.Context, id string, priority int) error {
	query := `
		UPDATE application_choices
		SET priority = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.conn(ctx).ExecContext(ctx, query, priority, time.Now(), id)
	return err
}

func (r *choiceRepository) CandidatesByProgram(ctx context.Context, programID string, statuses []models.ApplicationStatus) ([]CandidateRow, error) {
	statusStrings := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrings[i] = s.String()
	}

	query := `
		SELECT
			c.id, c.created_at, c.priority, c.admission_status,
			a.id, a.tracking_code, a.total_score, es.total_score,
			ap.id, ap.first_name, ap.last_name, ap.father_name, ap.gender,
			ap.national_id, ap.email, ap.mobile
		FROM application_choices c
		JOIN applications a ON c.application_id = a.id
		JOIN applicants ap ON a.applicant_id = ap.id
		LEFT JOIN education_scorings es ON es.application_id = a.id
		WHERE c.program_id = $1 AND a.status = ANY($2)
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, programID, pq.Array(statusStrings))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []CandidateRow
	for rows.Next() {
		var row CandidateRow
		err := rows.Scan(
			&row.ChoiceID,
			&row.ChoiceCreatedAt,
			&row.Priority,
			&row.AdmissionStatus,
			&row.ApplicationID,
			&row.TrackingCode,
			&row.TotalScore,
			&row.EducationScore,
			&row.Applicant.ID,
			&row.Applicant.FirstName,
			&row.Applicant.LastName,
			&row.Applicant.FatherName,
			&row.Applicant.Gender,
			&row.Applicant.NationalID,
			&row.Applicant.Email,
			&row.Applicant.Mobile,
		)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, row)
	}

	return candidates, rows.Err()
}

func (r *choiceRepository) TopChoicesByApplications(ctx context.Context, applicationIDs []string) (map[string][]models.PreviewChoice, error) {
	if len(applicationIDs) == 0 {
		return map[string][]models.PreviewChoice{}, nil
	}

	query := `
		SELECT c.application_id, c.priority, p.name, p.orientation
		FROM application_choices c
		JOIN programs p ON c.program_id = p.id
		WHERE c.application_id = ANY($1)
		ORDER BY c.application_id, c.priority
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, pq.Array(applicationIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]models.PreviewChoice)
	for rows.Next() {
		var applicationID string
		var choice models.PreviewChoice
		if err := rows.Scan(&applicationID, &choice.Priority, &choice.ProgramName, &choice.Orientation); err != nil {
			return nil, err
		}
		result[applicationID] = append(result[applicationID], choice)
	}

	return result, rows.Err()
}

// ResetProgramAllocation clears previous run results for one program only;
// results already written for other programs are untouched.
func (r *choiceRepository) ResetProgramAllocation(ctx context.Context, programID string) error {
	query := `
		UPDATE application_choices
		SET admission_status = $1, admission_priority_result = NULL, updated_at = $2
		WHERE program_id = $3
	`

	_, err := r.conn(ctx).ExecContext(ctx, query, models.ChoicePending, time.Now(), programID)
	return err
}

func (r *choiceRepository) SetAllocationOutcome(ctx context.Context, choiceID string, status models.ChoiceAdmissionStatus, priorityResult *int) error {
	query := `
		UPDATE application_choices
		SET admission_status = $1, admission_priority_result = $2, updated_at = $3
		WHERE id = $4
	`

	_, err := r.conn(ctx).ExecContext(ctx, query, status, priorityResult, time.Now(), choiceID)
	return err
}

func (r *choiceRepository) RejectSiblings(ctx context.Context, applicationID, exceptChoiceID string) error {
	query := `
		UPDATE application_choices
		SET admission_status = $1, admission_priority_result = NULL, updated_at = $2
		WHERE application_id = $3 AND id <> $4
	`

	_, err := r.conn(ctx).ExecContext(ctx, query, models.ChoiceRejected, time.Now(), applicationID, exceptChoiceID)
	return err
}

func (r *choiceRepository) AcceptedSibling(ctx context.Context, applicationID, exceptChoiceID string) (*models.ApplicationChoice, error) {
	query := `
		SELECT id, application_id, program_id, priority, admission_status, admission_priority_result, created_at, updated_at
		FROM application_choices
		WHERE application_id = $1 AND id <> $2 AND admission_status = $3
		LIMIT 1
	`

	choice := &models.ApplicationChoice{}
	err := r.conn(ctx).QueryRowContext(ctx, query, applicationID, exceptChoiceID, models.ChoiceAccepted).Scan(
		&choice.ID,
		&choice.ApplicationID,
		&choice.ProgramID,
		&choice.Priority,
		&choice.AdmissionStatus,
		&choice.AdmissionPriorityResult,
		&choice.CreatedAt,
		&choice.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return choice, err
}
