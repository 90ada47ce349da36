package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/gradapply/admission-service/internal/models"
)

type ApplicationRepository interface {
	Create(ctx context.Context, application *models.Application) error
	GetByID(ctx context.Context, id string) (*models.Application, error)
	GetByApplicantAndRound(ctx context.Context, applicantID, roundID string) (*models.Application, error)
	GetByApplicant(ctx context.Context, applicantID string) ([]models.Application, error)
	ListByRound(ctx context.Context, roundID string, status models.ApplicationStatus, limit, offset int) ([]models.Application, int, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error
	MarkSubmitted(ctx context.Context, id string, submittedAt time.Time) error
	SetUniversityReview(ctx context.Context, id string, status models.UniversityReviewStatus, comment, reviewedBy string, reviewedAt time.Time, newAppStatus models.ApplicationStatus) error
	SetFacultyReview(ctx context.Context, id string, completed bool, comment, reviewedBy string, reviewedAt time.Time, newAppStatus models.ApplicationStatus) error
	SetAdmissionOutcome(ctx context.Context, id string, status models.AdmissionOverallStatus, publishedAt time.Time) error
	SetTotalScore(ctx context.Context, id string, totalScore float64) error
	TrackingCodeExists(ctx context.Context, code string) (bool, error)
	CountByStatus(ctx context.Context, roundID string) (map[string]int, error)
	CountByOverallStatus(ctx context.Context, roundID string) (map[string]int, error)
}

type applicationRepository struct {
	*PostgresRepository
}

func NewApplicationRepository(db *sql.DB, logger zerolog.Logger) ApplicationRepository {
	return &applicationRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const applicationColumns = `
	id, applicant_id, round_id, tracking_code, status, total_score,
	university_review_status, university_review_comment, university_reviewed_by, university_reviewed_at,
	faculty_review_completed, faculty_review_comment, faculty_reviewed_by, faculty_reviewed_at,
	admission_overall_status, admission_result_published_at, submitted_at, created_at, updated_at`

func scanApplication(scan func(dest ...interface{}) error) (*models.Application, error) {
	app := &models.Application{}
	err := scan(
		&app.ID,
		&app.ApplicantID,
		&app.RoundID,
		&app.TrackingCode,
		&app.Status,
		&app.TotalScore,
		&app.UniversityReviewStatus,
		&app.UniversityReviewComment,
		&app.UniversityReviewedBy,
		&app.UniversityReviewedAt,
		&app.FacultyReviewCompleted,
		&app.FacultyReviewComment,
		&app.FacultyReviewedBy,
		&app.FacultyReviewedAt,
		&app.AdmissionOverallStatus,
		&app.AdmissionResultPublishedAt,
		&app.SubmittedAt,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	return app, err
}

func (r *applicationRepository) Create(ctx context.Context, application *models.Application) error {
	query := `
		INSERT INTO applications (id, applicant_id, round_id, tracking_code, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn(ctx).ExecContext(ctx, query,
		application.ID,
		application.ApplicantID,
		application.RoundID,
		application.TrackingCode,
		application.Status,
		application.CreatedAt,
		application.UpdatedAt,
	)

	return err
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE id = $1
	`

	app, err := scanApplication(r.conn(ctx).QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return app, err
}

func (r *applicationRepository) GetByApplicantAndRound(ctx context.Context, applicantID, roundID string) (*models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE applicant_id = $1 AND round_id = $2
	`

	app, err := scanApplication(r.conn(ctx).QueryRowContext(ctx, query, applicantID, roundID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return app, err
}

func (r *applicationRepository) GetByApplicant(ctx context.Context, applicantID string) ([]models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE applicant_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, applicantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var applications []models.Application
	for rows.Next() {
		app, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		applications = append(applications, *app)
	}

	return applications, rows.Err()
}

func (r *applicationRepository) ListByRound(ctx context.Context, roundID string, status models.ApplicationStatus, limit, offset int) ([]models.Application, int, error) {
	countQuery := `
		SELECT COUNT(*) FROM applications
		WHERE round_id = $1 AND ($2 = '' OR status = $2)
	`
	var total int
	if err := r.conn(ctx).QueryRowContext(ctx, countQuery, roundID, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE round_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, roundID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var applications []models.Application
	for rows.Next() {
		app, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		applications = append(applications, *app)
	}

	return applications, total, rows.Err()
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	query := `
		UPDATE applications
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.conn(ctx).ExecContext(ctx, query, status, time.Now(), id)
	return err
}

func (r *applicationRepository) MarkSubmitted(ctx context.Context, id string, submittedAt time.Time) error {
	query := `
		UPDATE applications
		SET status = $1, submitted_at = $2, updated_at = $2
		WHERE id = $3
	`

	_, err := r.conn(ctx).ExecContext(ctx, query, models.StatusSubmitted, submittedAt, id)
	return err
}

func (r *applicationRepository) SetUniversityReview(ctx context.Context, id string, status models.UniversityReviewStatus, comment, reviewedBy string, reviewedAt time.Time, newAppStatus models.ApplicationStatus) error {
	query := `
		UPDATE applications
		SET university_review_status = $1,
		    university_review_comment = $2,
		    university_reviewed_by = $3,
		    university_reviewed_at = $4,
		    status = $5,
		    updated_at = $4
		WHERE id = $6
	`

	_, err := r.conn(ctx).ExecContext(ctx, query, status, comment, reviewedBy, reviewedAt, newAppStatus, id)
	return err
}

func (r *applicationRepository) SetFacultyReview(ctx context.Context, id string, completed bool, comment, reviewedBy string, reviewedAt time.Time, newAppStatus models.ApplicationStatus) error {
	query := `
		UPDATE applications
		SET faculty_review_completed = $1,
		    faculty_review_comment = $2,
		    faculty_reviewed_by = $3,
		    faculty_reviewed_at = $4,
		    status = $5,
		    updated_at = $4
		WHERE id = $6
	`

	_, err := r.conn(ctx).ExecContext(ctx, query, completed, comment, reviewedBy, reviewedAt, newAppStatus, id)
	return err
}

func (r *applicationRepository) SetAdmissionOutcome(ctx context.Context, id string, status models.AdmissionOverallStatus, publishedAt time.Time) error {
	query := `
		UPDATE applications
		SET admission_overall_status = $1, admission_result_published_at = $2, updated_at = $2
		WHERE id = $3
	`

	_, err := r.conn(ctx).ExecContext(ctx, query, status, publishedAt, id)
	return err
}

func (r *applicationRepository) SetTotalScore(ctx context.Context, id string, totalScore float64) error {
	query := `
		UPDATE applications
		SET total_score = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.conn(ctx).ExecContext(ctx, query, totalScore, time.Now(), id)
	return err
}

func (r *applicationRepository) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE tracking_code = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *applicationRepository) CountByStatus(ctx context.Context, roundID string) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM applications
		WHERE round_id = $1
		GROUP BY status
	`

	return r.countGrouped(ctx, query, roundID)
}

func (r *applicationRepository) CountByOverallStatus(ctx context.Context, roundID string) (map[string]int, error) {
	query := `
		SELECT admission_overall_status, COUNT(*)
		FROM applications
		WHERE round_id = $1 AND admission_overall_status <> ''
		GROUP BY admission_overall_status
	`

	return r.countGrouped(ctx, query, roundID)
}

func (r *applicationRepository) countGrouped(ctx context.Context, query string, args ...interface{}) (map[string]int, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}

	return counts, rows.Err()
}
