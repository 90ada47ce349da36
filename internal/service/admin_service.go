package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gradapply/admission-service/internal/models"
	"github.com/gradapply/admission-service/internal/repository"
)

type AdminService interface {
	ResolvePermissions(ctx context.Context, userID string) (*models.AdminPermission, error)
	ListApplications(ctx context.Context, actor *models.AdminPermission, roundID string, status models.ApplicationStatus, page, limit int) (*models.ApplicationsPageResponse, error)
	UniversityReview(ctx context.Context, actor *models.AdminPermission, applicationID string, req *models.UniversityReviewRequest) (*models.Application, error)
	FacultyReview(ctx context.Context, actor *models.AdminPermission, applicationID string, req *models.FacultyReviewRequest) (*models.Application, error)
	SetScore(ctx context.Context, actor *models.AdminPermission, applicationID string, req *models.SetScoreRequest) error
	Statistics(ctx context.Context, actor *models.AdminPermission, roundID string) (*models.StatisticsResponse, error)
}

type adminService struct {
	adminRepo       repository.AdminRepository
	applicationRepo repository.ApplicationRepository
	educationRepo   repository.EducationRepository
	roundRepo       repository.RoundRepository
	tx              repository.Transactor
	logger          zerolog.Logger
}

func NewAdminService(
	adminRepo repository.AdminRepository,
	applicationRepo repository.ApplicationRepository,
	educationRepo repository.EducationRepository,
	roundRepo repository.RoundRepository,
	tx repository.Transactor,
	logger zerolog.Logger,
) AdminService {
	return &adminService{
		adminRepo:       adminRepo,
		applicationRepo: applicationRepo,
		educationRepo:   educationRepo,
		roundRepo:       roundRepo,
		tx:              tx,
		logger:          logger,
	}
}

// ResolvePermissions is the single place admin capabilities are looked up.
// Every protected operation receives the resolved set instead of querying on
// its own.
func (s *adminService) ResolvePermissions(ctx context.Context, userID string) (*models.AdminPermission, error) {
	permission, err := s.adminRepo.PermissionByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin permission: %w", err)
	}
	if permission == nil {
		return nil, permissionDenied("no admin permission")
	}
	return permission, nil
}

func (s *adminService) resolveRound(ctx context.Context, roundID string) (*models.AdmissionRound, error) {
	if roundID != "" {
		round, err := s.roundRepo.GetByID(ctx, roundID)
		if err != nil {
			return nil, fmt.Errorf("failed to get round: %w", err)
		}
		if round == nil {
			return nil, notFound("admission round")
		}
		return round, nil
	}

	round, err := s.roundRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active round: %w", err)
	}
	return round, nil
}

func (s *adminService) ListApplications(ctx context.Context, actor *models.AdminPermission, roundID string, status models.ApplicationStatus, page, limit int) (*models.ApplicationsPageResponse, error) {
	if !actor.IsUniversityAdmin() && !actor.IsFacultyAdmin() {
		return nil, permissionDenied("admin access required")
	}

	round, err := s.resolveRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return &models.ApplicationsPageResponse{Applications: []models.Application{}, Page: 1, Limit: limit}, nil
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	applications, total, err := s.applicationRepo.ListByRound(ctx, round.ID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	return &models.ApplicationsPageResponse{
		Applications: applications,
		Total:        total,
		Page:         page,
		Limit:        limit,
	}, nil
}

// UniversityReview records the university-tier verdict and moves the
// application along the workflow accordingly.
func (s *adminService) UniversityReview(ctx context.Context, actor *models.AdminPermission, applicationID string, req *models.UniversityReviewRequest) (*models.Application, error) {
	if !actor.IsUniversityAdmin() {
		return nil, permissionDenied("university admin access required")
	}

	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil {
		return nil, notFound("application")
	}

	var newStatus models.ApplicationStatus
	reviewStatus := models.UniversityReviewStatus(req.ReviewStatus)
	switch reviewStatus {
	case models.ReviewApproved, models.ReviewApprovedWithDefect:
		newStatus = models.StatusApprovedByUniversity
	case models.ReviewRejected:
		newStatus = models.StatusRejectedByUniversity
	default:
		// RETURNED_FOR_CORRECTION keeps the PENDING review status; the
		// applicant resubmits and the review starts over.
		reviewStatus = models.ReviewPending
		newStatus = models.StatusReturnedForCorrection
	}

	from := app.Status
	if from == models.StatusSubmitted {
		from = models.StatusUnderUniversityReview
	}
	if !from.CanTransitionTo(newStatus) && from != newStatus {
		return nil, conflict(fmt.Sprintf("cannot move application from %s to %s", app.Status, newStatus))
	}

	now := time.Now()
	comment := req.Comment
	if len(req.Defects) > 0 {
		for _, defect := range req.Defects {
			comment += "\n- " + defect
		}
	}

	if err := s.applicationRepo.SetUniversityReview(ctx, app.ID, reviewStatus, comment, actor.UserID, now, newStatus); err != nil {
		return nil, fmt.Errorf("failed to save university review: %w", err)
	}

	s.logger.Info().
		Str("application_id", app.ID).
		Str("review_status", string(reviewStatus)).
		Str("new_status", string(newStatus)).
		Msg("University review recorded")

	return s.applicationRepo.GetByID(ctx, app.ID)
}

func (s *adminService) FacultyReview(ctx context.Context, actor *models.AdminPermission, applicationID string, req *models.FacultyReviewRequest) (*models.Application, error) {
	if !actor.IsFacultyAdmin() {
		return nil, permissionDenied("faculty admin access required")
	}

	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil {
		return nil, notFound("application")
	}

	newStatus := models.StatusUnderFacultyReview
	if req.Completed {
		newStatus = models.StatusFacultyReviewCompleted
	}

	from := app.Status
	if from == models.StatusApprovedByUniversity {
		from = models.StatusUnderFacultyReview
	}
	if !from.CanTransitionTo(newStatus) && from != newStatus {
		return nil, conflict(fmt.Sprintf("cannot move application from %s to %s", app.Status, newStatus))
	}

	now := time.Now()
	if err := s.applicationRepo.SetFacultyReview(ctx, app.ID, req.Completed, req.Comment, actor.UserID, now, newStatus); err != nil {
		return nil, fmt.Errorf("failed to save faculty review: %w", err)
	}

	return s.applicationRepo.GetByID(ctx, app.ID)
}

// SetScore is the score provider boundary: the precomputed total score (and
// optionally the education score) is written onto the application. How the
// numbers were produced is not this service's business.
func (s *adminService) SetScore(ctx context.Context, actor *models.AdminPermission, applicationID string, req *models.SetScoreRequest) error {
	if !actor.IsUniversityAdmin() {
		return permissionDenied("university admin access required")
	}

	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil {
		return notFound("application")
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.applicationRepo.SetTotalScore(ctx, app.ID, req.TotalScore); err != nil {
			return fmt.Errorf("failed to set total score: %w", err)
		}

		if req.EducationScore != nil {
			scoring := &models.EducationScoring{
				ID:            uuid.New().String(),
				ApplicationID: app.ID,
				TotalScore:    *req.EducationScore,
			}
			if err := s.educationRepo.UpsertScoring(ctx, scoring); err != nil {
				return fmt.Errorf("failed to upsert education scoring: %w", err)
			}
		}

		return nil
	})
}

func (s *adminService) Statistics(ctx context.Context, actor *models.AdminPermission, roundID string) (*models.StatisticsResponse, error) {
	if !actor.IsUniversityAdmin() && !actor.IsFacultyAdmin() {
		return nil, permissionDenied("admin access required")
	}

	round, err := s.resolveRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return &models.StatisticsResponse{ByStatus: map[string]int{}, ByOverallStatus: map[string]int{}}, nil
	}

	byStatus, err := s.applicationRepo.CountByStatus(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	byOverall, err := s.applicationRepo.CountByOverallStatus(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count by overall status: %w", err)
	}

	total := 0
	for _, count := range byStatus {
		total += count
	}

	return &models.StatisticsResponse{
		RoundID:          round.ID,
		ByStatus:         byStatus,
		ByOverallStatus:  byOverall,
		TotalApplicants:  total,
		TotalApplication: total,
	}, nil
}
