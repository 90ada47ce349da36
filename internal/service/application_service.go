package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gradapply/admission-service/internal/models"
	"github.com/gradapply/admission-service/internal/repository"
	"github.com/gradapply/admission-service/internal/service/integration"
)

type ApplicationService interface {
	Register(ctx context.Context, applicantID, roundID string) (*models.Application, error)
	MyApplications(ctx context.Context, applicantID string) ([]models.Application, error)
	GetApplication(ctx context.Context, applicantID, applicationID string) (*models.ApplicationResponse, error)
	Submit(ctx context.Context, applicantID, applicationID string) (*models.Application, error)
	AddEducationRecord(ctx context.Context, applicantID, applicationID string, req *models.CreateEducationRecordRequest) (*models.EducationRecord, error)
	ListEducationRecords(ctx context.Context, applicantID, applicationID string) ([]models.EducationRecord, error)
	AddDocument(ctx context.Context, applicantID, applicationID string, req *models.CreateDocumentRequest) (*models.Document, error)
	ListDocuments(ctx context.Context, applicantID, applicationID string) ([]models.Document, error)
	DeleteDocument(ctx context.Context, applicantID, applicationID, documentID string) error
}

type applicationService struct {
	applicationRepo repository.ApplicationRepository
	applicantRepo   repository.ApplicantRepository
	choiceRepo      repository.ChoiceRepository
	educationRepo   repository.EducationRepository
	documentRepo    repository.DocumentRepository
	roundRepo       repository.RoundRepository
	fileClient      integration.FileClient
	tx              repository.Transactor
	logger          zerolog.Logger
}

func NewApplicationService(
	applicationRepo repository.ApplicationRepository,
	applicantRepo repository.ApplicantRepository,
	choiceRepo repository.ChoiceRepository,
	educationRepo repository.EducationRepository,
	documentRepo repository.DocumentRepository,
	roundRepo repository.RoundRepository,
	fileClient integration.FileClient,
	tx repository.Transactor,
	logger zerolog.Logger,
) ApplicationService {
	return &applicationService{
		applicationRepo: applicationRepo,
		applicantRepo:   applicantRepo,
		choiceRepo:      choiceRepo,
		educationRepo:   educationRepo,
		documentRepo:    documentRepo,
		roundRepo:       roundRepo,
		fileClient:      fileClient,
		tx:              tx,
		logger:          logger,
	}
}

const trackingCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateTrackingCode() (string, error) {
	code := make([]byte, 10)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(trackingCodeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = trackingCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// Register opens an application for the applicant in the given round (or the
// currently active round when none is given). One application per applicant
// and round.
func (s *applicationService) Register(ctx context.Context, applicantID, roundID string) (*models.Application, error) {
	exists, err := s.applicantRepo.Exists(ctx, applicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check applicant: %w", err)
	}
	if !exists {
		return nil, notFound("applicant")
	}

	var round *models.AdmissionRound
	if roundID != "" {
		round, err = s.roundRepo.GetByID(ctx, roundID)
	} else {
		round, err = s.roundRepo.GetActive(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, notFound("admission round")
	}
	if !round.IsActive {
		return nil, NewValidationError("the admission round is not active")
	}

	now := time.Now()
	if now.Before(round.RegistrationStart) || now.After(round.RegistrationEnd) {
		return nil, NewValidationError("registration window for this round is closed")
	}

	existing, err := s.applicationRepo.GetByApplicantAndRound(ctx, applicantID, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing application: %w", err)
	}
	if existing != nil {
		return nil, conflict("an application already exists for this round")
	}

	var trackingCode string
	for {
		trackingCode, err = generateTrackingCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate tracking code: %w", err)
		}
		exists, err := s.applicationRepo.TrackingCodeExists(ctx, trackingCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check tracking code: %w", err)
		}
		if !exists {
			break
		}
	}

	application := &models.Application{
		ID:           uuid.New().String(),
		ApplicantID:  applicantID,
		RoundID:      round.ID,
		TrackingCode: trackingCode,
		Status:       models.StatusNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.applicationRepo.Create(ctx, application); err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	s.logger.Info().
		Str("application_id", application.ID).
		Str("round_id", round.ID).
		Str("tracking_code", trackingCode).
		Msg("Application registered")

	return application, nil
}

func (s *applicationService) MyApplications(ctx context.Context, applicantID string) ([]models.Application, error) {
	applications, err := s.applicationRepo.GetByApplicant(ctx, applicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get applications: %w", err)
	}
	return applications, nil
}

func (s *applicationService) ownedApplication(ctx context.Context, applicantID, applicationID string) (*models.Application, error) {
	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil || app.ApplicantID != applicantID {
		return nil, notFound("application")
	}
	return app, nil
}

func (s *applicationService) GetApplication(ctx context.Context, applicantID, applicationID string) (*models.ApplicationResponse, error) {
	app, err := s.ownedApplication(ctx, applicantID, applicationID)
	if err != nil {
		return nil, err
	}

	choices, err := s.choiceRepo.GetByApplication(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get choices: %w", err)
	}

	response := &models.ApplicationResponse{Application: *app, Choices: choices}

	scoring, err := s.educationRepo.ScoringByApplication(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get education scoring: %w", err)
	}
	if scoring != nil {
		response.EducationScore = &scoring.TotalScore
	}

	return response, nil
}

// Submit runs the submission gate: every defect is collected and the whole
// list is returned at once, so the applicant can fix everything in one pass.
func (s *applicationService) Submit(ctx context.Context, applicantID, applicationID string) (*models.Application, error) {
	app, err := s.ownedApplication(ctx, applicantID, applicationID)
	if err != nil {
		return nil, err
	}

	allowed := app.Status != models.StatusSubmitted && !app.Status.IsTerminal() &&
		app.Status != models.StatusUnderUniversityReview && app.Status != models.StatusUnderFacultyReview
	if !allowed {
		return nil, conflict("application cannot be submitted in its current status")
	}

	round, err := s.roundRepo.GetByID(ctx, app.RoundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, notFound("round")
	}

	defects, err := s.gateDefects(ctx, app, round.Type.Capabilities())
	if err != nil {
		return nil, err
	}
	if len(defects) > 0 {
		return nil, &ValidationError{Messages: defects}
	}

	submittedAt := time.Now()
	if err := s.applicationRepo.MarkSubmitted(ctx, app.ID, submittedAt); err != nil {
		return nil, fmt.Errorf("failed to mark submitted: %w", err)
	}

	s.logger.Info().
		Str("application_id", app.ID).
		Msg("Application submitted")

	app.Status = models.StatusSubmitted
	app.SubmittedAt = &submittedAt
	return app, nil
}

func (s *applicationService) gateDefects(ctx context.Context, app *models.Application, caps models.RoundCapabilities) ([]string, error) {
	var defects []string

	choiceCount, err := s.choiceRepo.CountByApplication(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count choices: %w", err)
	}
	if choiceCount == 0 {
		defects = append(defects, "at least one program must be chosen")
	}

	applicant, err := s.applicantRepo.GetByID(ctx, app.ApplicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get applicant: %w", err)
	}
	if applicant == nil || !applicant.HasCompletePersonalInfo() {
		defects = append(defects, "personal information incomplete")
	}

	identityCount, err := s.documentRepo.CountByTypes(ctx, app.ID, models.IdentityDocumentTypes())
	if err != nil {
		return nil, fmt.Errorf("failed to count identity documents: %w", err)
	}
	if identityCount < len(models.IdentityDocumentTypes()) {
		defects = append(defects, "identity documents incomplete")
	}

	bachelor, err := s.educationRepo.RecordByDegreeLevel(ctx, app.ID, models.EducationBSc)
	if err != nil {
		return nil, fmt.Errorf("failed to get bachelor record: %w", err)
	}
	if bachelor == nil {
		defects = append(defects, "bachelor education record is required")
	}

	if caps.RequiresMasterRecord {
		master, err := s.educationRepo.RecordByDegreeLevel(ctx, app.ID, models.EducationMSc)
		if err != nil {
			return nil, fmt.Errorf("failed to get master record: %w", err)
		}
		if master == nil {
			defects = append(defects, "master education record is required")
		}
	}

	if bachelor != nil {
		if bachelor.StudyStatus == models.StudyGraduated {
			count, err := s.documentRepo.CountByTypes(ctx, app.ID,
				[]models.DocumentType{models.DocBScCert, models.DocBScTranscript})
			if err != nil {
				return nil, fmt.Errorf("failed to count education documents: %w", err)
			}
			if count < 2 {
				defects = append(defects, "bachelor education documents incomplete (degree certificate and transcript required)")
			}
		} else {
			count, err := s.documentRepo.CountByTypes(ctx, app.ID,
				[]models.DocumentType{models.DocBScTranscript, models.DocEnrollmentCert})
			if err != nil {
				return nil, fmt.Errorf("failed to count education documents: %w", err)
			}
			if count < 2 {
				defects = append(defects, "bachelor education documents incomplete (transcript and enrollment certificate required)")
			}
		}
	}

	return defects, nil
}

func (s *applicationService) AddEducationRecord(ctx context.Context, applicantID, applicationID string, req *models.CreateEducationRecordRequest) (*models.EducationRecord, error) {
	app, err := s.ownedApplication(ctx, applicantID, applicationID)
	if err != nil {
		return nil, err
	}

	existing, err := s.educationRepo.RecordByDegreeLevel(ctx, app.ID, models.EducationDegreeLevel(req.DegreeLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to check education record: %w", err)
	}
	if existing != nil {
		return nil, conflict("education record for this degree level already exists")
	}

	now := time.Now()
	record := &models.EducationRecord{
		ID:            uuid.New().String(),
		ApplicationID: app.ID,
		DegreeLevel:   models.EducationDegreeLevel(req.DegreeLevel),
		University:    req.University,
		FieldOfStudy:  req.FieldOfStudy,
		StudyStatus:   models.EducationStudyStatus(req.StudyStatus),
		GPA:           req.GPA,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.educationRepo.CreateRecord(ctx, record); err != nil {
			return fmt.Errorf("failed to create education record: %w", err)
		}
		if app.Status == models.StatusIdentityDocsUploaded {
			if err := s.applicationRepo.UpdateStatus(ctx, app.ID, models.StatusEduInfoCompleted); err != nil {
				return fmt.Errorf("failed to advance application status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (s *applicationService) ListEducationRecords(ctx context.Context, applicantID, applicationID string) ([]models.EducationRecord, error) {
	app, err := s.ownedApplication(ctx, applicantID, applicationID)
	if err != nil {
		return nil, err
	}

	return s.educationRepo.RecordsByApplication(ctx, app.ID)
}

func (s *applicationService) AddDocument(ctx context.Context, applicantID, applicationID string, req *models.CreateDocumentRequest) (*models.Document, error) {
	app, err := s.ownedApplication(ctx, applicantID, applicationID)
	if err != nil {
		return nil, err
	}

	if s.fileClient != nil {
		exists, err := s.fileClient.FileExists(ctx, req.FileID)
		if err != nil {
			return nil, fmt.Errorf("failed to check remote file: %w", err)
		}
		if !exists {
			return nil, NewValidationError("referenced file does not exist")
		}
	}

	document := &models.Document{
		ID:            uuid.New().String(),
		ApplicationID: app.ID,
		Type:          models.DocumentType(req.Type),
		FileID:        req.FileID,
		FileName:      req.FileName,
		CreatedAt:     time.Now(),
	}

	if err := s.documentRepo.Create(ctx, document); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	return document, nil
}

func (s *applicationService) ListDocuments(ctx context.Context, applicantID, applicationID string) ([]models.Document, error) {
	app, err := s.ownedApplication(ctx, applicantID, applicationID)
	if err != nil {
		return nil, err
	}

	return s.documentRepo.ByApplication(ctx, app.ID)
}

func (s *applicationService) DeleteDocument(ctx context.Context, applicantID, applicationID, documentID string) error {
	app, err := s.ownedApplication(ctx, applicantID, applicationID)
	if err != nil {
		return err
	}

	document, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if document == nil || document.ApplicationID != app.ID {
		return notFound("document")
	}

	if err := s.documentRepo.Delete(ctx, document.ID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	// best effort: the metadata row is gone either way
	if s.fileClient != nil {
		if err := s.fileClient.DeleteFile(ctx, document.FileID); err != nil {
			s.logger.Error().Err(err).
				Str("file_id", document.FileID).
				Msg("Failed to delete remote file")
		}
	}

	return nil
}
