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

// ChoiceService is the choice registry: it owns every mutation of an
// application's ranked program preferences.
type ChoiceService interface {
	ListChoices(ctx context.Context, applicantID, applicationID string) ([]models.ChoiceWithProgram, error)
	SetChoices(ctx context.Context, applicantID, applicationID string, inputs []models.ChoiceInput) ([]models.ChoiceWithProgram, error)
	AddChoice(ctx context.Context, applicantID, applicationID string, input models.ChoiceInput) ([]models.ChoiceWithProgram, error)
	ReorderChoice(ctx context.Context, applicantID, applicationID, choiceID string, newPriority int) ([]models.ChoiceWithProgram, error)
	DeleteChoice(ctx context.Context, applicantID, applicationID, choiceID string) error
	DeleteAllChoices(ctx context.Context, applicantID, applicationID string) error
}

type choiceService struct {
	choiceRepo      repository.ChoiceRepository
	applicationRepo repository.ApplicationRepository
	programRepo     repository.ProgramRepository
	roundRepo       repository.RoundRepository
	tx              repository.Transactor
	logger          zerolog.Logger
}

func NewChoiceService(
	choiceRepo repository.ChoiceRepository,
	applicationRepo repository.ApplicationRepository,
	programRepo repository.ProgramRepository,
	roundRepo repository.RoundRepository,
	tx repository.Transactor,
	logger zerolog.Logger,
) ChoiceService {
	return &choiceService{
		choiceRepo:      choiceRepo,
		applicationRepo: applicationRepo,
		programRepo:     programRepo,
		roundRepo:       roundRepo,
		tx:              tx,
		logger:          logger,
	}
}

// ownedApplication loads the application and verifies it belongs to the
// acting applicant. Applications of other applicants are reported as not
// found, not as forbidden.
func (s *choiceService) ownedApplication(ctx context.Context, applicantID, applicationID string) (*models.Application, error) {
	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil || app.ApplicantID != applicantID {
		return nil, notFound("application")
	}
	return app, nil
}

func (s *choiceService) maxChoices(ctx context.Context, app *models.Application) (int, error) {
	round, err := s.roundRepo.GetByID(ctx, app.RoundID)
	if err != nil {
		return 0, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return 0, notFound("round")
	}
	return round.Type.Capabilities().MaxChoices, nil
}

func (s *choiceService) validateProgram(ctx context.Context, app *models.Application, programID string) error {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		return fmt.Errorf("failed to get program: %w", err)
	}
	if program == nil || !program.IsActive {
		return notFound("program")
	}
	if program.RoundID != app.RoundID {
		return NewValidationError("program does not belong to the application's admission round")
	}
	return nil
}

func (s *choiceService) ListChoices(ctx context.Context, applicantID, applicationID string) ([]models.ChoiceWithProgram, error) {
	app, err := s.ownedApplication(ctx, applicantID, applicationID)
	if err != nil {
		return nil, err
	}

	choices, err := s.choiceRepo.GetByApplication(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get choices: %w", err)
	}

	return choices, nil
}

// SetChoices atomically replaces the full choice set. Either every new
// choice is persisted and the old set is gone, or nothing changed.
func (s *choiceService) SetChoices(ctx context.Context, applicantID, applicationID string, inputs []models.ChoiceInput) ([]models.ChoiceWithProgram, error) {
	app, err := s.ownedApplication(ctx, applicantID, applicationID)
	if err != nil {
		return nil, err
	}

	maxChoices, err := s.maxChoices(ctx, app)
	if err != nil {
		return nil, err
	}

	if len(inputs) > maxChoices {
		return nil, NewValidationError(fmt.Sprintf("at most %d program choices are allowed", maxChoices))
	}

	seenPrograms := make(map[string]bool, len(inputs))
	seenPriorities := make(map[int]bool, len(inputs))
	for _, input := range inputs {
		if seenPrograms[input.ProgramID] {
			return nil, NewValidationError("the same program cannot be chosen more than once")
		}
		if seenPriorities[input.Priority] {
			return nil, NewValidationError("duplicate priorities are not allowed")
		}
		if input.Priority < 1 || input.Priority > maxChoices {
			return nil, NewValidationError(fmt.Sprintf("priority must be between 1 and %d", maxChoices))
		}
		seenPrograms[input.ProgramID] = true
		seenPriorities[input.Priority] = true

		if err := s.validateProgram(ctx, app, input.ProgramID); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.choiceRepo.DeleteByApplication(ctx, app.ID); err != nil {
			return fmt.Errorf("failed to delete existing choices: %w", err)
		}

		now := time.Now()
		for _, input := range inputs {
			choice := &models.ApplicationChoice{
				ID:              uuid.New().String(),
				ApplicationID:   app.ID,
				ProgramID:       input.ProgramID,
				Priority:        input.Priority,
				AdmissionStatus: models.ChoicePending,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := s.choiceRepo.Create(ctx, choice); err != nil {
				return fmt.Errorf("failed to create choice: %w", err)
			}
		}

		if app.Status == models.StatusNew {
			if err := s.applicationRepo.UpdateStatus(ctx, app.ID, models.StatusProgramSelected); err != nil {
				return fmt.Errorf("failed to advance application status: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("application_id", app.ID).
		Int("choices", len(inputs)).
		Msg("Choices replaced")

	return s.choiceRepo.GetByApplication(ctx, app.ID)
}

func (s *choiceService) AddChoice(ctx context.Context, applicantID, applicationID string, input models.ChoiceInput) ([]models.ChoiceWithProgram, error) {
	app, err := s.ownedApplication(ctx, applicantID, applicationID)
	if err != nil {
		return nil, err
	}

	maxChoices, err := s.maxChoices(ctx, app)
	if err != nil {
		return nil, err
	}

	if input.Priority < 1 || input.Priority > maxChoices {
		return nil, NewValidationError(fmt.Sprintf("priority must be between 1 and %d", maxChoices))
	}

	if err := s.validateProgram(ctx, app, input.ProgramID); err != nil {
		return nil, err
	}

	existing, err := s.choiceRepo.GetByApplication(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get choices: %w", err)
	}

	if len(existing) >= maxChoices {
		return nil, NewValidationError(fmt.Sprintf("at most %d program choices are allowed", maxChoices))
	}
	for _, choice := range existing {
		if choice.ProgramID == input.ProgramID {
			return nil, NewValidationError("the same program cannot be chosen more than once")
		}
		if choice.Priority == input.Priority {
			return nil, NewValidationError("another choice already holds this priority")
		}
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := time.Now()
		choice := &models.ApplicationChoice{
			ID:              uuid.New().String(),
			ApplicationID:   app.ID,
			ProgramID:       input.ProgramID,
			Priority:        input.Priority,
			AdmissionStatus: models.ChoicePending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.choiceRepo.Create(ctx, choice); err != nil {
			return fmt.Errorf("failed to create choice: %w", err)
		}

		if app.Status == models.StatusNew {
			if err := s.applicationRepo.UpdateStatus(ctx, app.ID, models.StatusProgramSelected); err != nil {
				return fmt.Errorf("failed to advance application status: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.choiceRepo.GetByApplication(ctx, app.ID)
}

// ReorderChoice moves one choice to a new priority. When another choice
// already holds the target priority the two swap places; priorities never
// end up with gaps or duplicates.
func (s *choiceService) ReorderChoice(ctx context.Context, applicantID, applicationID, choiceID string, newPriority int) ([]models.ChoiceWithProgram, error) {
	app, err := s.ownedApplication(ctx, applicantID, applicationID)
	if err != nil {
		return nil, err
	}

	maxChoices, err := s.maxChoices(ctx, app)
	if err != nil {
		return nil, err
	}

	if newPriority < 1 || newPriority > maxChoices {
		return nil, NewValidationError(fmt.Sprintf("priority must be between 1 and %d", maxChoices))
	}

	choice, err := s.choiceRepo.GetByID(ctx, choiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get choice: %w", err)
	}
	if choice == nil || choice.ApplicationID != app.ID {
		return nil, notFound("choice")
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.choiceRepo.GetByApplication(ctx, app.ID)
		if err != nil {
			return fmt.Errorf("failed to get choices: %w", err)
		}

		for _, other := range existing {
			if other.ID != choice.ID && other.Priority == newPriority {
				if err := s.choiceRepo.UpdatePriority(ctx, other.ID, choice.Priority); err != nil {
					return fmt.Errorf("failed to swap priority: %w", err)
				}
				break
			}
		}

		if err := s.choiceRepo.UpdatePriority(ctx, choice.ID, newPriority); err != nil {
			return fmt.Errorf("failed to update priority: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.choiceRepo.GetByApplication(ctx, app.ID)
}

// DeleteChoice removes one choice and renumbers the remaining priorities to
// a dense 1..N sequence, preserving relative order.
func (s *choiceService) DeleteChoice(ctx context.Context, applicantID, applicationID, choiceID string) error {
	app, err := s.ownedApplication(ctx, applicantID, applicationID)
	if err != nil {
		return err
	}

	choice, err := s.choiceRepo.GetByID(ctx, choiceID)
	if err != nil {
		return fmt.Errorf("failed to get choice: %w", err)
	}
	if choice == nil || choice.ApplicationID != app.ID {
		return notFound("choice")
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.choiceRepo.Delete(ctx, choice.ID); err != nil {
			return fmt.Errorf("failed to delete choice: %w", err)
		}

		remaining, err := s.choiceRepo.GetByApplication(ctx, app.ID)
		if err != nil {
			return fmt.Errorf("failed to get remaining choices: %w", err)
		}

		for index, item := range remaining {
			want := index + 1
			if item.Priority != want {
				if err := s.choiceRepo.UpdatePriority(ctx, item.ID, want); err != nil {
					return fmt.Errorf("failed to renumber priority: %w", err)
				}
			}
		}

		return nil
	})
}

func (s *choiceService) DeleteAllChoices(ctx context.Context, applicantID, applicationID string) error {
	app, err := s.ownedApplication(ctx, applicantID, applicationID)
	if err != nil {
		return err
	}

	if err := s.choiceRepo.DeleteByApplication(ctx, app.ID); err != nil {
		return fmt.Errorf("failed to delete choices: %w", err)
	}

	return nil
}
