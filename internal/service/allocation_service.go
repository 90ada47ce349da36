package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gradapply/admission-service/internal/models"
	"github.com/gradapply/admission-service/internal/repository"
	"github.com/gradapply/admission-service/internal/service/allocation"
	"github.com/gradapply/admission-service/internal/service/integration"
)

// RoundLocker serializes allocation work per round via transaction-scoped
// advisory locks. Holders conflict instead of queueing.
type RoundLocker interface {
	TryLockRound(ctx context.Context, roundID string) (bool, error)
}

type AllocationService interface {
	Preview(ctx context.Context, actor *models.AdminPermission, roundID string, roundType models.RoundType) (*models.AllocationPreviewResponse, error)
	Run(ctx context.Context, actor *models.AdminPermission, roundID string, roundType models.RoundType) (*models.RunAllocationResponse, error)
	AcceptChoice(ctx context.Context, actor *models.AdminPermission, choiceID string) error
}

type allocationService struct {
	choiceRepo      repository.ChoiceRepository
	applicationRepo repository.ApplicationRepository
	programRepo     repository.ProgramRepository
	roundRepo       repository.RoundRepository
	tx              repository.Transactor
	locker          RoundLocker
	publisher       integration.EventPublisher
	logger          zerolog.Logger
}

func NewAllocationService(
	choiceRepo repository.ChoiceRepository,
	applicationRepo repository.ApplicationRepository,
	programRepo repository.ProgramRepository,
	roundRepo repository.RoundRepository,
	tx repository.Transactor,
	locker RoundLocker,
	publisher integration.EventPublisher,
	logger zerolog.Logger,
) AllocationService {
	return &allocationService{
		choiceRepo:      choiceRepo,
		applicationRepo: applicationRepo,
		programRepo:     programRepo,
		roundRepo:       roundRepo,
		tx:              tx,
		locker:          locker,
		publisher:       publisher,
		logger:          logger,
	}
}

// resolveRound picks the round to operate on: an explicit id wins, then the
// most recent active round of the requested type, then the most recent
// active round overall.
func (s *allocationService) resolveRound(ctx context.Context, roundID string, roundType models.RoundType) (*models.AdmissionRound, error) {
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

	if roundType != "" {
		if !models.IsValidRoundType(roundType.String()) {
			return nil, NewValidationError("unknown round type")
		}
		round, err := s.roundRepo.GetActiveByType(ctx, roundType)
		if err != nil {
			return nil, fmt.Errorf("failed to get active round by type: %w", err)
		}
		return round, nil
	}

	round, err := s.roundRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active round: %w", err)
	}
	return round, nil
}

func toCandidates(rows []repository.CandidateRow) []models.Candidate {
	candidates := make([]models.Candidate, len(rows))
	for i, row := range rows {
		candidate := models.Candidate{
			ApplicationID:   row.ApplicationID,
			ChoiceID:        row.ChoiceID,
			ChoicePriority:  row.Priority,
			ChoiceCreatedAt: row.ChoiceCreatedAt,
		}
		if row.TotalScore.Valid {
			candidate.TotalScore = row.TotalScore.Float64
		}
		if row.EducationScore.Valid {
			candidate.EducationScore = row.EducationScore.Float64
		}
		candidates[i] = candidate
	}
	return candidates
}

// Preview computes the ranked accepted/waiting partition for every program of
// the round without persisting anything. A missing active round yields an
// empty program list, not an error, so dashboards stay stable.
func (s *allocationService) Preview(ctx context.Context, actor *models.AdminPermission, roundID string, roundType models.RoundType) (*models.AllocationPreviewResponse, error) {
	if !actor.IsUniversityAdmin() && !actor.IsFacultyAdmin() {
		return nil, permissionDenied("admin access required")
	}

	round, err := s.resolveRound(ctx, roundID, roundType)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return &models.AllocationPreviewResponse{Programs: []models.ProgramPreview{}}, nil
	}

	caps := round.Type.Capabilities()
	programs, err := s.programRepo.GetActiveByRound(ctx, round.ID, caps.DegreeLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to get programs: %w", err)
	}

	previews := make([]models.ProgramPreview, 0, len(programs))
	for _, program := range programs {
		rows, err := s.choiceRepo.CandidatesByProgram(ctx, program.ID, models.AllocatableStatuses())
		if err != nil {
			return nil, fmt.Errorf("failed to get candidates for program %s: %w", program.ID, err)
		}

		rowsByChoice := make(map[string]repository.CandidateRow, len(rows))
		applicationIDs := make([]string, 0, len(rows))
		for _, row := range rows {
			rowsByChoice[row.ChoiceID] = row
			applicationIDs = append(applicationIDs, row.ApplicationID)
		}

		topChoices, err := s.choiceRepo.TopChoicesByApplications(ctx, applicationIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to get top choices: %w", err)
		}

		ranked := allocation.Rank(toCandidates(rows))
		result := allocation.Split(ranked, program.Capacity)

		preview := models.ProgramPreview{
			ProgramID:       program.ID,
			ProgramName:     program.Name,
			ProgramCode:     program.Code,
			Orientation:     program.Orientation,
			FacultyName:     program.FacultyName,
			DepartmentName:  program.DepartmentName,
			Capacity:        program.Capacity,
			PrelimAccepted:  make([]models.PreviewCandidate, 0, len(result.Accepted)),
			PrelimWaiting:   make([]models.PreviewCandidate, 0, len(result.Waiting)),
			CandidatesCount: len(ranked),
		}

		for _, candidate := range result.Accepted {
			preview.PrelimAccepted = append(preview.PrelimAccepted,
				previewCandidate(candidate, rowsByChoice[candidate.ChoiceID], topChoices))
		}
		for _, candidate := range result.Waiting {
			preview.PrelimWaiting = append(preview.PrelimWaiting,
				previewCandidate(candidate, rowsByChoice[candidate.ChoiceID], topChoices))
		}

		previews = append(previews, preview)
	}

	return &models.AllocationPreviewResponse{
		Round: &models.RoundSummary{
			ID:    round.ID,
			Title: round.Title,
			Year:  round.Year,
		},
		Programs: previews,
	}, nil
}

func previewCandidate(candidate models.Candidate, row repository.CandidateRow, topChoices map[string][]models.PreviewChoice) models.PreviewCandidate {
	top := topChoices[candidate.ApplicationID]
	if len(top) > 3 {
		top = top[:3]
	}

	return models.PreviewCandidate{
		ApplicationID:         candidate.ApplicationID,
		TrackingCode:          row.TrackingCode,
		Applicant:             row.Applicant,
		TotalScore:            candidate.TotalScore,
		EducationScore:        candidate.EducationScore,
		ChoicePriority:        candidate.ChoicePriority,
		ChoiceID:              candidate.ChoiceID,
		ChoiceAdmissionStatus: row.AdmissionStatus,
		TopThreeChoices:       top,
	}
}

// Run executes the final allocation for every active program of the round
// inside one transaction. Per program it re-ranks the candidates, wipes the
// previous results for that program only, and writes the new partition; a
// re-run with unchanged inputs reproduces the identical outcome. Any error
// rolls the whole run back. A concurrent run or manual acceptance holding
// the round makes this fail with a conflict instead of queueing behind it.
func (s *allocationService) Run(ctx context.Context, actor *models.AdminPermission, roundID string, roundType models.RoundType) (*models.RunAllocationResponse, error) {
	if !actor.CanRunAllocation() {
		return nil, permissionDenied("university admin access required")
	}

	round, err := s.resolveRound(ctx, roundID, roundType)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return &models.RunAllocationResponse{}, nil
	}

	caps := round.Type.Capabilities()
	programs, err := s.programRepo.GetActiveByRound(ctx, round.ID, caps.DegreeLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to get programs: %w", err)
	}

	summary := &models.RunAllocationResponse{}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.locker.TryLockRound(ctx, round.ID)
		if err != nil {
			return fmt.Errorf("failed to try round lock: %w", err)
		}
		if !locked {
			return conflict("another allocation operation is in progress for this round")
		}

		now := time.Now()
		for _, program := range programs {
			rows, err := s.choiceRepo.CandidatesByProgram(ctx, program.ID, models.AllocatableStatuses())
			if err != nil {
				return fmt.Errorf("failed to get candidates for program %s: %w", program.ID, err)
			}

			ranked := allocation.Rank(toCandidates(rows))

			// clean slate for this program before applying the new partition
			if err := s.choiceRepo.ResetProgramAllocation(ctx, program.ID); err != nil {
				return fmt.Errorf("failed to reset program %s: %w", program.ID, err)
			}

			result := allocation.Split(ranked, program.Capacity)

			for i, candidate := range result.Accepted {
				rank := allocation.RankOf(i)
				if err := s.choiceRepo.SetAllocationOutcome(ctx, candidate.ChoiceID, models.ChoiceAccepted, &rank); err != nil {
					return fmt.Errorf("failed to accept choice %s: %w", candidate.ChoiceID, err)
				}
				if err := s.applicationRepo.SetAdmissionOutcome(ctx, candidate.ApplicationID, models.OverallAdmitted, now); err != nil {
					return fmt.Errorf("failed to update application %s: %w", candidate.ApplicationID, err)
				}
				summary.AcceptedTotal++
			}

			for _, candidate := range result.Waiting {
				if err := s.choiceRepo.SetAllocationOutcome(ctx, candidate.ChoiceID, models.ChoiceWaiting, nil); err != nil {
					return fmt.Errorf("failed to waitlist choice %s: %w", candidate.ChoiceID, err)
				}
			}

			summary.ProgramsProcessed++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("round_id", round.ID).
		Int("programs_processed", summary.ProgramsProcessed).
		Int("accepted_total", summary.AcceptedTotal).
		Msg("Allocation run completed")

	if s.publisher != nil {
		event := &models.ResultsPublishedEvent{
			RoundID:           round.ID,
			ProgramsProcessed: summary.ProgramsProcessed,
			AcceptedTotal:     summary.AcceptedTotal,
			Timestamp:         time.Now().Unix(),
		}
		if err := s.publisher.PublishResultsPublished(ctx, event); err != nil {
			s.logger.Error().Err(err).Msg("Failed to publish allocation results event")
		}
	}

	return summary, nil
}

// AcceptChoice force-accepts one specific choice outside the batch run. The
// accepted choice keeps its own priority as the recorded result, every
// sibling choice is rejected, and the application is marked admitted. A
// batch run holding the round makes this fail with a conflict instead of
// interleaving.
func (s *allocationService) AcceptChoice(ctx context.Context, actor *models.AdminPermission, choiceID string) error {
	if !actor.CanRunAllocation() {
		return permissionDenied("university admin access required")
	}

	choice, err := s.choiceRepo.GetByID(ctx, choiceID)
	if err != nil {
		return fmt.Errorf("failed to get choice: %w", err)
	}
	if choice == nil {
		return notFound("choice")
	}

	program, err := s.programRepo.GetByID(ctx, choice.ProgramID)
	if err != nil {
		return fmt.Errorf("failed to get program: %w", err)
	}
	if program == nil {
		return notFound("program")
	}

	application, err := s.applicationRepo.GetByID(ctx, choice.ApplicationID)
	if err != nil {
		return fmt.Errorf("failed to get application: %w", err)
	}
	if application == nil {
		return notFound("application")
	}
	if !application.Status.IsAllocatable() {
		return conflict("application is not in an allocatable state")
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.locker.TryLockRound(ctx, program.RoundID)
		if err != nil {
			return fmt.Errorf("failed to try round lock: %w", err)
		}
		if !locked {
			return conflict("an allocation run is in progress for this round")
		}

		accepted, err := s.choiceRepo.AcceptedSibling(ctx, choice.ApplicationID, choice.ID)
		if err != nil {
			return fmt.Errorf("failed to check sibling choices: %w", err)
		}
		if accepted != nil {
			return conflict("the application already holds an accepted choice")
		}

		priorityResult := choice.Priority
		if err := s.choiceRepo.SetAllocationOutcome(ctx, choice.ID, models.ChoiceAccepted, &priorityResult); err != nil {
			return fmt.Errorf("failed to accept choice: %w", err)
		}

		if err := s.choiceRepo.RejectSiblings(ctx, choice.ApplicationID, choice.ID); err != nil {
			return fmt.Errorf("failed to reject sibling choices: %w", err)
		}

		if err := s.applicationRepo.SetAdmissionOutcome(ctx, choice.ApplicationID, models.OverallAdmitted, time.Now()); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("choice_id", choice.ID).
		Str("application_id", choice.ApplicationID).
		Str("accepted_by", actor.UserID).
		Msg("Choice manually accepted")

	if s.publisher != nil {
		event := &models.ChoiceAcceptedEvent{
			ChoiceID:      choice.ID,
			ApplicationID: choice.ApplicationID,
			ProgramID:     choice.ProgramID,
			AcceptedBy:    actor.UserID,
			Timestamp:     time.Now().Unix(),
		}
		if err := s.publisher.PublishChoiceAccepted(ctx, event); err != nil {
			s.logger.Error().Err(err).Msg("Failed to publish choice accepted event")
		}
	}

	return nil
}
