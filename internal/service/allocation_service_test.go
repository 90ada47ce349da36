package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradapply/admission-service/internal/models"
)

var (
	universityAdmin = &models.AdminPermission{UserID: "admin-1", Role: models.RoleUniversityAdmin}
	facultyAdmin    = &models.AdminPermission{UserID: "admin-2", Role: models.RoleFacultyAdmin}
)

type allocationFixture struct {
	service    AllocationService
	choiceRepo *fakeChoiceRepo
	appRepo    *fakeApplicationRepo
	roundRepo  *fakeRoundRepo
	locker     *fakeLocker
	publisher  *fakePublisher
}

func newAllocationFixture(t *testing.T) *allocationFixture {
	t.Helper()

	round := &models.AdmissionRound{
		ID:       "round-1",
		Title:    "MA Talent 2026",
		Year:     2026,
		Type:     models.RoundMATalent,
		IsActive: true,
	}
	programs := []*models.Program{
		{ID: "prog-a", RoundID: round.ID, DegreeLevel: models.DegreeMA, Name: "Software Engineering", Capacity: 2, IsActive: true},
		{ID: "prog-b", RoundID: round.ID, DegreeLevel: models.DegreeMA, Name: "Data Science", Capacity: 1, IsActive: true},
	}

	roundRepo := newFakeRoundRepo(round)
	programRepo := newFakeProgramRepo(programs...)
	applicantRepo := newFakeApplicantRepo(
		&models.Applicant{ID: "user-1", FirstName: "Sara", LastName: "Ahmadi", FatherName: "Reza", Gender: "FEMALE"},
		&models.Applicant{ID: "user-2", FirstName: "Omid", LastName: "Karimi", FatherName: "Ali", Gender: "MALE"},
		&models.Applicant{ID: "user-3", FirstName: "Nima", LastName: "Rahimi", FatherName: "Hassan", Gender: "MALE"},
	)
	appRepo := newFakeApplicationRepo()
	choiceRepo := newFakeChoiceRepo(appRepo, programRepo, applicantRepo)
	locker := &fakeLocker{}
	publisher := &fakePublisher{}

	svc := NewAllocationService(choiceRepo, appRepo, programRepo, roundRepo, fakeTx{}, locker, publisher, zerolog.Nop())

	return &allocationFixture{
		service:    svc,
		choiceRepo: choiceRepo,
		appRepo:    appRepo,
		roundRepo:  roundRepo,
		locker:     locker,
		publisher:  publisher,
	}
}

func (f *allocationFixture) addApplication(id, applicantID string, totalScore float64) {
	score := totalScore
	f.appRepo.applications[id] = &models.Application{
		ID:           id,
		ApplicantID:  applicantID,
		RoundID:      "round-1",
		TrackingCode: "TRK" + id,
		Status:       models.StatusSubmitted,
		TotalScore:   &score,
	}
}

func (f *allocationFixture) addChoice(id, applicationID, programID string, priority int, createdAt time.Time) {
	f.choiceRepo.choices[id] = &models.ApplicationChoice{
		ID:              id,
		ApplicationID:   applicationID,
		ProgramID:       programID,
		Priority:        priority,
		AdmissionStatus: models.ChoicePending,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

func TestRunAcceptsByScoreThenPriority(t *testing.T) {
	f := newAllocationFixture(t)
	now := time.Now()

	// three candidates for a capacity-2 program: 90 beats the tied 85s,
	// and between the 85s the first-choice candidate wins
	f.addApplication("app-1", "user-1", 90)
	f.addApplication("app-2", "user-2", 85)
	f.addApplication("app-3", "user-3", 85)
	f.addChoice("ch-1", "app-1", "prog-a", 1, now)
	f.addChoice("ch-2", "app-2", "prog-a", 1, now)
	f.addChoice("ch-3", "app-3", "prog-a", 2, now)

	result, err := f.service.Run(context.Background(), universityAdmin, "round-1", "")
	require.NoError(t, err)

	assert.Equal(t, 2, result.ProgramsProcessed)
	assert.Equal(t, 2, result.AcceptedTotal)

	first := f.choiceRepo.choices["ch-1"]
	assert.Equal(t, models.ChoiceAccepted, first.AdmissionStatus)
	require.NotNil(t, first.AdmissionPriorityResult)
	assert.Equal(t, 1, *first.AdmissionPriorityResult)

	second := f.choiceRepo.choices["ch-2"]
	assert.Equal(t, models.ChoiceAccepted, second.AdmissionStatus)
	require.NotNil(t, second.AdmissionPriorityResult)
	assert.Equal(t, 2, *second.AdmissionPriorityResult)

	third := f.choiceRepo.choices["ch-3"]
	assert.Equal(t, models.ChoiceWaiting, third.AdmissionStatus)
	assert.Nil(t, third.AdmissionPriorityResult)
}

func TestRunMarksAcceptedApplicationsAdmitted(t *testing.T) {
	f := newAllocationFixture(t)
	now := time.Now()

	f.addApplication("app-1", "user-1", 75)
	f.addChoice("ch-1", "app-1", "prog-b", 1, now)

	_, err := f.service.Run(context.Background(), universityAdmin, "round-1", "")
	require.NoError(t, err)

	app := f.appRepo.applications["app-1"]
	assert.Equal(t, models.OverallAdmitted, app.AdmissionOverallStatus)
	assert.NotNil(t, app.AdmissionResultPublishedAt)
}

func TestRunIsIdempotent(t *testing.T) {
	f := newAllocationFixture(t)
	now := time.Now()

	f.addApplication("app-1", "user-1", 90)
	f.addApplication("app-2", "user-2", 85)
	f.addApplication("app-3", "user-3", 80)
	f.addChoice("ch-1", "app-1", "prog-a", 1, now)
	f.addChoice("ch-2", "app-2", "prog-a", 1, now)
	f.addChoice("ch-3", "app-3", "prog-a", 1, now)

	ctx := context.Background()
	first, err := f.service.Run(ctx, universityAdmin, "round-1", "")
	require.NoError(t, err)

	snapshot := make(map[string]models.ChoiceAdmissionStatus)
	for id, choice := range f.choiceRepo.choices {
		snapshot[id] = choice.AdmissionStatus
	}

	second, err := f.service.Run(ctx, universityAdmin, "round-1", "")
	require.NoError(t, err)

	assert.Equal(t, first.AcceptedTotal, second.AcceptedTotal)
	for id, choice := range f.choiceRepo.choices {
		assert.Equal(t, snapshot[id], choice.AdmissionStatus, "choice %s changed between runs", id)
	}
}

func TestRunResetScopedToProgram(t *testing.T) {
	f := newAllocationFixture(t)
	now := time.Now()

	f.addApplication("app-1", "user-1", 90)
	f.addChoice("ch-a", "app-1", "prog-a", 1, now)
	f.addChoice("ch-b", "app-1", "prog-b", 2, now)

	// a stale result on the program-b choice must be recomputed, not leak
	f.choiceRepo.choices["ch-b"].AdmissionStatus = models.ChoiceRejected

	_, err := f.service.Run(context.Background(), universityAdmin, "round-1", "")
	require.NoError(t, err)

	assert.Equal(t, models.ChoiceAccepted, f.choiceRepo.choices["ch-a"].AdmissionStatus)
	assert.Equal(t, models.ChoiceAccepted, f.choiceRepo.choices["ch-b"].AdmissionStatus)
}

func TestRunSkipsNonAllocatableApplications(t *testing.T) {
	f := newAllocationFixture(t)
	now := time.Now()

	f.addApplication("app-1", "user-1", 95)
	f.appRepo.applications["app-1"].Status = models.StatusRejectedByUniversity
	f.addChoice("ch-1", "app-1", "prog-b", 1, now)

	result, err := f.service.Run(context.Background(), universityAdmin, "round-1", "")
	require.NoError(t, err)

	assert.Equal(t, 0, result.AcceptedTotal)
	assert.Equal(t, models.ChoicePending, f.choiceRepo.choices["ch-1"].AdmissionStatus)
}

func TestRunRequiresUniversityAdmin(t *testing.T) {
	f := newAllocationFixture(t)

	_, err := f.service.Run(context.Background(), facultyAdmin, "round-1", "")

	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestRunUnknownRound(t *testing.T) {
	f := newAllocationFixture(t)

	result, err := f.service.Run(context.Background(), universityAdmin, "unknown-round", "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, result)
}

func TestRunWithoutActiveRound(t *testing.T) {
	f := newAllocationFixture(t)
	for _, round := range f.roundRepo.rounds {
		round.IsActive = false
	}

	result, err := f.service.Run(context.Background(), universityAdmin, "", "")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ProgramsProcessed)
	assert.Equal(t, 0, result.AcceptedTotal)
}

func TestRunResolvesRoundByType(t *testing.T) {
	f := newAllocationFixture(t)
	now := time.Now()

	f.roundRepo.rounds["round-2"] = &models.AdmissionRound{
		ID:       "round-2",
		Title:    "PhD Exam 2026",
		Year:     2026,
		Type:     models.RoundPhDExam,
		IsActive: true,
	}
	f.addApplication("app-1", "user-1", 80)
	f.addChoice("ch-1", "app-1", "prog-a", 1, now)

	// the PhD round has no programs, so a typed run must not touch the MA one
	result, err := f.service.Run(context.Background(), universityAdmin, "", models.RoundPhDExam)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ProgramsProcessed)
	assert.Equal(t, models.ChoicePending, f.choiceRepo.choices["ch-1"].AdmissionStatus)

	result, err = f.service.Run(context.Background(), universityAdmin, "", models.RoundMATalent)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ProgramsProcessed)
	assert.Equal(t, models.ChoiceAccepted, f.choiceRepo.choices["ch-1"].AdmissionStatus)
}

func TestRunRejectsUnknownRoundType(t *testing.T) {
	f := newAllocationFixture(t)

	_, err := f.service.Run(context.Background(), universityAdmin, "", "BACHELOR_EXAM")

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestRunConflictsWhileRoundHeld(t *testing.T) {
	f := newAllocationFixture(t)
	now := time.Now()

	f.addApplication("app-1", "user-1", 80)
	f.addChoice("ch-1", "app-1", "prog-a", 1, now)
	f.locker.held = true

	_, err := f.service.Run(context.Background(), universityAdmin, "round-1", "")

	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, models.ChoicePending, f.choiceRepo.choices["ch-1"].AdmissionStatus)
}

func TestRunPublishesResultsEvent(t *testing.T) {
	f := newAllocationFixture(t)
	now := time.Now()

	f.addApplication("app-1", "user-1", 80)
	f.addChoice("ch-1", "app-1", "prog-b", 1, now)

	_, err := f.service.Run(context.Background(), universityAdmin, "round-1", "")
	require.NoError(t, err)

	require.Len(t, f.publisher.resultsEvents, 1)
	assert.Equal(t, "round-1", f.publisher.resultsEvents[0].RoundID)
}

func TestAcceptChoiceRejectsSiblings(t *testing.T) {
	f := newAllocationFixture(t)
	now := time.Now()

	f.addApplication("app-1", "user-1", 70)
	f.addChoice("ch-1", "app-1", "prog-a", 1, now)
	f.addChoice("ch-2", "app-1", "prog-b", 2, now)

	err := f.service.AcceptChoice(context.Background(), universityAdmin, "ch-2")
	require.NoError(t, err)

	accepted := f.choiceRepo.choices["ch-2"]
	assert.Equal(t, models.ChoiceAccepted, accepted.AdmissionStatus)
	require.NotNil(t, accepted.AdmissionPriorityResult)
	assert.Equal(t, 2, *accepted.AdmissionPriorityResult)

	rejected := f.choiceRepo.choices["ch-1"]
	assert.Equal(t, models.ChoiceRejected, rejected.AdmissionStatus)

	app := f.appRepo.applications["app-1"]
	assert.Equal(t, models.OverallAdmitted, app.AdmissionOverallStatus)

	require.Len(t, f.publisher.choiceEvents, 1)
	assert.Equal(t, "ch-2", f.publisher.choiceEvents[0].ChoiceID)
}

func TestAcceptChoiceConflictsWithRunningAllocation(t *testing.T) {
	f := newAllocationFixture(t)
	now := time.Now()

	f.addApplication("app-1", "user-1", 70)
	f.addChoice("ch-1", "app-1", "prog-a", 1, now)
	f.locker.held = true

	err := f.service.AcceptChoice(context.Background(), universityAdmin, "ch-1")

	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, models.ChoicePending, f.choiceRepo.choices["ch-1"].AdmissionStatus)
}

func TestAcceptChoiceConflictsWithAcceptedSibling(t *testing.T) {
	f := newAllocationFixture(t)
	now := time.Now()

	f.addApplication("app-1", "user-1", 70)
	f.addChoice("ch-1", "app-1", "prog-a", 1, now)
	f.addChoice("ch-2", "app-1", "prog-b", 2, now)

	require.NoError(t, f.service.AcceptChoice(context.Background(), universityAdmin, "ch-1"))

	err := f.service.AcceptChoice(context.Background(), universityAdmin, "ch-2")

	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, models.ChoiceAccepted, f.choiceRepo.choices["ch-1"].AdmissionStatus)
	assert.Equal(t, models.ChoiceRejected, f.choiceRepo.choices["ch-2"].AdmissionStatus)
}

func TestAcceptChoiceRequiresAllocatableApplication(t *testing.T) {
	f := newAllocationFixture(t)
	now := time.Now()

	f.addApplication("app-1", "user-1", 70)
	f.appRepo.applications["app-1"].Status = models.StatusRejectedByUniversity
	f.addChoice("ch-1", "app-1", "prog-a", 1, now)

	err := f.service.AcceptChoice(context.Background(), universityAdmin, "ch-1")

	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, models.ChoicePending, f.choiceRepo.choices["ch-1"].AdmissionStatus)
}

func TestAcceptChoiceRequiresUniversityAdmin(t *testing.T) {
	f := newAllocationFixture(t)

	err := f.service.AcceptChoice(context.Background(), facultyAdmin, "ch-1")

	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAcceptUnknownChoice(t *testing.T) {
	f := newAllocationFixture(t)

	err := f.service.AcceptChoice(context.Background(), universityAdmin, "no-such-choice")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPreviewDoesNotPersist(t *testing.T) {
	f := newAllocationFixture(t)
	now := time.Now()

	f.addApplication("app-1", "user-1", 90)
	f.addApplication("app-2", "user-2", 60)
	f.addChoice("ch-1", "app-1", "prog-b", 1, now)
	f.addChoice("ch-2", "app-2", "prog-b", 1, now)

	preview, err := f.service.Preview(context.Background(), universityAdmin, "round-1", "")
	require.NoError(t, err)

	require.NotNil(t, preview.Round)
	require.Len(t, preview.Programs, 2)

	var programB *models.ProgramPreview
	for i := range preview.Programs {
		if preview.Programs[i].ProgramID == "prog-b" {
			programB = &preview.Programs[i]
		}
	}
	require.NotNil(t, programB)
	require.Len(t, programB.PrelimAccepted, 1)
	require.Len(t, programB.PrelimWaiting, 1)
	assert.Equal(t, "app-1", programB.PrelimAccepted[0].ApplicationID)
	assert.Equal(t, "app-2", programB.PrelimWaiting[0].ApplicationID)

	// nothing written
	assert.Equal(t, models.ChoicePending, f.choiceRepo.choices["ch-1"].AdmissionStatus)
	assert.Equal(t, models.ChoicePending, f.choiceRepo.choices["ch-2"].AdmissionStatus)
	assert.Empty(t, f.publisher.resultsEvents)
}

func TestPreviewAllowedForFacultyAdmin(t *testing.T) {
	f := newAllocationFixture(t)

	preview, err := f.service.Preview(context.Background(), facultyAdmin, "round-1", "")
	require.NoError(t, err)
	assert.NotNil(t, preview)
}

func TestPreviewWithoutAdminPermission(t *testing.T) {
	f := newAllocationFixture(t)

	_, err := f.service.Preview(context.Background(), &models.AdminPermission{UserID: "u", Role: "VIEWER"}, "round-1", "")

	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestRunUsesEducationScoreAsTieBreak(t *testing.T) {
	f := newAllocationFixture(t)
	now := time.Now()

	f.addApplication("app-1", "user-1", 85)
	f.addApplication("app-2", "user-2", 85)
	f.choiceRepo.eduScores["app-2"] = 18
	f.choiceRepo.eduScores["app-1"] = 12
	f.addChoice("ch-1", "app-1", "prog-b", 1, now)
	f.addChoice("ch-2", "app-2", "prog-b", 1, now)

	_, err := f.service.Run(context.Background(), universityAdmin, "round-1", "")
	require.NoError(t, err)

	assert.Equal(t, models.ChoiceAccepted, f.choiceRepo.choices["ch-2"].AdmissionStatus)
	assert.Equal(t, models.ChoiceWaiting, f.choiceRepo.choices["ch-1"].AdmissionStatus)
}
