package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/gradapply/admission-service/internal/models"
	"github.com/gradapply/admission-service/internal/repository"
)

// In-memory doubles for the repository layer. WithinTx runs the function
// directly; fakes listed in rollback have their state restored when the
// function fails, mirroring a transaction rollback.

type restorable interface {
	snapshot() interface{}
	restore(interface{})
}

type fakeTx struct {
	rollback []restorable
}

func (t fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshots := make([]interface{}, len(t.rollback))
	for i, repo := range t.rollback {
		snapshots[i] = repo.snapshot()
	}
	if err := fn(ctx); err != nil {
		for i, repo := range t.rollback {
			repo.restore(snapshots[i])
		}
		return err
	}
	return nil
}

type fakeLocker struct {
	held bool
}

func (l *fakeLocker) TryLockRound(ctx context.Context, roundID string) (bool, error) {
	return !l.held, nil
}

type fakePublisher struct {
	resultsEvents []*models.ResultsPublishedEvent
	choiceEvents  []*models.ChoiceAcceptedEvent
}

func (p *fakePublisher) PublishResultsPublished(ctx context.Context, event *models.ResultsPublishedEvent) error {
	p.resultsEvents = append(p.resultsEvents, event)
	return nil
}

func (p *fakePublisher) PublishChoiceAccepted(ctx context.Context, event *models.ChoiceAcceptedEvent) error {
	p.choiceEvents = append(p.choiceEvents, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeFileClient struct {
	deleted []string
	missing map[string]bool
}

func (c *fakeFileClient) FileExists(ctx context.Context, fileID string) (bool, error) {
	return !c.missing[fileID], nil
}

func (c *fakeFileClient) DeleteFile(ctx context.Context, fileID string) error {
	c.deleted = append(c.deleted, fileID)
	return nil
}

type fakeRoundRepo struct {
	rounds map[string]*models.AdmissionRound
}

func newFakeRoundRepo(rounds ...*models.AdmissionRound) *fakeRoundRepo {
	repo := &fakeRoundRepo{rounds: make(map[string]*models.AdmissionRound)}
	for _, round := range rounds {
		repo.rounds[round.ID] = round
	}
	return repo
}

func (r *fakeRoundRepo) GetByID(ctx context.Context, id string) (*models.AdmissionRound, error) {
	return r.rounds[id], nil
}

func (r *fakeRoundRepo) GetActiveByType(ctx context.Context, roundType models.RoundType) (*models.AdmissionRound, error) {
	for _, round := range r.rounds {
		if round.Type == roundType && round.IsActive {
			return round, nil
		}
	}
	return nil, nil
}

func (r *fakeRoundRepo) GetActive(ctx context.Context) (*models.AdmissionRound, error) {
	for _, round := range r.rounds {
		if round.IsActive {
			return round, nil
		}
	}
	return nil, nil
}

type fakeProgramRepo struct {
	programs map[string]*models.Program
}

func newFakeProgramRepo(programs ...*models.Program) *fakeProgramRepo {
	repo := &fakeProgramRepo{programs: make(map[string]*models.Program)}
	for _, program := range programs {
		repo.programs[program.ID] = program
	}
	return repo
}

func (r *fakeProgramRepo) GetByID(ctx context.Context, id string) (*models.Program, error) {
	return r.programs[id], nil
}

func (r *fakeProgramRepo) GetActiveByRound(ctx context.Context, roundID string, degreeLevel models.DegreeLevel) ([]models.ProgramWithDetails, error) {
	var result []models.ProgramWithDetails
	for _, program := range r.programs {
		if program.RoundID == roundID && program.DegreeLevel == degreeLevel && program.IsActive {
			result = append(result, models.ProgramWithDetails{Program: *program})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type fakeApplicantRepo struct {
	applicants map[string]*models.Applicant
}

func newFakeApplicantRepo(applicants ...*models.Applicant) *fakeApplicantRepo {
	repo := &fakeApplicantRepo{applicants: make(map[string]*models.Applicant)}
	for _, applicant := range applicants {
		repo.applicants[applicant.ID] = applicant
	}
	return repo
}

func (r *fakeApplicantRepo) GetByID(ctx context.Context, id string) (*models.Applicant, error) {
	return r.applicants[id], nil
}

func (r *fakeApplicantRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := r.applicants[id]
	return ok, nil
}

type fakeApplicationRepo struct {
	applications map[string]*models.Application
}

func newFakeApplicationRepo(applications ...*models.Application) *fakeApplicationRepo {
	repo := &fakeApplicationRepo{applications: make(map[string]*models.Application)}
	for _, app := range applications {
		copied := *app
		repo.applications[app.ID] = &copied
	}
	return repo
}

func (r *fakeApplicationRepo) Create(ctx context.Context, application *models.Application) error {
	copied := *application
	r.applications[application.ID] = &copied
	return nil
}

func (r *fakeApplicationRepo) GetByID(ctx context.Context, id string) (*models.Application, error) {
	app, ok := r.applications[id]
	if !ok {
		return nil, nil
	}
	copied := *app
	return &copied, nil
}

func (r *fakeApplicationRepo) GetByApplicantAndRound(ctx context.Context, applicantID, roundID string) (*models.Application, error) {
	for _, app := range r.applications {
		if app.ApplicantID == applicantID && app.RoundID == roundID {
			copied := *app
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeApplicationRepo) GetByApplicant(ctx context.Context, applicantID string) ([]models.Application, error) {
	var result []models.Application
	for _, app := range r.applications {
		if app.ApplicantID == applicantID {
			result = append(result, *app)
		}
	}
	return result, nil
}

func (r *fakeApplicationRepo) ListByRound(ctx context.Context, roundID string, status models.ApplicationStatus, limit, offset int) ([]models.Application, int, error) {
	var matched []models.Application
	for _, app := range r.applications {
		if app.RoundID == roundID && (status == "" || app.Status == status) {
			matched = append(matched, *app)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (r *fakeApplicationRepo) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	if app, ok := r.applications[id]; ok {
		app.Status = status
	}
	return nil
}

func (r *fakeApplicationRepo) MarkSubmitted(ctx context.Context, id string, submittedAt time.Time) error {
	if app, ok := r.applications[id]; ok {
		app.Status = models.StatusSubmitted
		app.SubmittedAt = &submittedAt
	}
	return nil
}

func (r *fakeApplicationRepo) SetUniversityReview(ctx context.Context, id string, status models.UniversityReviewStatus, comment, reviewedBy string, reviewedAt time.Time, newAppStatus models.ApplicationStatus) error {
	if app, ok := r.applications[id]; ok {
		app.UniversityReviewStatus = status
		app.UniversityReviewComment = comment
		app.UniversityReviewedBy = &reviewedBy
		app.UniversityReviewedAt = &reviewedAt
		app.Status = newAppStatus
	}
	return nil
}

func (r *fakeApplicationRepo) SetFacultyReview(ctx context.Context, id string, completed bool, comment, reviewedBy string, reviewedAt time.Time, newAppStatus models.ApplicationStatus) error {
	if app, ok := r.applications[id]; ok {
		app.FacultyReviewCompleted = completed
		app.FacultyReviewComment = comment
		app.FacultyReviewedBy = &reviewedBy
		app.FacultyReviewedAt = &reviewedAt
		app.Status = newAppStatus
	}
	return nil
}

func (r *fakeApplicationRepo) SetAdmissionOutcome(ctx context.Context, id string, status models.AdmissionOverallStatus, publishedAt time.Time) error {
	if app, ok := r.applications[id]; ok {
		app.AdmissionOverallStatus = status
		app.AdmissionResultPublishedAt = &publishedAt
	}
	return nil
}

func (r *fakeApplicationRepo) SetTotalScore(ctx context.Context, id string, totalScore float64) error {
	if app, ok := r.applications[id]; ok {
		app.TotalScore = &totalScore
	}
	return nil
}

func (r *fakeApplicationRepo) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	for _, app := range r.applications {
		if app.TrackingCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeApplicationRepo) CountByStatus(ctx context.Context, roundID string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, app := range r.applications {
		if app.RoundID == roundID {
			counts[app.Status.String()]++
		}
	}
	return counts, nil
}

func (r *fakeApplicationRepo) CountByOverallStatus(ctx context.Context, roundID string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, app := range r.applications {
		if app.RoundID == roundID && app.AdmissionOverallStatus != "" {
			counts[string(app.AdmissionOverallStatus)]++
		}
	}
	return counts, nil
}

// fakeChoiceRepo joins against the application and program fakes the same way
// the SQL repository joins tables.
type fakeChoiceRepo struct {
	choices    map[string]*models.ApplicationChoice
	apps       *fakeApplicationRepo
	programs   *fakeProgramRepo
	applicants *fakeApplicantRepo
	eduScores  map[string]float64
}

func newFakeChoiceRepo(apps *fakeApplicationRepo, programs *fakeProgramRepo, applicants *fakeApplicantRepo) *fakeChoiceRepo {
	return &fakeChoiceRepo{
		choices:    make(map[string]*models.ApplicationChoice),
		apps:       apps,
		programs:   programs,
		applicants: applicants,
		eduScores:  make(map[string]float64),
	}
}

func (r *fakeChoiceRepo) snapshot() interface{} {
	copied := make(map[string]*models.ApplicationChoice, len(r.choices))
	for id, choice := range r.choices {
		c := *choice
		copied[id] = &c
	}
	return copied
}

func (r *fakeChoiceRepo) restore(snap interface{}) {
	r.choices = snap.(map[string]*models.ApplicationChoice)
}

func (r *fakeChoiceRepo) Create(ctx context.Context, choice *models.ApplicationChoice) error {
	copied := *choice
	r.choices[choice.ID] = &copied
	return nil
}

func (r *fakeChoiceRepo) GetByID(ctx context.Context, id string) (*models.ApplicationChoice, error) {
	choice, ok := r.choices[id]
	if !ok {
		return nil, nil
	}
	copied := *choice
	return &copied, nil
}

func (r *fakeChoiceRepo) byApplication(applicationID string) []*models.ApplicationChoice {
	var result []*models.ApplicationChoice
	for _, choice := range r.choices {
		if choice.ApplicationID == applicationID {
			result = append(result, choice)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Priority < result[j].Priority })
	return result
}

func (r *fakeChoiceRepo) GetByApplication(ctx context.Context, applicationID string) ([]models.ChoiceWithProgram, error) {
	var result []models.ChoiceWithProgram
	for _, choice := range r.byApplication(applicationID) {
		item := models.ChoiceWithProgram{ApplicationChoice: *choice}
		if program, ok := r.programs.programs[choice.ProgramID]; ok {
			item.ProgramName = program.Name
			item.ProgramOrientation = program.Orientation
		}
		result = append(result, item)
	}
	return result, nil
}

func (r *fakeChoiceRepo) CountByApplication(ctx context.Context, applicationID string) (int, error) {
	return len(r.byApplication(applicationID)), nil
}

func (r *fakeChoiceRepo) DeleteByApplication(ctx context.Context, applicationID string) error {
	for id, choice := range r.choices {
		if choice.ApplicationID == applicationID {
			delete(r.choices, id)
		}
	}
	return nil
}

func (r *fakeChoiceRepo) Delete(ctx context.Context, id string) error {
	delete(r.choices, id)
	return nil
}

func (r *fakeChoiceRepo) UpdatePriority(ctx context.Context, id string, priority int) error {
	if choice, ok := r.choices[id]; ok {
		choice.Priority = priority
	}
	return nil
}

func (r *fakeChoiceRepo) CandidatesByProgram(ctx context.Context, programID string, statuses []models.ApplicationStatus) ([]repository.CandidateRow, error) {
	allowed := make(map[models.ApplicationStatus]bool, len(statuses))
	for _, status := range statuses {
		allowed[status] = true
	}

	var rows []repository.CandidateRow
	for _, choice := range r.choices {
		if choice.ProgramID != programID {
			continue
		}
		app, ok := r.apps.applications[choice.ApplicationID]
		if !ok || !allowed[app.Status] {
			continue
		}

		row := repository.CandidateRow{
			ChoiceID:        choice.ID,
			ChoiceCreatedAt: choice.CreatedAt,
			Priority:        choice.Priority,
			AdmissionStatus: choice.AdmissionStatus,
			ApplicationID:   app.ID,
			TrackingCode:    app.TrackingCode,
		}
		if app.TotalScore != nil {
			row.TotalScore = sql.NullFloat64{Float64: *app.TotalScore, Valid: true}
		}
		if score, ok := r.eduScores[app.ID]; ok {
			row.EducationScore = sql.NullFloat64{Float64: score, Valid: true}
		}
		if applicant, ok := r.applicants.applicants[app.ApplicantID]; ok {
			row.Applicant = *applicant
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ChoiceID < rows[j].ChoiceID })
	return rows, nil
}

func (r *fakeChoiceRepo) TopChoicesByApplications(ctx context.Context, applicationIDs []string) (map[string][]models.PreviewChoice, error) {
	result := make(map[string][]models.PreviewChoice)
	for _, applicationID := range applicationIDs {
		for _, choice := range r.byApplication(applicationID) {
			preview := models.PreviewChoice{Priority: choice.Priority}
			if program, ok := r.programs.programs[choice.ProgramID]; ok {
				preview.ProgramName = program.Name
				preview.Orientation = program.Orientation
			}
			result[applicationID] = append(result[applicationID], preview)
		}
	}
	return result, nil
}

func (r *fakeChoiceRepo) ResetProgramAllocation(ctx context.Context, programID string) error {
	for _, choice := range r.choices {
		if choice.ProgramID == programID {
			choice.AdmissionStatus = models.ChoicePending
			choice.AdmissionPriorityResult = nil
		}
	}
	return nil
}

func (r *fakeChoiceRepo) SetAllocationOutcome(ctx context.Context, choiceID string, status models.ChoiceAdmissionStatus, priorityResult *int) error {
	if choice, ok := r.choices[choiceID]; ok {
		choice.AdmissionStatus = status
		choice.AdmissionPriorityResult = priorityResult
	}
	return nil
}

func (r *fakeChoiceRepo) RejectSiblings(ctx context.Context, applicationID, exceptChoiceID string) error {
	for _, choice := range r.choices {
		if choice.ApplicationID == applicationID && choice.ID != exceptChoiceID {
			choice.AdmissionStatus = models.ChoiceRejected
			choice.AdmissionPriorityResult = nil
		}
	}
	return nil
}

func (r *fakeChoiceRepo) AcceptedSibling(ctx context.Context, applicationID, exceptChoiceID string) (*models.ApplicationChoice, error) {
	for _, choice := range r.choices {
		if choice.ApplicationID == applicationID && choice.ID != exceptChoiceID &&
			choice.AdmissionStatus == models.ChoiceAccepted {
			copied := *choice
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeEducationRepo struct {
	records  map[string]*models.EducationRecord
	scorings map[string]*models.EducationScoring
}

func newFakeEducationRepo() *fakeEducationRepo {
	return &fakeEducationRepo{
		records:  make(map[string]*models.EducationRecord),
		scorings: make(map[string]*models.EducationScoring),
	}
}

func (r *fakeEducationRepo) CreateRecord(ctx context.Context, record *models.EducationRecord) error {
	copied := *record
	r.records[record.ID] = &copied
	return nil
}

func (r *fakeEducationRepo) RecordsByApplication(ctx context.Context, applicationID string) ([]models.EducationRecord, error) {
	var result []models.EducationRecord
	for _, record := range r.records {
		if record.ApplicationID == applicationID {
			result = append(result, *record)
		}
	}
	return result, nil
}

func (r *fakeEducationRepo) RecordByDegreeLevel(ctx context.Context, applicationID string, level models.EducationDegreeLevel) (*models.EducationRecord, error) {
	for _, record := range r.records {
		if record.ApplicationID == applicationID && record.DegreeLevel == level {
			copied := *record
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeEducationRepo) UpsertScoring(ctx context.Context, scoring *models.EducationScoring) error {
	copied := *scoring
	r.scorings[scoring.ApplicationID] = &copied
	return nil
}

func (r *fakeEducationRepo) ScoringByApplication(ctx context.Context, applicationID string) (*models.EducationScoring, error) {
	scoring, ok := r.scorings[applicationID]
	if !ok {
		return nil, nil
	}
	copied := *scoring
	return &copied, nil
}

type fakeDocumentRepo struct {
	documents map[string]*models.Document
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{documents: make(map[string]*models.Document)}
}

func (r *fakeDocumentRepo) Create(ctx context.Context, document *models.Document) error {
	copied := *document
	r.documents[document.ID] = &copied
	return nil
}

func (r *fakeDocumentRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	document, ok := r.documents[id]
	if !ok {
		return nil, nil
	}
	copied := *document
	return &copied, nil
}

func (r *fakeDocumentRepo) ByApplication(ctx context.Context, applicationID string) ([]models.Document, error) {
	var result []models.Document
	for _, document := range r.documents {
		if document.ApplicationID == applicationID {
			result = append(result, *document)
		}
	}
	return result, nil
}

func (r *fakeDocumentRepo) CountByTypes(ctx context.Context, applicationID string, types []models.DocumentType) (int, error) {
	seen := make(map[models.DocumentType]bool)
	for _, document := range r.documents {
		if document.ApplicationID != applicationID {
			continue
		}
		for _, docType := range types {
			if document.Type == docType {
				seen[docType] = true
			}
		}
	}
	return len(seen), nil
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, id string) error {
	delete(r.documents, id)
	return nil
}

type fakeAdminRepo struct {
	permissions map[string]*models.AdminPermission
}

func newFakeAdminRepo(permissions ...*models.AdminPermission) *fakeAdminRepo {
	repo := &fakeAdminRepo{permissions: make(map[string]*models.AdminPermission)}
	for _, permission := range permissions {
		repo.permissions[permission.UserID] = permission
	}
	return repo
}

func (r *fakeAdminRepo) PermissionByUserID(ctx context.Context, userID string) (*models.AdminPermission, error) {
	return r.permissions[userID], nil
}
