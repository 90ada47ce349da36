package models

import (
	"time"
)

type ApplicationStatus string

const (
	StatusNew                    ApplicationStatus = "NEW"
	StatusProgramSelected        ApplicationStatus = "PROGRAM_SELECTED"
	StatusPersonalInfoCompleted  ApplicationStatus = "PERSONAL_INFO_COMPLETED"
	StatusIdentityDocsUploaded   ApplicationStatus = "IDENTITY_DOCS_UPLOADED"
	StatusEduInfoCompleted       ApplicationStatus = "EDU_INFO_COMPLETED"
	StatusEduDocsUploaded        ApplicationStatus = "EDU_DOCS_UPLOADED"
	StatusSubmitted              ApplicationStatus = "SUBMITTED"
	StatusUnderUniversityReview  ApplicationStatus = "UNDER_UNIVERSITY_REVIEW"
	StatusApprovedByUniversity   ApplicationStatus = "APPROVED_BY_UNIVERSITY"
	StatusRejectedByUniversity   ApplicationStatus = "REJECTED_BY_UNIVERSITY"
	StatusReturnedForCorrection  ApplicationStatus = "RETURNED_FOR_CORRECTION"
	StatusUnderFacultyReview     ApplicationStatus = "UNDER_FACULTY_REVIEW"
	StatusFacultyReviewCompleted ApplicationStatus = "FACULTY_REVIEW_COMPLETED"
	StatusCompleted              ApplicationStatus = "COMPLETED"
	StatusIneligible             ApplicationStatus = "INELIGIBLE"
	StatusDeleted                ApplicationStatus = "DELETED"
)

func (s ApplicationStatus) String() string {
	return string(s)
}

// AllocatableStatuses is the allow-list of statuses whose choices enter the
// candidate pool. Applications still mid-review are ranked speculatively;
// rejected, ineligible and deleted ones are not.
func AllocatableStatuses() []ApplicationStatus {
	return []ApplicationStatus{
		StatusNew,
		StatusSubmitted,
		StatusUnderUniversityReview,
		StatusApprovedByUniversity,
		StatusUnderFacultyReview,
		StatusFacultyReviewCompleted,
		StatusCompleted,
	}
}

func (s ApplicationStatus) IsAllocatable() bool {
	for _, st := range AllocatableStatuses() {
		if s == st {
			return true
		}
	}
	return false
}

func (s ApplicationStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRejectedByUniversity, StatusIneligible, StatusDeleted:
		return true
	default:
		return false
	}
}

// workflowNext lists the forward transitions of the review workflow.
// INELIGIBLE and DELETED are reachable from any non-terminal state by
// administrative action and are not listed here.
var workflowNext = map[ApplicationStatus][]ApplicationStatus{
	StatusNew:                    {StatusProgramSelected},
	StatusProgramSelected:        {StatusPersonalInfoCompleted, StatusSubmitted},
	StatusPersonalInfoCompleted:  {StatusIdentityDocsUploaded, StatusSubmitted},
	StatusIdentityDocsUploaded:   {StatusEduInfoCompleted, StatusSubmitted},
	StatusEduInfoCompleted:       {StatusEduDocsUploaded, StatusSubmitted},
	StatusEduDocsUploaded:        {StatusSubmitted},
	StatusSubmitted:              {StatusUnderUniversityReview},
	StatusUnderUniversityReview:  {StatusApprovedByUniversity, StatusRejectedByUniversity, StatusReturnedForCorrection},
	StatusApprovedByUniversity:   {StatusUnderFacultyReview},
	StatusReturnedForCorrection:  {StatusSubmitted},
	StatusUnderFacultyReview:     {StatusFacultyReviewCompleted},
	StatusFacultyReviewCompleted: {StatusCompleted},
}

func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	if next == StatusIneligible || next == StatusDeleted {
		return !s.IsTerminal()
	}
	for _, allowed := range workflowNext[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type AdmissionOverallStatus string

const (
	OverallUnset    AdmissionOverallStatus = ""
	OverallAdmitted AdmissionOverallStatus = "ADMITTED"
	OverallRejected AdmissionOverallStatus = "REJECTED"
	OverallWaiting  AdmissionOverallStatus = "WAITING"
	OverallCanceled AdmissionOverallStatus = "CANCELED"
)

type UniversityReviewStatus string

const (
	ReviewPending            UniversityReviewStatus = "PENDING"
	ReviewApproved           UniversityReviewStatus = "APPROVED"
	ReviewApprovedWithDefect UniversityReviewStatus = "APPROVED_WITH_DEFECT"
	ReviewRejected           UniversityReviewStatus = "REJECTED"
)

type Application struct {
	ID                         string                 `json:"id" db:"id"`
	ApplicantID                string                 `json:"applicant_id" db:"applicant_id"`
	RoundID                    string                 `json:"round_id" db:"round_id"`
	TrackingCode               string                 `json:"tracking_code" db:"tracking_code"`
	Status                     ApplicationStatus      `json:"status" db:"status"`
	TotalScore                 *float64               `json:"total_score" db:"total_score"`
	UniversityReviewStatus     UniversityReviewStatus `json:"university_review_status" db:"university_review_status"`
	UniversityReviewComment    string                 `json:"university_review_comment" db:"university_review_comment"`
	UniversityReviewedBy       *string                `json:"university_reviewed_by" db:"university_reviewed_by"`
	UniversityReviewedAt       *time.Time             `json:"university_reviewed_at" db:"university_reviewed_at"`
	FacultyReviewCompleted     bool                   `json:"faculty_review_completed" db:"faculty_review_completed"`
	FacultyReviewComment       string                 `json:"faculty_review_comment" db:"faculty_review_comment"`
	FacultyReviewedBy          *string                `json:"faculty_reviewed_by" db:"faculty_reviewed_by"`
	FacultyReviewedAt          *time.Time             `json:"faculty_reviewed_at" db:"faculty_reviewed_at"`
	AdmissionOverallStatus     AdmissionOverallStatus `json:"admission_overall_status" db:"admission_overall_status"`
	AdmissionResultPublishedAt *time.Time             `json:"admission_result_published_at" db:"admission_result_published_at"`
	SubmittedAt                *time.Time             `json:"submitted_at" db:"submitted_at"`
	CreatedAt                  time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt                  time.Time              `json:"updated_at" db:"updated_at"`
}

// IsCorrectedResubmission reports whether the application went through
// RETURNED_FOR_CORRECTION and came back: it is SUBMITTED again while a
// university review timestamp is already present.
func (a *Application) IsCorrectedResubmission() bool {
	return a.Status == StatusSubmitted && a.UniversityReviewedAt != nil
}
