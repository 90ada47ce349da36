package models

import "time"

// Data Transfer Objects

type CreateApplicationRequest struct {
	RoundID string `json:"round_id" validate:"omitempty,uuid"`
}

type ChoiceInput struct {
	ProgramID string `json:"program_id" validate:"required,uuid"`
	Priority  int    `json:"priority" validate:"required,min=1,max=3"`
}

type SetChoicesRequest struct {
	Choices []ChoiceInput `json:"choices" validate:"required,dive"`
}

type AddChoiceRequest struct {
	ProgramID string `json:"program_id" validate:"required,uuid"`
	Priority  int    `json:"priority" validate:"required,min=1,max=3"`
}

type ReorderChoiceRequest struct {
	Priority int `json:"priority" validate:"required,min=1,max=3"`
}

type CreateEducationRecordRequest struct {
	DegreeLevel  string   `json:"degree_level" validate:"required,oneof=BSC MSC"`
	University   string   `json:"university" validate:"required,max=255"`
	FieldOfStudy string   `json:"field_of_study" validate:"max=255"`
	StudyStatus  string   `json:"study_status" validate:"required,oneof=GRADUATED STUDYING"`
	GPA          *float64 `json:"gpa" validate:"omitempty,min=0,max=20"`
}

type CreateDocumentRequest struct {
	Type     string `json:"type" validate:"required"`
	FileID   string `json:"file_id" validate:"required,uuid"`
	FileName string `json:"file_name" validate:"max=255"`
}

type RunAllocationRequest struct {
	RoundID   string `json:"round_id" validate:"omitempty,uuid"`
	RoundType string `json:"round_type" validate:"omitempty,oneof=MA_TALENT PHD_TALENT PHD_EXAM OLYMPIAD"`
}

type RunAllocationResponse struct {
	ProgramsProcessed int `json:"programs_processed"`
	AcceptedTotal     int `json:"accepted_total"`
}

type AllocationPreviewResponse struct {
	Round    *RoundSummary    `json:"round"`
	Programs []ProgramPreview `json:"programs"`
}

type RoundSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Year  int    `json:"year"`
}

type UniversityReviewRequest struct {
	ReviewStatus string   `json:"review_status" validate:"required,oneof=APPROVED APPROVED_WITH_DEFECT REJECTED RETURNED_FOR_CORRECTION"`
	Comment      string   `json:"comment" validate:"max=2000"`
	Defects      []string `json:"defects" validate:"omitempty,dive,max=500"`
}

type FacultyReviewRequest struct {
	Completed bool   `json:"completed"`
	Comment   string `json:"comment" validate:"max=2000"`
}

type SetScoreRequest struct {
	TotalScore     float64  `json:"total_score" validate:"min=0"`
	EducationScore *float64 `json:"education_score" validate:"omitempty,min=0"`
}

type ApplicationResponse struct {
	Application
	Choices        []ChoiceWithProgram `json:"choices,omitempty"`
	EducationScore *float64            `json:"education_score,omitempty"`
}

type ApplicationsPageResponse struct {
	Applications []Application `json:"applications"`
	Total        int           `json:"total"`
	Page         int           `json:"page"`
	Limit        int           `json:"limit"`
}

type SubmitApplicationResponse struct {
	Message     string       `json:"message"`
	Application *Application `json:"application,omitempty"`
	SubmittedAt *time.Time   `json:"submitted_at,omitempty"`
}

type StatisticsResponse struct {
	RoundID          string         `json:"round_id"`
	ByStatus         map[string]int `json:"by_status"`
	ByOverallStatus  map[string]int `json:"by_overall_status"`
	TotalApplicants  int            `json:"total_applicants"`
	TotalApplication int            `json:"total_applications"`
}
