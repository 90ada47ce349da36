package models

import (
	"time"
)

// Candidate is one choice joined with the ranking-relevant attributes of its
// application. It exists only during allocation; nothing about it is
// persisted.
type Candidate struct {
	ApplicationID   string
	ChoiceID        string
	ChoicePriority  int
	TotalScore      float64
	EducationScore  float64
	ChoiceCreatedAt time.Time
}

// AllocationResult is the outcome of splitting one program's ranked
// candidates at its capacity.
type AllocationResult struct {
	Accepted []Candidate
	Waiting  []Candidate
}

// PreviewCandidate is the read-only preview shape: a candidate enriched with
// applicant identity and the application's full choice list.
type PreviewCandidate struct {
	ApplicationID         string                `json:"application_id"`
	TrackingCode          string                `json:"tracking_code"`
	Applicant             Applicant             `json:"applicant"`
	TotalScore            float64               `json:"total_score"`
	EducationScore        float64               `json:"education_score"`
	ChoicePriority        int                   `json:"choice_priority"`
	ChoiceID              string                `json:"choice_id"`
	ChoiceAdmissionStatus ChoiceAdmissionStatus `json:"choice_admission_status"`
	TopThreeChoices       []PreviewChoice       `json:"top_three_choices"`
}

type PreviewChoice struct {
	Priority    int    `json:"priority"`
	ProgramName string `json:"program_name"`
	Orientation string `json:"orientation"`
}

type ProgramPreview struct {
	ProgramID       string             `json:"program_id"`
	ProgramName     string             `json:"program_name"`
	ProgramCode     string             `json:"program_code"`
	Orientation     string             `json:"orientation"`
	FacultyName     string             `json:"faculty_name"`
	DepartmentName  string             `json:"department_name"`
	Capacity        int                `json:"capacity"`
	PrelimAccepted  []PreviewCandidate `json:"prelim_accepted"`
	PrelimWaiting   []PreviewCandidate `json:"prelim_waiting"`
	CandidatesCount int                `json:"candidates_count"`
}
