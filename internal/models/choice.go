package models

import (
	"time"
)

type ChoiceAdmissionStatus string

const (
	ChoicePending  ChoiceAdmissionStatus = "PENDING"
	ChoiceAccepted ChoiceAdmissionStatus = "ACCEPTED"
	ChoiceRejected ChoiceAdmissionStatus = "REJECTED"
	ChoiceWaiting  ChoiceAdmissionStatus = "WAITING"
)

func (s ChoiceAdmissionStatus) String() string {
	return string(s)
}

type ApplicationChoice struct {
	ID                      string                `json:"id" db:"id"`
	ApplicationID           string                `json:"application_id" db:"application_id"`
	ProgramID               string                `json:"program_id" db:"program_id"`
	Priority                int                   `json:"priority" db:"priority"`
	AdmissionStatus         ChoiceAdmissionStatus `json:"admission_status" db:"admission_status"`
	AdmissionPriorityResult *int                  `json:"admission_priority_result" db:"admission_priority_result"`
	CreatedAt               time.Time             `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time             `json:"updated_at" db:"updated_at"`
}

type ChoiceWithProgram struct {
	ApplicationChoice
	ProgramName        string `json:"program_name" db:"program_name"`
	ProgramOrientation string `json:"program_orientation" db:"program_orientation"`
}
