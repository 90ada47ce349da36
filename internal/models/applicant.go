package models

import (
	"time"
)

type Applicant struct {
	ID         string    `json:"id" db:"id"`
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   string    `json:"last_name" db:"last_name"`
	FatherName string    `json:"father_name" db:"father_name"`
	Gender     string    `json:"gender" db:"gender"`
	NationalID string    `json:"national_id" db:"national_id"`
	Email      string    `json:"email" db:"email"`
	Mobile     string    `json:"mobile" db:"mobile"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// HasCompletePersonalInfo is the personal-record check of the submission
// gate.
func (a *Applicant) HasCompletePersonalInfo() bool {
	return a.FirstName != "" && a.LastName != "" && a.FatherName != "" && a.Gender != ""
}
