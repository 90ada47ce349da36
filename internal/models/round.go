package models

import (
	"time"
)

type RoundType string

const (
	RoundMATalent  RoundType = "MA_TALENT"
	RoundPhDTalent RoundType = "PHD_TALENT"
	RoundPhDExam   RoundType = "PHD_EXAM"
	RoundOlympiad  RoundType = "OLYMPIAD"
)

func (rt RoundType) String() string {
	return string(rt)
}

func IsValidRoundType(t string) bool {
	switch RoundType(t) {
	case RoundMATalent, RoundPhDTalent, RoundPhDExam, RoundOlympiad:
		return true
	default:
		return false
	}
}

// RoundCapabilities is the per-round-type behaviour profile. It is resolved
// once from the round type instead of branching on the type at every call
// site.
type RoundCapabilities struct {
	RequiresMasterRecord bool
	MaxChoices           int
	DegreeLevel          DegreeLevel
}

func (rt RoundType) Capabilities() RoundCapabilities {
	switch rt {
	case RoundPhDTalent, RoundPhDExam:
		return RoundCapabilities{
			RequiresMasterRecord: true,
			MaxChoices:           3,
			DegreeLevel:          DegreePhD,
		}
	default:
		return RoundCapabilities{
			RequiresMasterRecord: false,
			MaxChoices:           3,
			DegreeLevel:          DegreeMA,
		}
	}
}

type AdmissionRound struct {
	ID                string    `json:"id" db:"id"`
	Title             string    `json:"title" db:"title"`
	Year              int       `json:"year" db:"year"`
	Type              RoundType `json:"type" db:"type"`
	RegistrationStart time.Time `json:"registration_start" db:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end" db:"registration_end"`
	IsActive          bool      `json:"is_active" db:"is_active"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

type DegreeLevel string

const (
	DegreeMA  DegreeLevel = "MA"
	DegreePhD DegreeLevel = "PHD"
)

type Program struct {
	ID           string      `json:"id" db:"id"`
	RoundID      string      `json:"round_id" db:"round_id"`
	FacultyID    string      `json:"faculty_id" db:"faculty_id"`
	DepartmentID string      `json:"department_id" db:"department_id"`
	DegreeLevel  DegreeLevel `json:"degree_level" db:"degree_level"`
	Code         string      `json:"code" db:"code"`
	Name         string      `json:"name" db:"name"`
	Orientation  string      `json:"orientation" db:"orientation"`
	Capacity     int         `json:"capacity" db:"capacity"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

type ProgramWithDetails struct {
	Program
	FacultyName    string `json:"faculty_name" db:"faculty_name"`
	DepartmentName string `json:"department_name" db:"department_name"`
}
