package models

import (
	"time"
)

type EducationDegreeLevel string

const (
	EducationBSc EducationDegreeLevel = "BSC"
	EducationMSc EducationDegreeLevel = "MSC"
)

type EducationStudyStatus string

const (
	StudyGraduated EducationStudyStatus = "GRADUATED"
	StudyStudying  EducationStudyStatus = "STUDYING"
)

type EducationRecord struct {
	ID            string               `json:"id" db:"id"`
	ApplicationID string               `json:"application_id" db:"application_id"`
	DegreeLevel   EducationDegreeLevel `json:"degree_level" db:"degree_level"`
	University    string               `json:"university" db:"university"`
	FieldOfStudy  string               `json:"field_of_study" db:"field_of_study"`
	StudyStatus   EducationStudyStatus `json:"study_status" db:"study_status"`
	GPA           *float64             `json:"gpa" db:"gpa"`
	CreatedAt     time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" db:"updated_at"`
}

// EducationScoring is the precomputed education score attached 1:1 to an
// application. How the score is computed is the score provider's business;
// the allocation engine only reads total_score.
type EducationScoring struct {
	ID            string    `json:"id" db:"id"`
	ApplicationID string    `json:"application_id" db:"application_id"`
	TotalScore    float64   `json:"total_score" db:"total_score"`
	CalculatedAt  time.Time `json:"calculated_at" db:"calculated_at"`
}

type DocumentType string

const (
	DocPersonalPhoto  DocumentType = "PERSONAL_PHOTO"
	DocNationalCard   DocumentType = "NATIONAL_CARD"
	DocIDCard         DocumentType = "ID_CARD"
	DocBScCert        DocumentType = "BSC_CERT"
	DocBScTranscript  DocumentType = "BSC_TRANSCRIPT"
	DocEnrollmentCert DocumentType = "ENROLLMENT_CERT"
	DocMScCert        DocumentType = "MSC_CERT"
	DocMScTranscript  DocumentType = "MSC_TRANSCRIPT"
)

func IdentityDocumentTypes() []DocumentType {
	return []DocumentType{DocPersonalPhoto, DocNationalCard, DocIDCard}
}

// Document is metadata only; the file itself lives in the external file
// service and is addressed by FileID.
type Document struct {
	ID            string       `json:"id" db:"id"`
	ApplicationID string       `json:"application_id" db:"application_id"`
	Type          DocumentType `json:"type" db:"type"`
	FileID        string       `json:"file_id" db:"file_id"`
	FileName      string       `json:"file_name" db:"file_name"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}
