package models

type ResultsPublishedEvent struct {
	RoundID           string `json:"round_id"`
	ProgramsProcessed int    `json:"programs_processed"`
	AcceptedTotal     int    `json:"accepted_total"`
	Timestamp         int64  `json:"timestamp"`
}

type ChoiceAcceptedEvent struct {
	ChoiceID      string `json:"choice_id"`
	ApplicationID string `json:"application_id"`
	ProgramID     string `json:"program_id"`
	AcceptedBy    string `json:"accepted_by"`
	Timestamp     int64  `json:"timestamp"`
}
