package model

import "time"

// CompletionRecord is the record-of-truth view of a subject's completion of
// a program, as stored by the enrollment subsystem.
type CompletionRecord struct {
	SubjectID      string    `json:"subjectId"`
	ProgramID      string    `json:"programId"`
	Completed      bool      `json:"completed"`
	CompletionDate time.Time `json:"completionDate"`
	FinalScore     float64   `json:"finalScore"`
}

// CompetencyRecord is a single skill attainment held by the assessment
// subsystem.
type CompetencyRecord struct {
	SkillName string `json:"skillName"`
	Level     int    `json:"level"`
}

// FormationRecord holds the formation metrics tracked for a subject within
// a program, keyed by metric name.
type FormationRecord struct {
	SubjectID string             `json:"subjectId"`
	ProgramID string             `json:"programId"`
	Metrics   map[string]float64 `json:"metrics"`
}
