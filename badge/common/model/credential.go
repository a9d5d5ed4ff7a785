package model

import "time"

// Credential is an issued, immutable badge record. It binds a subject's
// achievement to a ledger reference and a deterministic verification hash.
// A Credential only exists after a successful ledger mint; there is no
// partially-issued state.
type Credential struct {
	ID               string              `json:"id"`
	LedgerRef        string              `json:"ledgerRef"`
	SubjectID        string              `json:"subjectId"`
	ProgramID        string              `json:"programId"`
	Snapshot         AchievementSnapshot `json:"achievementSnapshot"`
	Competencies     []SkillLevel        `json:"competencies"`
	VerificationHash string              `json:"verificationHash"`
	MetadataURI      string              `json:"metadataUri"`
	IssuedAt         time.Time           `json:"issuedAt"`
}
