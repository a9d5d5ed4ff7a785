package model

import "time"

// SkillLevel represents a single acquired competency with its attained level.
type SkillLevel struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// FormationMetrics holds the non-academic growth scores attached to an
// achievement. Extra carries program-specific metrics keyed by name.
type FormationMetrics struct {
	GrowthScore      float64            `json:"growthScore"`
	AlignmentScore   float64            `json:"alignmentScore"`
	SensitivityScore float64            `json:"sensitivityScore"`
	Extra            map[string]float64 `json:"extra,omitempty"`
}

// AchievementProof carries the attestation produced by the record-of-truth
// side when the achievement was finalized.
type AchievementProof struct {
	CompletionProofHash string `json:"completionProofHash"`
	AttestorSignature   string `json:"attestorSignature"`
}

// AchievementSnapshot is the immutable achievement payload submitted for
// minting. Once handed to the minting service it must not be modified;
// corrections are expressed by issuing a superseding credential.
type AchievementSnapshot struct {
	SubjectID        string           `json:"subjectId"`
	ProgramID        string           `json:"programId"`
	CompletionDate   time.Time        `json:"completionDate"`
	FinalScore       float64          `json:"finalScore"`
	SkillsAcquired   []SkillLevel     `json:"skillsAcquired"`
	FormationMetrics FormationMetrics `json:"formationMetrics"`
	Proof            AchievementProof `json:"proof"`

	// Portal bookkeeping carried into badge metadata attributes.
	XPEarned     int    `json:"xpEarned,omitempty"`
	ProgramLevel string `json:"programLevel,omitempty"`
}
