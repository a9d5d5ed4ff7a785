package model

import "time"

// Verification stage names, in pipeline order.
const (
	StageCache      = "cache"
	StageLedger     = "ledger-existence"
	StageMetadata   = "metadata-integrity"
	StageCompletion = "completion-crosscheck"
	StageCompetency = "competency-crosscheck"
	StageFormation  = "formation-crosscheck"
)

// StageResult records the outcome of a single verification stage.
type StageResult struct {
	Stage  string `json:"stage"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// VerificationReport is the complete outcome of a verification run.
// StageResults preserves execution order; OverallValid is the conjunction
// of every executed stage, none skipped.
type VerificationReport struct {
	RequestID     string        `json:"requestId"`
	CredentialRef string        `json:"credentialRef"`
	StageResults  []StageResult `json:"stageResults"`
	OverallValid  bool          `json:"overallValid"`
	Errors        []string      `json:"errors,omitempty"`
	GeneratedAt   time.Time     `json:"generatedAt"`
	CacheHit      bool          `json:"cacheHit"`
}

// Stage returns the result for the named stage, if present.
func (r *VerificationReport) Stage(name string) (StageResult, bool) {
	for _, sr := range r.StageResults {
		if sr.Stage == name {
			return sr, true
		}
	}
	return StageResult{}, false
}
