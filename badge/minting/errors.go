package minting

import (
	"fmt"
	"strings"
)

// Validation rule names reported in violations.
const (
	RuleCompletionDate = "completion-date"
	RulePassingGrade   = "passing-grade"
	RuleSkills         = "skills-acquired"
	RuleAlignment      = "alignment-score"
	RuleProof          = "completion-proof"
	RuleAttestation    = "attestor-signature"
)

// Violation is a single failed validation rule.
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError reports every rule an issue request violated. It is never
// retried automatically; the full list is surfaced to the caller.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, fmt.Sprintf("%s: %s", v.Rule, v.Message))
	}
	return fmt.Sprintf("achievement failed validation: %s", strings.Join(msgs, "; "))
}

// Violates reports whether the named rule is among the violations.
func (e *ValidationError) Violates(rule string) bool {
	for _, v := range e.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}
