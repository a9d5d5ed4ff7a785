// Package provider defines the record-of-truth interfaces the verification
// pipeline cross-checks credential claims against, together with a default
// HTTP implementation and an in-memory one for tests and wiring demos.
package provider

import (
	"context"

	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
)

// RecordProvider answers queries against the record-of-truth subsystems:
// enrollment (completion), assessment (competencies) and formation
// tracking. Implementations are expected to be safe for concurrent use.
type RecordProvider interface {
	// CompletionRecord returns the completion record for a subject within
	// a program.
	CompletionRecord(ctx context.Context, subjectID, programID string) (*model.CompletionRecord, error)

	// CompetencyRecords returns the skills the subject attained within a
	// program.
	CompetencyRecords(ctx context.Context, subjectID, programID string) ([]model.CompetencyRecord, error)

	// FormationRecord returns the formation metrics tracked for a subject
	// within a program.
	FormationRecord(ctx context.Context, subjectID, programID string) (*model.FormationRecord, error)
}
