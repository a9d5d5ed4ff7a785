// Package hashing produces the deterministic verification fingerprint of an
// achievement payload. The fingerprint is computed over a declared canonical
// subset of the snapshot, canonicalized with recursively sorted keys so that
// two logically-identical payloads always hash identically regardless of
// field order.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
)

// MalformedInputError signals that a snapshot is missing a field required by
// the canonical subset. It is fatal for the single item it concerns.
type MalformedInputError struct {
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed achievement input: field %q %s", e.Field, e.Reason)
}

// EngineOpt configures a hash engine.
type EngineOpt func(*Engine)

// WithJSONLDCanonicalization switches the engine to URDNA2015 JSON-LD
// normalization instead of sorted-key canonical JSON. The digest algorithm
// is unchanged.
func WithJSONLDCanonicalization() EngineOpt {
	return func(e *Engine) {
		e.useJSONLD = true
	}
}

// Engine computes verification fingerprints. The zero-configured engine is
// pure and performs no I/O.
type Engine struct {
	useJSONLD bool
}

// NewEngine creates a hash engine.
func NewEngine(opts ...EngineOpt) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fingerprint canonicalizes the snapshot's canonical subset and returns the
// hex-encoded SHA-256 digest. The canonical subset is: subjectId, programId,
// completionDate (UTC RFC3339), finalScore, and the completion proof hash.
func (e *Engine) Fingerprint(snap *model.AchievementSnapshot) (string, error) {
	subset, err := canonicalSubset(snap)
	if err != nil {
		return "", err
	}

	var canonical []byte
	if e.useJSONLD {
		canonical, err = canonicalizeJSONLD(subset)
	} else {
		canonical, err = canonicalJSON(subset)
	}
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize snapshot: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalSubset extracts the fields the fingerprint is defined over and
// validates their presence.
func canonicalSubset(snap *model.AchievementSnapshot) (map[string]interface{}, error) {
	if snap == nil {
		return nil, &MalformedInputError{Field: "snapshot", Reason: "is nil"}
	}
	if snap.SubjectID == "" {
		return nil, &MalformedInputError{Field: "subjectId", Reason: "is required"}
	}
	if snap.ProgramID == "" {
		return nil, &MalformedInputError{Field: "programId", Reason: "is required"}
	}
	if snap.CompletionDate.IsZero() {
		return nil, &MalformedInputError{Field: "completionDate", Reason: "is required"}
	}
	if snap.Proof.CompletionProofHash == "" {
		return nil, &MalformedInputError{Field: "proof.completionProofHash", Reason: "is required"}
	}

	return map[string]interface{}{
		"subjectId":           snap.SubjectID,
		"programId":           snap.ProgramID,
		"completionDate":      snap.CompletionDate.UTC().Format(time.RFC3339),
		"finalScore":          snap.FinalScore,
		"completionProofHash": snap.Proof.CompletionProofHash,
	}, nil
}
