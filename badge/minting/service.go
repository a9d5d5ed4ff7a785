// Package minting issues badge credentials: it validates achievement
// snapshots, computes the verification fingerprint, assembles metadata and
// anchors the credential on the trust ledger. A credential object exists
// only after a successful mint.
package minting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	badgecrypto "github.com/scrolluniversity/go-badge-sdk/badge/common/crypto"
	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
	"github.com/scrolluniversity/go-badge-sdk/badge/hashing"
	"github.com/scrolluniversity/go-badge-sdk/badge/metadata"
	"github.com/scrolluniversity/go-badge-sdk/badge/store"
	"github.com/scrolluniversity/go-badge-sdk/ledger"
)

// Default thresholds and batch settings.
const (
	DefaultPassingScore = 70.0
	DefaultMinAlignment = 60.0
	DefaultBatchLimit   = 8
	DefaultItemTimeout  = 30 * time.Second
)

// Opt configures a minting service.
type Opt func(*Service)

// WithHashEngine overrides the fingerprint engine.
func WithHashEngine(engine *hashing.Engine) Opt {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithMetadataBuilder overrides the metadata builder.
func WithMetadataBuilder(builder *metadata.Builder) Opt {
	return func(s *Service) {
		if builder != nil {
			s.builder = builder
		}
	}
}

// WithCredentialStore sets the repository issued credentials are recorded
// in.
func WithCredentialStore(creds store.CredentialStore) Opt {
	return func(s *Service) {
		if creds != nil {
			s.creds = creds
		}
	}
}

// WithPassingScore sets the minimum final score (boundary inclusive).
func WithPassingScore(score float64) Opt {
	return func(s *Service) {
		s.passingScore = score
	}
}

// WithMinAlignment sets the minimum formation alignment score.
func WithMinAlignment(score float64) Opt {
	return func(s *Service) {
		s.minAlignment = score
	}
}

// WithAttestorKey enables verification of the proof's attestor signature
// against the given compressed secp256k1 public key.
func WithAttestorKey(publicKey []byte) Opt {
	return func(s *Service) {
		s.attestorKey = publicKey
	}
}

// WithBatchLimit bounds the number of concurrent ledger mints in
// IssueBatch.
func WithBatchLimit(limit int) Opt {
	return func(s *Service) {
		if limit > 0 {
			s.batchLimit = limit
		}
	}
}

// WithItemTimeout bounds each batch item so one slow ledger call cannot
// stall the whole batch.
func WithItemTimeout(timeout time.Duration) Opt {
	return func(s *Service) {
		if timeout > 0 {
			s.itemTimeout = timeout
		}
	}
}

// WithLogger attaches a structured logger. The service is silent by
// default.
func WithLogger(log zerolog.Logger) Opt {
	return func(s *Service) {
		s.log = log
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Opt {
	return func(s *Service) {
		s.now = now
	}
}

// Service issues credentials against a ledger gateway.
type Service struct {
	gateway ledger.Gateway
	engine  *hashing.Engine
	builder *metadata.Builder
	creds   store.CredentialStore
	log     zerolog.Logger
	now     func() time.Time

	passingScore float64
	minAlignment float64
	attestorKey  []byte
	batchLimit   int
	itemTimeout  time.Duration
}

// NewService creates a minting service.
func NewService(gateway ledger.Gateway, opts ...Opt) *Service {
	s := &Service{
		gateway:      gateway,
		engine:       hashing.NewEngine(),
		builder:      metadata.NewBuilder(),
		creds:        store.NewMemoryStore(),
		log:          zerolog.Nop(),
		now:          time.Now,
		passingScore: DefaultPassingScore,
		minAlignment: DefaultMinAlignment,
		batchLimit:   DefaultBatchLimit,
		itemTimeout:  DefaultItemTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue validates the snapshot and mints a credential for it. Validation
// collects every violated rule before failing; the ledger is not called for
// invalid snapshots. The returned credential is immutable.
func (s *Service) Issue(ctx context.Context, snap *model.AchievementSnapshot) (*model.Credential, error) {
	if snap == nil {
		return nil, &hashing.MalformedInputError{Field: "snapshot", Reason: "is nil"}
	}

	if violations := s.validate(snap); len(violations) > 0 {
		s.log.Debug().
			Str("subject", snap.SubjectID).
			Str("program", snap.ProgramID).
			Int("violations", len(violations)).
			Msg("achievement rejected")
		return nil, &ValidationError{Violations: violations}
	}

	hash, err := s.engine.Fingerprint(snap)
	if err != nil {
		return nil, err
	}

	doc, err := s.builder.Build(snap, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to build badge metadata: %w", err)
	}
	metadataURI := s.builder.MetadataURI(hash)

	ref, err := s.gateway.Mint(ctx, snap.SubjectID, metadataURI, doc)
	if err != nil {
		// No partial state: nothing was stored before the mint.
		return nil, err
	}

	competencies := make([]model.SkillLevel, len(snap.SkillsAcquired))
	copy(competencies, snap.SkillsAcquired)

	// The stored snapshot must not alias caller-owned slices or maps; a
	// caller mutating its snapshot after issue cannot reach the credential.
	snapshot := *snap
	snapshot.SkillsAcquired = make([]model.SkillLevel, len(snap.SkillsAcquired))
	copy(snapshot.SkillsAcquired, snap.SkillsAcquired)
	if len(snap.FormationMetrics.Extra) > 0 {
		extra := make(map[string]float64, len(snap.FormationMetrics.Extra))
		for name, value := range snap.FormationMetrics.Extra {
			extra[name] = value
		}
		snapshot.FormationMetrics.Extra = extra
	}

	cred := &model.Credential{
		ID:               uuid.NewString(),
		LedgerRef:        ref,
		SubjectID:        snap.SubjectID,
		ProgramID:        snap.ProgramID,
		Snapshot:         snapshot,
		Competencies:     competencies,
		VerificationHash: hash,
		MetadataURI:      metadataURI,
		IssuedAt:         s.now().UTC(),
	}

	if err := s.creds.Save(cred); err != nil {
		return nil, fmt.Errorf("failed to record issued credential: %w", err)
	}

	s.log.Info().
		Str("credential", cred.ID).
		Str("ledgerRef", cred.LedgerRef).
		Str("subject", cred.SubjectID).
		Str("program", cred.ProgramID).
		Msg("credential issued")
	return cred, nil
}

// validate applies every issuance rule and returns the complete violation
// list, empty when the snapshot is acceptable.
func (s *Service) validate(snap *model.AchievementSnapshot) []Violation {
	var violations []Violation

	if snap.CompletionDate.IsZero() {
		violations = append(violations, Violation{
			Rule:    RuleCompletionDate,
			Message: "completion date is required",
		})
	}
	if snap.FinalScore < s.passingScore {
		violations = append(violations, Violation{
			Rule:    RulePassingGrade,
			Message: fmt.Sprintf("final score %.1f is below the passing threshold %.1f", snap.FinalScore, s.passingScore),
		})
	}
	if len(snap.SkillsAcquired) == 0 {
		violations = append(violations, Violation{
			Rule:    RuleSkills,
			Message: "at least one acquired skill is required",
		})
	}
	if snap.FormationMetrics.AlignmentScore < s.minAlignment {
		violations = append(violations, Violation{
			Rule:    RuleAlignment,
			Message: fmt.Sprintf("alignment score %.1f is below the minimum %.1f", snap.FormationMetrics.AlignmentScore, s.minAlignment),
		})
	}
	if snap.Proof.CompletionProofHash == "" || snap.Proof.AttestorSignature == "" {
		violations = append(violations, Violation{
			Rule:    RuleProof,
			Message: "completion proof hash and attestor signature are required",
		})
	} else if len(s.attestorKey) > 0 {
		if !badgecrypto.VerifyAttestation(s.attestorKey, snap.Proof.CompletionProofHash, snap.Proof.AttestorSignature) {
			violations = append(violations, Violation{
				Rule:    RuleAttestation,
				Message: "attestor signature does not match the completion proof",
			})
		}
	}

	return violations
}
