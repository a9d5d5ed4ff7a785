// Package verification runs the multi-stage credential verification
// pipeline: cache front, ledger existence, metadata integrity, and the
// completion, competency and formation cross-checks against the
// record-of-truth subsystems. Every stage runs and is recorded even after
// an earlier stage fails, so reports are always diagnostically complete.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scrolluniversity/go-badge-sdk/badge/cache"
	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
	"github.com/scrolluniversity/go-badge-sdk/badge/metadata"
	"github.com/scrolluniversity/go-badge-sdk/badge/provider"
	"github.com/scrolluniversity/go-badge-sdk/ledger"
)

// Defaults for cache TTL, batch fan-out and cross-check tolerances.
const (
	DefaultReportTTL          = 5 * time.Minute
	DefaultBatchLimit         = 16
	DefaultItemTimeout        = 30 * time.Second
	DefaultScoreTolerance     = 0.5
	DefaultFormationTolerance = 5.0
)

// Opt configures a verification service.
type Opt func(*Service)

// WithCache overrides the report cache.
func WithCache(c *cache.Cache) Opt {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithReportTTL sets how long verification outcomes stay cached.
func WithReportTTL(ttl time.Duration) Opt {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithTrustedDomain sets the domain metadata URLs must stay within.
func WithTrustedDomain(domain string) Opt {
	return func(s *Service) {
		if domain != "" {
			s.trustedDomain = domain
		}
	}
}

// WithBatchLimit bounds concurrent pipelines in VerifyBatch.
func WithBatchLimit(limit int) Opt {
	return func(s *Service) {
		if limit > 0 {
			s.batchLimit = limit
		}
	}
}

// WithItemTimeout bounds each batch item's pipeline.
func WithItemTimeout(timeout time.Duration) Opt {
	return func(s *Service) {
		if timeout > 0 {
			s.itemTimeout = timeout
		}
	}
}

// WithScoreTolerance sets the allowed slack between the claimed final score
// and the record-of-truth score.
func WithScoreTolerance(tolerance float64) Opt {
	return func(s *Service) {
		s.scoreTolerance = tolerance
	}
}

// WithFormationTolerance sets the allowed absolute drift per formation
// metric.
func WithFormationTolerance(tolerance float64) Opt {
	return func(s *Service) {
		s.formationTolerance = tolerance
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

// Service verifies credential references against the ledger and the
// record-of-truth subsystems.
type Service struct {
	gateway ledger.Gateway
	records provider.RecordProvider
	cache   *cache.Cache
	log     zerolog.Logger
	now     func() time.Time

	ttl                time.Duration
	trustedDomain      string
	batchLimit         int
	itemTimeout        time.Duration
	scoreTolerance     float64
	formationTolerance float64
}

// NewService creates a verification service.
func NewService(gateway ledger.Gateway, records provider.RecordProvider, opts ...Opt) *Service {
	s := &Service{
		gateway:            gateway,
		records:            records,
		cache:              cache.New(),
		log:                zerolog.Nop(),
		now:                time.Now,
		ttl:                DefaultReportTTL,
		trustedDomain:      metadata.DefaultTrustedDomain,
		batchLimit:         DefaultBatchLimit,
		itemTimeout:        DefaultItemTimeout,
		scoreTolerance:     DefaultScoreTolerance,
		formationTolerance: DefaultFormationTolerance,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify runs the pipeline for a single credential reference. A fresh
// non-expired cached outcome is returned immediately with CacheHit=true and
// only the cache stage recorded. Otherwise stages 2-6 all run regardless of
// individual failures; an unknown ref yields a failed report, not an error.
// Only infrastructure faults (ledger unreachable) return a ledger error.
func (s *Service) Verify(ctx context.Context, ref string) (*model.VerificationReport, error) {
	if cached, ok := s.cache.Get(ref); ok {
		hit := *cached
		hit.CacheHit = true
		hit.StageResults = append([]model.StageResult{{
			Stage:  model.StageCache,
			Passed: true,
			Detail: "served from cache",
		}}, cached.StageResults...)
		s.log.Debug().Str("ref", ref).Msg("verification served from cache")
		return &hit, nil
	}

	report := &model.VerificationReport{
		RequestID:     uuid.NewString(),
		CredentialRef: ref,
		GeneratedAt:   s.now().UTC(),
	}

	if err := s.runPipeline(ctx, ref, report); err != nil {
		return nil, err
	}

	report.OverallValid = true
	for _, sr := range report.StageResults {
		if !sr.Passed {
			report.OverallValid = false
		}
		if !sr.Passed && sr.Detail != "" {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", sr.Stage, sr.Detail))
		}
	}

	s.cache.Put(ref, report, s.ttl)
	s.log.Info().
		Str("ref", ref).
		Bool("valid", report.OverallValid).
		Msg("verification finished")
	return report, nil
}

// runPipeline executes stages 2-6 in order, recording each result.
func (s *Service) runPipeline(ctx context.Context, ref string, report *model.VerificationReport) error {
	// Stage 2: ledger existence and ownership.
	existence, err := s.gateway.VerifyExistence(ctx, ref)
	if err != nil {
		// Transport-class fault; surfaced to the caller, retryable.
		return err
	}

	// Stage 3 input: metadata is fetched regardless of stage 2's outcome
	// so later stages stay diagnostic.
	doc, metaErr := s.gateway.GetMetadata(ctx, ref)
	var infraErr *ledger.Error
	if errors.As(metaErr, &infraErr) {
		// Same transport class as the existence check: surfaced, never
		// recorded as an outcome, never cached.
		return metaErr
	}
	claims, claimsErr := extractClaims(doc)

	s.recordLedgerStage(report, existence, claims)
	s.recordMetadataStage(report, doc, metaErr, claimsErr)
	s.recordCompletionStage(ctx, report, claims)
	s.recordCompetencyStage(ctx, report, claims)
	s.recordFormationStage(ctx, report, claims)
	return nil
}

func (s *Service) recordLedgerStage(report *model.VerificationReport, existence *ledger.ExistenceResult, claims *credentialClaims) {
	result := model.StageResult{Stage: model.StageLedger}
	switch {
	case existence == nil || !existence.Exists:
		result.Detail = "credential reference not found on ledger"
	case existence.Owner != "" && claims != nil && claims.SubjectID != "" && existence.Owner != claims.SubjectID:
		result.Detail = fmt.Sprintf("ledger owner %q does not match credential subject %q", existence.Owner, claims.SubjectID)
	default:
		result.Passed = true
	}
	report.StageResults = append(report.StageResults, result)
}

func (s *Service) recordMetadataStage(report *model.VerificationReport, doc map[string]interface{}, metaErr, claimsErr error) {
	result := model.StageResult{Stage: model.StageMetadata}
	switch {
	case metaErr != nil:
		result.Detail = fmt.Sprintf("metadata unavailable: %v", metaErr)
	case claimsErr != nil:
		result.Detail = claimsErr.Error()
	default:
		if problems := metadata.CheckIntegrity(doc, s.trustedDomain); len(problems) > 0 {
			result.Detail = fmt.Sprintf("metadata integrity problems: %v", problems)
		} else {
			result.Passed = true
		}
	}
	report.StageResults = append(report.StageResults, result)
}

func (s *Service) recordCompletionStage(ctx context.Context, report *model.VerificationReport, claims *credentialClaims) {
	result := model.StageResult{Stage: model.StageCompletion}
	defer func() {
		report.StageResults = append(report.StageResults, result)
	}()

	if claims == nil {
		result.Detail = "claims unavailable, cannot cross-check completion"
		return
	}
	record, err := s.records.CompletionRecord(ctx, claims.SubjectID, claims.ProgramID)
	if err != nil {
		result.Detail = fmt.Sprintf("completion record unavailable: %v", err)
		return
	}
	switch {
	case !record.Completed:
		result.Detail = "record of truth does not show the program as completed"
	case !sameDay(record.CompletionDate, claims.CompletionDate):
		result.Detail = fmt.Sprintf("completion date mismatch: recorded %s, claimed %s",
			record.CompletionDate.Format("2006-01-02"), claims.CompletionDate.Format("2006-01-02"))
	case record.FinalScore < claims.FinalScore-s.scoreTolerance:
		result.Detail = fmt.Sprintf("recorded score %.1f is below claimed score %.1f", record.FinalScore, claims.FinalScore)
	default:
		result.Passed = true
	}
}

func (s *Service) recordCompetencyStage(ctx context.Context, report *model.VerificationReport, claims *credentialClaims) {
	result := model.StageResult{Stage: model.StageCompetency}
	defer func() {
		report.StageResults = append(report.StageResults, result)
	}()

	if claims == nil {
		result.Detail = "claims unavailable, cannot cross-check competencies"
		return
	}
	records, err := s.records.CompetencyRecords(ctx, claims.SubjectID, claims.ProgramID)
	if err != nil {
		result.Detail = fmt.Sprintf("competency records unavailable: %v", err)
		return
	}

	attained := make(map[string]int, len(records))
	for _, rec := range records {
		if rec.Level > attained[rec.SkillName] {
			attained[rec.SkillName] = rec.Level
		}
	}
	for _, skill := range claims.Skills {
		level, ok := attained[skill.Name]
		if !ok {
			result.Detail = fmt.Sprintf("claimed skill %q has no record of truth", skill.Name)
			return
		}
		if level < skill.Level {
			result.Detail = fmt.Sprintf("claimed skill %q level %d exceeds recorded level %d", skill.Name, skill.Level, level)
			return
		}
	}
	result.Passed = true
}

func (s *Service) recordFormationStage(ctx context.Context, report *model.VerificationReport, claims *credentialClaims) {
	result := model.StageResult{Stage: model.StageFormation}
	defer func() {
		report.StageResults = append(report.StageResults, result)
	}()

	if claims == nil {
		result.Detail = "claims unavailable, cannot cross-check formation metrics"
		return
	}
	record, err := s.records.FormationRecord(ctx, claims.SubjectID, claims.ProgramID)
	if err != nil {
		result.Detail = fmt.Sprintf("formation record unavailable: %v", err)
		return
	}
	for name, claimed := range claims.Formation {
		recorded, ok := record.Metrics[name]
		if !ok {
			result.Detail = fmt.Sprintf("claimed formation metric %q has no record of truth", name)
			return
		}
		if diff := recorded - claimed; diff > s.formationTolerance || diff < -s.formationTolerance {
			result.Detail = fmt.Sprintf("formation metric %q drifted beyond tolerance: recorded %.1f, claimed %.1f", name, recorded, claimed)
			return
		}
	}
	result.Passed = true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
