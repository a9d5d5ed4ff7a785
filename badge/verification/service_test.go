package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrolluniversity/go-badge-sdk/badge/cache"
	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
	"github.com/scrolluniversity/go-badge-sdk/badge/minting"
	"github.com/scrolluniversity/go-badge-sdk/badge/provider"
	"github.com/scrolluniversity/go-badge-sdk/ledger"
)

// fakeGateway is an in-memory ledger.Gateway with injectable faults.
type fakeGateway struct {
	mu            sync.Mutex
	records       map[string]map[string]interface{}
	owners        map[string]string
	failExistence error
	failMetadata  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		records: make(map[string]map[string]interface{}),
		owners:  make(map[string]string),
	}
}

func (g *fakeGateway) Mint(ctx context.Context, subjectID, metadataURI string, metadata map[string]interface{}) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	hash, _ := metadata["verificationHash"].(string)
	ref := "0x" + hash
	g.records[ref] = metadata
	g.owners[ref] = subjectID
	return ref, nil
}

func (g *fakeGateway) VerifyExistence(ctx context.Context, ref string) (*ledger.ExistenceResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failExistence != nil {
		return nil, ledger.NewError("verifyExistence", ref, g.failExistence)
	}
	_, ok := g.records[ref]
	return &ledger.ExistenceResult{Exists: ok, Owner: g.owners[ref]}, nil
}

func (g *fakeGateway) GetMetadata(ctx context.Context, ref string) (map[string]interface{}, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failMetadata != nil {
		return nil, ledger.NewError("getMetadata", ref, g.failMetadata)
	}
	doc, ok := g.records[ref]
	if !ok {
		return nil, errors.New("badge not found")
	}
	return doc, nil
}

func (g *fakeGateway) drop(ref string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.records, ref)
	delete(g.owners, ref)
}

func (g *fakeGateway) setMetadataFault(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failMetadata = err
}

func (g *fakeGateway) setOwner(ref, owner string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.owners[ref] = owner
}

func (g *fakeGateway) setField(ref, field string, value interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records[ref][field] = value
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func testSnapshot(programID string) *model.AchievementSnapshot {
	completed, _ := time.Parse(time.RFC3339, "2025-06-15T09:30:00Z")
	return &model.AchievementSnapshot{
		SubjectID:      "subject-1",
		ProgramID:      programID,
		CompletionDate: completed,
		FinalScore:     85,
		SkillsAcquired: []model.SkillLevel{{Name: "research", Level: 2}},
		FormationMetrics: model.FormationMetrics{
			GrowthScore:      70,
			AlignmentScore:   75,
			SensitivityScore: 80,
		},
		Proof: model.AchievementProof{
			CompletionProofHash: "2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae",
			AttestorSignature:   "sig",
		},
	}
}

// seedRecords registers matching record-of-truth data for a snapshot.
func seedRecords(records *provider.StaticProvider, snap *model.AchievementSnapshot) {
	records.SetCompletion(model.CompletionRecord{
		SubjectID:      snap.SubjectID,
		ProgramID:      snap.ProgramID,
		Completed:      true,
		CompletionDate: snap.CompletionDate,
		FinalScore:     snap.FinalScore,
	})
	competencies := make([]model.CompetencyRecord, 0, len(snap.SkillsAcquired))
	for _, skill := range snap.SkillsAcquired {
		competencies = append(competencies, model.CompetencyRecord{SkillName: skill.Name, Level: skill.Level})
	}
	records.SetCompetencies(snap.SubjectID, snap.ProgramID, competencies)
	records.SetFormation(model.FormationRecord{
		SubjectID: snap.SubjectID,
		ProgramID: snap.ProgramID,
		Metrics: map[string]float64{
			"growthScore":      snap.FormationMetrics.GrowthScore,
			"alignmentScore":   snap.FormationMetrics.AlignmentScore,
			"sensitivityScore": snap.FormationMetrics.SensitivityScore,
		},
	})
}

// issue mints a credential through the real minting service so verification
// sees production-shaped metadata.
func issue(t *testing.T, gateway ledger.Gateway, snap *model.AchievementSnapshot) *model.Credential {
	t.Helper()
	cred, err := minting.NewService(gateway).Issue(context.Background(), snap)
	require.NoError(t, err)
	return cred
}

func pipelineStages(t *testing.T, rep *model.VerificationReport) map[string]model.StageResult {
	t.Helper()
	out := make(map[string]model.StageResult)
	for _, sr := range rep.StageResults {
		out[sr.Stage] = sr
	}
	return out
}

func TestVerifyEndToEnd(t *testing.T) {
	gateway := newFakeGateway()
	records := provider.NewStaticProvider()

	snap := testSnapshot("program-1")
	seedRecords(records, snap)
	cred := issue(t, gateway, snap)

	svc := NewService(gateway, records)
	rep, err := svc.Verify(context.Background(), cred.LedgerRef)
	require.NoError(t, err)

	assert.True(t, rep.OverallValid)
	assert.False(t, rep.CacheHit)
	assert.Empty(t, rep.Errors)
	require.Len(t, rep.StageResults, 5)
	for _, sr := range rep.StageResults {
		assert.True(t, sr.Passed, "stage %s should pass", sr.Stage)
	}
}

func TestVerifyUnknownRefIsNotAnError(t *testing.T) {
	gateway := newFakeGateway()
	svc := NewService(gateway, provider.NewStaticProvider())

	rep, err := svc.Verify(context.Background(), "0x0000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err, "an unknown ref is a failed report, not an exception")

	assert.False(t, rep.OverallValid)
	assert.NotEmpty(t, rep.Errors)

	// Diagnostic completeness: every stage still ran.
	require.Len(t, rep.StageResults, 5)
	stages := pipelineStages(t, rep)
	assert.False(t, stages[model.StageLedger].Passed)
	assert.False(t, stages[model.StageCompletion].Passed)
}

func TestVerifyOwnerMismatch(t *testing.T) {
	gateway := newFakeGateway()
	records := provider.NewStaticProvider()

	snap := testSnapshot("program-1")
	seedRecords(records, snap)
	cred := issue(t, gateway, snap)
	gateway.setOwner(cred.LedgerRef, "someone-else")

	svc := NewService(gateway, records)
	rep, err := svc.Verify(context.Background(), cred.LedgerRef)
	require.NoError(t, err)

	stages := pipelineStages(t, rep)
	assert.False(t, stages[model.StageLedger].Passed)
	assert.Contains(t, stages[model.StageLedger].Detail, "does not match")
	assert.True(t, stages[model.StageMetadata].Passed, "later stages still run and can pass")
	assert.False(t, rep.OverallValid)
}

func TestVerifyTamperedMetadata(t *testing.T) {
	gateway := newFakeGateway()
	records := provider.NewStaticProvider()

	snap := testSnapshot("program-1")
	seedRecords(records, snap)
	cred := issue(t, gateway, snap)
	gateway.setField(cred.LedgerRef, "external_url", "https://phishing.example.com/x")

	svc := NewService(gateway, records)
	rep, err := svc.Verify(context.Background(), cred.LedgerRef)
	require.NoError(t, err)

	stages := pipelineStages(t, rep)
	assert.False(t, stages[model.StageMetadata].Passed)
	assert.True(t, stages[model.StageLedger].Passed)
	assert.True(t, stages[model.StageCompletion].Passed)
	assert.False(t, rep.OverallValid)
}

func TestVerifyCompetencyMismatch(t *testing.T) {
	gateway := newFakeGateway()
	records := provider.NewStaticProvider()

	snap := testSnapshot("program-1")
	seedRecords(records, snap)
	// The record of truth only shows a lower level than claimed.
	records.SetCompetencies(snap.SubjectID, snap.ProgramID, []model.CompetencyRecord{
		{SkillName: "research", Level: 1},
	})
	cred := issue(t, gateway, snap)

	svc := NewService(gateway, records)
	rep, err := svc.Verify(context.Background(), cred.LedgerRef)
	require.NoError(t, err)

	stages := pipelineStages(t, rep)
	assert.False(t, stages[model.StageCompetency].Passed)
	assert.False(t, rep.OverallValid)
}

func TestVerifyFormationDrift(t *testing.T) {
	gateway := newFakeGateway()
	records := provider.NewStaticProvider()

	snap := testSnapshot("program-1")
	seedRecords(records, snap)
	records.SetFormation(model.FormationRecord{
		SubjectID: snap.SubjectID,
		ProgramID: snap.ProgramID,
		Metrics: map[string]float64{
			"growthScore":      70,
			"alignmentScore":   60, // claimed 75, beyond the default tolerance
			"sensitivityScore": 80,
		},
	})
	cred := issue(t, gateway, snap)

	svc := NewService(gateway, records)
	rep, err := svc.Verify(context.Background(), cred.LedgerRef)
	require.NoError(t, err)

	stages := pipelineStages(t, rep)
	assert.False(t, stages[model.StageFormation].Passed)
	assert.Contains(t, stages[model.StageFormation].Detail, "alignmentScore")
}

func TestVerifyTransportFault(t *testing.T) {
	gateway := newFakeGateway()
	gateway.failExistence = errors.New("chain unreachable")

	svc := NewService(gateway, provider.NewStaticProvider())
	_, err := svc.Verify(context.Background(), "0xdeadbeef")
	require.Error(t, err)

	var lerr *ledger.Error
	require.ErrorAs(t, err, &lerr)
}

func TestVerifyMetadataTransportFaultNotCached(t *testing.T) {
	gateway := newFakeGateway()
	records := provider.NewStaticProvider()

	snap := testSnapshot("program-1")
	seedRecords(records, snap)
	cred := issue(t, gateway, snap)

	clock := &fakeClock{t: time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)}
	reportCache := cache.New(cache.WithClock(clock.Now))
	svc := NewService(gateway, records,
		WithCache(reportCache),
		WithClock(clock.Now),
	)

	gateway.setMetadataFault(errors.New("chain unreachable"))
	_, err := svc.Verify(context.Background(), cred.LedgerRef)
	require.Error(t, err, "a metadata transport fault is retryable, not a verdict")

	var lerr *ledger.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, 0, reportCache.Len(), "faulted runs must not leave a cached verdict")

	// The ledger recovers; the next call runs a fresh pipeline instead of
	// serving a verdict poisoned by the outage.
	gateway.setMetadataFault(nil)
	clock.Advance(time.Minute)
	rep, err := svc.Verify(context.Background(), cred.LedgerRef)
	require.NoError(t, err)
	assert.False(t, rep.CacheHit)
	assert.True(t, rep.OverallValid)
}

func TestVerifyCacheHitWithinTTL(t *testing.T) {
	gateway := newFakeGateway()
	records := provider.NewStaticProvider()

	snap := testSnapshot("program-1")
	seedRecords(records, snap)
	cred := issue(t, gateway, snap)

	clock := &fakeClock{t: time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)}
	reportCache := cache.New(cache.WithClock(clock.Now))
	svc := NewService(gateway, records,
		WithCache(reportCache),
		WithClock(clock.Now),
	)

	first, err := svc.Verify(context.Background(), cred.LedgerRef)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	clock.Advance(time.Minute)
	second, err := svc.Verify(context.Background(), cred.LedgerRef)
	require.NoError(t, err)

	assert.True(t, second.CacheHit)
	assert.Equal(t, first.RequestID, second.RequestID, "cached content is returned as-is")
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
	assert.Equal(t, first.OverallValid, second.OverallValid)

	cacheStage, ok := second.Stage(model.StageCache)
	require.True(t, ok)
	assert.True(t, cacheStage.Passed)
}

func TestVerifyCacheExpiry(t *testing.T) {
	gateway := newFakeGateway()
	records := provider.NewStaticProvider()

	snap := testSnapshot("program-1")
	seedRecords(records, snap)
	cred := issue(t, gateway, snap)

	clock := &fakeClock{t: time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)}
	reportCache := cache.New(cache.WithClock(clock.Now))
	svc := NewService(gateway, records,
		WithCache(reportCache),
		WithClock(clock.Now),
	)

	first, err := svc.Verify(context.Background(), cred.LedgerRef)
	require.NoError(t, err)
	assert.True(t, first.OverallValid)

	// The underlying record changes while the cache is warm.
	records.SetCompletion(model.CompletionRecord{
		SubjectID: snap.SubjectID,
		ProgramID: snap.ProgramID,
		Completed: false,
	})

	clock.Advance(4 * time.Minute)
	cached, err := svc.Verify(context.Background(), cred.LedgerRef)
	require.NoError(t, err)
	assert.True(t, cached.CacheHit)
	assert.True(t, cached.OverallValid, "stale-but-valid entries are served until expiry")

	clock.Advance(2 * time.Minute)
	fresh, err := svc.Verify(context.Background(), cred.LedgerRef)
	require.NoError(t, err)
	assert.False(t, fresh.CacheHit)
	assert.False(t, fresh.OverallValid, "a fresh run sees the changed record")
	assert.NotEqual(t, first.RequestID, fresh.RequestID)
}
