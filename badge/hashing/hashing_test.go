package hashing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
)

func testSnapshot() *model.AchievementSnapshot {
	completed, _ := time.Parse(time.RFC3339, "2025-06-15T09:30:00Z")
	return &model.AchievementSnapshot{
		SubjectID:      "subject-1",
		ProgramID:      "program-1",
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

func TestFingerprintDeterministic(t *testing.T) {
	engine := NewEngine()

	first, err := engine.Fingerprint(testSnapshot())
	require.NoError(t, err)
	second, err := engine.Fingerprint(testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64, "expected hex-encoded SHA-256")
}

func TestFingerprintSensitivity(t *testing.T) {
	engine := NewEngine()

	base, err := engine.Fingerprint(testSnapshot())
	require.NoError(t, err)

	changed := testSnapshot()
	changed.FinalScore = 86
	other, err := engine.Fingerprint(changed)
	require.NoError(t, err)

	assert.NotEqual(t, base, other)
}

func TestFingerprintIgnoresNonCanonicalFields(t *testing.T) {
	engine := NewEngine()

	base, err := engine.Fingerprint(testSnapshot())
	require.NoError(t, err)

	// Skills, formation metrics and XP are not part of the canonical
	// subset; changing them must not move the fingerprint.
	changed := testSnapshot()
	changed.SkillsAcquired = append(changed.SkillsAcquired, model.SkillLevel{Name: "exegesis", Level: 1})
	changed.FormationMetrics.GrowthScore = 99
	changed.XPEarned = 1000
	other, err := engine.Fingerprint(changed)
	require.NoError(t, err)

	assert.Equal(t, base, other)
}

func TestFingerprintMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.AchievementSnapshot)
		field  string
	}{
		{"missing subject", func(s *model.AchievementSnapshot) { s.SubjectID = "" }, "subjectId"},
		{"missing program", func(s *model.AchievementSnapshot) { s.ProgramID = "" }, "programId"},
		{"missing date", func(s *model.AchievementSnapshot) { s.CompletionDate = time.Time{} }, "completionDate"},
		{"missing proof hash", func(s *model.AchievementSnapshot) { s.Proof.CompletionProofHash = "" }, "proof.completionProofHash"},
	}

	engine := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := testSnapshot()
			tt.mutate(snap)

			_, err := engine.Fingerprint(snap)
			require.Error(t, err)

			var malformed *MalformedInputError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.field, malformed.Field)
		})
	}
}

func TestCanonicalJSONKeyOrderIndependent(t *testing.T) {
	first := []byte(`{"b": {"y": 2, "x": 1}, "a": [1, 2, {"n": "v", "m": true}], "c": "s"}`)
	second := []byte(`{"c": "s", "a": [1, 2, {"m": true, "n": "v"}], "b": {"x": 1, "y": 2}}`)

	var firstDoc, secondDoc map[string]interface{}
	require.NoError(t, json.Unmarshal(first, &firstDoc))
	require.NoError(t, json.Unmarshal(second, &secondDoc))

	firstCanonical, err := canonicalJSON(firstDoc)
	require.NoError(t, err)
	secondCanonical, err := canonicalJSON(secondDoc)
	require.NoError(t, err)

	assert.Equal(t, string(firstCanonical), string(secondCanonical))
	assert.JSONEq(t, string(first), string(firstCanonical))
}

func TestFingerprintJSONLDMode(t *testing.T) {
	engine := NewEngine(WithJSONLDCanonicalization())

	first, err := engine.Fingerprint(testSnapshot())
	require.NoError(t, err)
	second, err := engine.Fingerprint(testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, first, second)

	plain, err := NewEngine().Fingerprint(testSnapshot())
	require.NoError(t, err)
	assert.NotEqual(t, plain, first, "normalization modes produce distinct digests")
}
