// Package metadata assembles the versioned badge metadata document that is
// anchored on the ledger and served from the trusted metadata domain.
package metadata

import (
	"fmt"
	"net/url"
	"time"

	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
)

// SchemaVersion is the current badge metadata document version.
const SchemaVersion = "1.0"

// DefaultTrustedDomain is the domain badge metadata is served from unless
// the builder is configured otherwise.
const DefaultTrustedDomain = "badges.scrolluniversity.org"

// Document is a badge metadata document in JSON form.
type Document map[string]interface{}

// BuilderOpt configures a metadata builder.
type BuilderOpt func(*Builder)

// WithTrustedDomain overrides the trusted metadata domain.
func WithTrustedDomain(domain string) BuilderOpt {
	return func(b *Builder) {
		if domain != "" {
			b.trustedDomain = domain
		}
	}
}

// WithoutSchemaValidation disables JSON Schema validation of built
// documents. Intended for callers that validate downstream.
func WithoutSchemaValidation() BuilderOpt {
	return func(b *Builder) {
		b.validate = false
	}
}

// Builder assembles badge metadata documents.
type Builder struct {
	trustedDomain string
	validate      bool
}

// NewBuilder creates a metadata builder.
func NewBuilder(opts ...BuilderOpt) *Builder {
	b := &Builder{
		trustedDomain: DefaultTrustedDomain,
		validate:      true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// TrustedDomain returns the domain metadata URLs are restricted to.
func (b *Builder) TrustedDomain() string {
	return b.trustedDomain
}

// MetadataURI returns the canonical metadata location for a verification
// hash: https://{trusted-domain}/metadata/{hash}.
func (b *Builder) MetadataURI(verificationHash string) string {
	return fmt.Sprintf("https://%s/metadata/%s", b.trustedDomain, verificationHash)
}

// Build assembles the metadata document for a snapshot and its verification
// hash, validating it against the embedded schema unless disabled.
func (b *Builder) Build(snap *model.AchievementSnapshot, verificationHash string) (Document, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	if verificationHash == "" {
		return nil, fmt.Errorf("verification hash is required")
	}

	attributes := []interface{}{
		attribute("Final Score", snap.FinalScore),
		attribute("Growth Score", snap.FormationMetrics.GrowthScore),
		attribute("Alignment Score", snap.FormationMetrics.AlignmentScore),
		attribute("Sensitivity Score", snap.FormationMetrics.SensitivityScore),
	}
	if snap.XPEarned > 0 {
		attributes = append(attributes, attribute("XP Earned", snap.XPEarned))
	}
	if snap.ProgramLevel != "" {
		attributes = append(attributes, attribute("Program Level", snap.ProgramLevel))
	}
	for _, skill := range snap.SkillsAcquired {
		attributes = append(attributes, attribute("Skill: "+skill.Name, skill.Level))
	}

	skills := make([]interface{}, 0, len(snap.SkillsAcquired))
	for _, skill := range snap.SkillsAcquired {
		skills = append(skills, map[string]interface{}{
			"name":  skill.Name,
			"level": skill.Level,
		})
	}

	formation := map[string]interface{}{
		"growthScore":      snap.FormationMetrics.GrowthScore,
		"alignmentScore":   snap.FormationMetrics.AlignmentScore,
		"sensitivityScore": snap.FormationMetrics.SensitivityScore,
	}
	for name, value := range snap.FormationMetrics.Extra {
		formation[name] = value
	}

	doc := Document{
		"schemaVersion":    SchemaVersion,
		"name":             fmt.Sprintf("%s Completion Badge", snap.ProgramID),
		"description":      fmt.Sprintf("Certifies completion of program %s by subject %s.", snap.ProgramID, snap.SubjectID),
		"image":            fmt.Sprintf("https://%s/images/%s.png", b.trustedDomain, snap.ProgramID),
		"external_url":     fmt.Sprintf("https://%s/credentials/%s", b.trustedDomain, verificationHash),
		"subjectId":        snap.SubjectID,
		"programId":        snap.ProgramID,
		"completionDate":   snap.CompletionDate.UTC().Format(time.RFC3339),
		"finalScore":       snap.FinalScore,
		"skills":           skills,
		"formation":        formation,
		"verificationHash": verificationHash,
		"attributes":       attributes,
	}

	if b.validate {
		if err := validateDocument(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func attribute(traitType string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"trait_type": traitType,
		"value":      value,
	}
}

// requiredFields are the fields the integrity stage demands of any metadata
// document returned by the ledger.
var requiredFields = []string{
	"schemaVersion", "name", "subjectId", "programId",
	"completionDate", "finalScore", "verificationHash", "attributes",
}

// CheckIntegrity inspects a metadata document fetched back from the ledger
// and returns the list of problems found: missing required fields, an empty
// attribute list, or URLs pointing outside the trusted domain. An empty
// result means the document is intact.
func CheckIntegrity(doc map[string]interface{}, trustedDomain string) []string {
	if doc == nil {
		return []string{"metadata document is missing"}
	}

	var problems []string
	for _, field := range requiredFields {
		if _, ok := doc[field]; !ok {
			problems = append(problems, fmt.Sprintf("missing required field %q", field))
		}
	}

	if attrs, ok := doc["attributes"].([]interface{}); ok && len(attrs) == 0 {
		problems = append(problems, "attribute list is empty")
	}

	for _, field := range []string{"image", "external_url"} {
		raw, ok := doc[field].(string)
		if !ok || raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("field %q is not a valid URL", field))
			continue
		}
		if u.Host != trustedDomain {
			problems = append(problems, fmt.Sprintf("field %q points outside the trusted domain: %s", field, u.Host))
		}
	}
	return problems
}
