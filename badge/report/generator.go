// Package report wraps verification outcomes in auditable envelopes and
// optionally attests them as signed tokens.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
)

// DefaultAttribution identifies this system in generated envelopes.
const DefaultAttribution = "ScrollUniversity Badge Verification Service"

// Envelope is an auditable wrapper around a verification outcome: who asked
// (request id), what was asked (the credential ref), what came back, when,
// and which system answered.
type Envelope struct {
	RequestID     string                    `json:"requestId"`
	CredentialRef string                    `json:"credentialRef"`
	Report        *model.VerificationReport `json:"report,omitempty"`
	LookupError   string                    `json:"lookupError,omitempty"`
	GeneratedAt   time.Time                 `json:"generatedAt"`
	Attribution   string                    `json:"attribution"`
}

// GeneratorOpt configures a generator.
type GeneratorOpt func(*Generator)

// WithAttribution overrides the attribution string.
func WithAttribution(attribution string) GeneratorOpt {
	return func(g *Generator) {
		if attribution != "" {
			g.attribution = attribution
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) GeneratorOpt {
	return func(g *Generator) {
		g.now = now
	}
}

// Generator produces audit envelopes. Construction is pure: no stores are
// touched and no I/O happens.
type Generator struct {
	attribution string
	now         func() time.Time
	newID       func() string
}

// NewGenerator creates an envelope generator.
func NewGenerator(opts ...GeneratorOpt) *Generator {
	g := &Generator{
		attribution: DefaultAttribution,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate wraps a verification report in a fresh audit envelope.
func (g *Generator) Generate(ref string, rep *model.VerificationReport) *Envelope {
	return &Envelope{
		RequestID:     g.newID(),
		CredentialRef: ref,
		Report:        rep,
		GeneratedAt:   g.now().UTC(),
		Attribution:   g.attribution,
	}
}

// GenerateFailure wraps a failed lookup (no report could be produced) in an
// audit envelope.
func (g *Generator) GenerateFailure(ref string, lookupErr error) *Envelope {
	env := &Envelope{
		RequestID:     g.newID(),
		CredentialRef: ref,
		GeneratedAt:   g.now().UTC(),
		Attribution:   g.attribution,
	}
	if lookupErr != nil {
		env.LookupError = lookupErr.Error()
	}
	return env
}
