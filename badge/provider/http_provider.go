package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
)

// HTTPProvider queries the record-of-truth subsystems over their internal
// REST endpoints. Requests are traced through the otelhttp transport.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// HTTPOpt configures an HTTPProvider.
type HTTPOpt func(*HTTPProvider)

// WithHTTPClient overrides the underlying HTTP client. The otel transport
// is not re-applied to a caller-supplied client.
func WithHTTPClient(client *http.Client) HTTPOpt {
	return func(p *HTTPProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// NewHTTPProvider creates a record provider against the given base URL,
// e.g. https://records.internal.scrolluniversity.org.
func NewHTTPProvider(baseURL string, opts ...HTTPOpt) *HTTPProvider {
	p := &HTTPProvider{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CompletionRecord fetches the enrollment subsystem's completion record.
func (p *HTTPProvider) CompletionRecord(ctx context.Context, subjectID, programID string) (*model.CompletionRecord, error) {
	var record model.CompletionRecord
	if err := p.get(ctx, p.recordURL(subjectID, programID, "completion"), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// CompetencyRecords fetches the assessment subsystem's skill attainments.
func (p *HTTPProvider) CompetencyRecords(ctx context.Context, subjectID, programID string) ([]model.CompetencyRecord, error) {
	var records []model.CompetencyRecord
	if err := p.get(ctx, p.recordURL(subjectID, programID, "competencies"), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FormationRecord fetches the formation tracking subsystem's metrics.
func (p *HTTPProvider) FormationRecord(ctx context.Context, subjectID, programID string) (*model.FormationRecord, error) {
	var record model.FormationRecord
	if err := p.get(ctx, p.recordURL(subjectID, programID, "formation"), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (p *HTTPProvider) recordURL(subjectID, programID, kind string) string {
	return fmt.Sprintf("%s/subjects/%s/programs/%s/%s",
		p.baseURL, url.PathEscape(subjectID), url.PathEscape(programID), kind)
}

func (p *HTTPProvider) get(ctx context.Context, apiURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build record request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call record endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("record endpoint returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read record response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal record JSON: %w", err)
	}
	return nil
}
