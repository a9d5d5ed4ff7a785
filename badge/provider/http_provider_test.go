package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProviderFetchesRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/subjects/subject-1/programs/program-1/completion":
			w.Write([]byte(`{"subjectId":"subject-1","programId":"program-1","completed":true,"completionDate":"2025-06-15T09:30:00Z","finalScore":85}`))
		case "/subjects/subject-1/programs/program-1/competencies":
			w.Write([]byte(`[{"skillName":"research","level":2}]`))
		case "/subjects/subject-1/programs/program-1/formation":
			w.Write([]byte(`{"subjectId":"subject-1","programId":"program-1","metrics":{"growthScore":70}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL, WithHTTPClient(server.Client()))
	ctx := context.Background()

	completion, err := p.CompletionRecord(ctx, "subject-1", "program-1")
	require.NoError(t, err)
	assert.True(t, completion.Completed)
	assert.Equal(t, 85.0, completion.FinalScore)

	competencies, err := p.CompetencyRecords(ctx, "subject-1", "program-1")
	require.NoError(t, err)
	require.Len(t, competencies, 1)
	assert.Equal(t, "research", competencies[0].SkillName)

	formation, err := p.FormationRecord(ctx, "subject-1", "program-1")
	require.NoError(t, err)
	assert.Equal(t, 70.0, formation.Metrics["growthScore"])
}

func TestHTTPProviderNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL, WithHTTPClient(server.Client()))
	_, err := p.CompletionRecord(context.Background(), "subject-1", "program-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-200")
}
