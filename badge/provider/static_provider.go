package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
)

// StaticProvider is an in-memory RecordProvider for tests and local wiring.
type StaticProvider struct {
	mu           sync.RWMutex
	completions  map[string]model.CompletionRecord
	competencies map[string][]model.CompetencyRecord
	formations   map[string]model.FormationRecord
}

// NewStaticProvider creates an empty in-memory provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		completions:  make(map[string]model.CompletionRecord),
		competencies: make(map[string][]model.CompetencyRecord),
		formations:   make(map[string]model.FormationRecord),
	}
}

func recordKey(subjectID, programID string) string {
	return subjectID + "|" + programID
}

// SetCompletion stores a completion record.
func (p *StaticProvider) SetCompletion(record model.CompletionRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completions[recordKey(record.SubjectID, record.ProgramID)] = record
}

// SetCompetencies stores the skill attainments for a subject and program.
func (p *StaticProvider) SetCompetencies(subjectID, programID string, records []model.CompetencyRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.competencies[recordKey(subjectID, programID)] = records
}

// SetFormation stores a formation record.
func (p *StaticProvider) SetFormation(record model.FormationRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.formations[recordKey(record.SubjectID, record.ProgramID)] = record
}

// CompletionRecord implements RecordProvider.
func (p *StaticProvider) CompletionRecord(ctx context.Context, subjectID, programID string) (*model.CompletionRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	record, ok := p.completions[recordKey(subjectID, programID)]
	if !ok {
		return nil, fmt.Errorf("no completion record for subject %s in program %s", subjectID, programID)
	}
	return &record, nil
}

// CompetencyRecords implements RecordProvider.
func (p *StaticProvider) CompetencyRecords(ctx context.Context, subjectID, programID string) ([]model.CompetencyRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	records, ok := p.competencies[recordKey(subjectID, programID)]
	if !ok {
		return nil, fmt.Errorf("no competency records for subject %s in program %s", subjectID, programID)
	}
	out := make([]model.CompetencyRecord, len(records))
	copy(out, records)
	return out, nil
}

// FormationRecord implements RecordProvider.
func (p *StaticProvider) FormationRecord(ctx context.Context, subjectID, programID string) (*model.FormationRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	record, ok := p.formations[recordKey(subjectID, programID)]
	if !ok {
		return nil, fmt.Errorf("no formation record for subject %s in program %s", subjectID, programID)
	}
	return &record, nil
}
