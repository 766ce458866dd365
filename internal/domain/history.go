package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// HistoryKind tags the payload carried by a HistoryRecord.
type HistoryKind string

const (
	HistoryKindAnalysis   HistoryKind = "analysis"
	HistoryKindComparison HistoryKind = "comparison"
	HistoryKindGeneration HistoryKind = "generation"
)

// Valid reports whether k is a known kind.
func (k HistoryKind) Valid() bool {
	switch k {
	case HistoryKindAnalysis, HistoryKindComparison, HistoryKindGeneration:
		return true
	}
	return false
}

// HistoryRecord is the envelope persisted by every history backend.
// Payload holds the JSON encoding of exactly one AnalysisResult, ComparisonResult or GenerationRecord.
type HistoryRecord struct {
	ID        string          `json:"id"`
	Kind      HistoryKind     `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Model     string          `json:"model"`
	Summary   string          `json:"summary"`
	Payload   json.RawMessage `json:"payload"`
}

// HistoryFilter narrows List results. A zero Limit means DefaultHistoryLimit.
type HistoryFilter struct {
	Kind   HistoryKind
	Limit  int
	Search string
}

// EffectiveLimit returns the limit to apply.
func (f HistoryFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultHistoryLimit
	}
	return f.Limit
}

// NewAnalysisHistory wraps an analysis result for storage.
func NewAnalysisHistory(id, prompt string, result AnalysisResult) (HistoryRecord, error) {
	return newHistoryRecord(id, HistoryKindAnalysis, result.Timestamp, result.ModelUsed, prompt, result)
}

// NewComparisonHistory wraps a comparison result for storage.
func NewComparisonHistory(id string, result ComparisonResult) (HistoryRecord, error) {
	return newHistoryRecord(id, HistoryKindComparison, result.Timestamp, result.ModelUsed, result.Original.Prompt, result)
}

// NewGenerationHistory wraps a generation record for storage. The envelope shares the record's id.
func NewGenerationHistory(record GenerationRecord) (HistoryRecord, error) {
	return newHistoryRecord(record.ID, HistoryKindGeneration, record.Timestamp, record.Model, record.Template, record)
}

func newHistoryRecord(id string, kind HistoryKind, ts time.Time, model, summary string, payload interface{}) (HistoryRecord, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return HistoryRecord{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return HistoryRecord{
		ID:        id,
		Kind:      kind,
		Timestamp: ts,
		Model:     model,
		Summary:   truncateSummary(summary, 200),
		Payload:   raw,
	}, nil
}

func truncateSummary(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// DecodeGeneration unmarshals a generation payload.
func (r HistoryRecord) DecodeGeneration() (GenerationRecord, error) {
	var out GenerationRecord
	if r.Kind != HistoryKindGeneration {
		return out, fmt.Errorf("history record %s is %s, not generation", r.ID, r.Kind)
	}
	err := json.Unmarshal(r.Payload, &out)
	return out, err
}

// DecodeAnalysis unmarshals an analysis payload.
func (r HistoryRecord) DecodeAnalysis() (AnalysisResult, error) {
	var out AnalysisResult
	if r.Kind != HistoryKindAnalysis {
		return out, fmt.Errorf("history record %s is %s, not analysis", r.ID, r.Kind)
	}
	err := json.Unmarshal(r.Payload, &out)
	return out, err
}

// DecodeComparison unmarshals a comparison payload.
func (r HistoryRecord) DecodeComparison() (ComparisonResult, error) {
	var out ComparisonResult
	if r.Kind != HistoryKindComparison {
		return out, fmt.Errorf("history record %s is %s, not comparison", r.ID, r.Kind)
	}
	err := json.Unmarshal(r.Payload, &out)
	return out, err
}
