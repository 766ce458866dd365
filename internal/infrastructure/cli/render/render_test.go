package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/promptsmith/internal/domain"
)

func TestAnalysisOrdersCanonicalMetricsFirst(t *testing.T) {
	var buf bytes.Buffer
	Analysis(&buf, domain.AnalysisResult{
		Metrics: map[string]domain.AnalysisMetric{
			"tone":                  {Score: 0.5},
			domain.MetricOutputSpec: {Score: 0.3},
			domain.MetricClarity:    {Score: 0.9, Description: "Clear goal"},
		},
		Suggestions:    []string{"Add an example"},
		EnhancedPrompt: "Sort the array ascending",
		ModelUsed:      "gpt-4o-mini",
	})
	out := buf.String()

	assert.NotContains(t, out, "\x1b[", "buffer output must not carry escape codes")
	clarity := strings.Index(out, "clarity")
	outputSpec := strings.Index(out, "output_spec")
	tone := strings.Index(out, "tone")
	require.True(t, clarity >= 0 && outputSpec >= 0 && tone >= 0, out)
	assert.Less(t, clarity, outputSpec)
	assert.Less(t, outputSpec, tone)
	assert.Contains(t, out, "0.90")
	assert.Contains(t, out, "- Add an example")
	assert.Contains(t, out, "Sort the array ascending")
}

func TestGenerationMarksCachedBatches(t *testing.T) {
	cachedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	Generation(&buf, domain.GenerationRecord{
		Model:    "gpt-4o-mini",
		IsCached: true,
		CachedAt: &cachedAt,
		Data: []domain.GeneratedItem{
			{Content: "first", Score: 0.8, Index: 0},
			{Content: "second", Score: 0.2, Index: 1},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "2 items")
	assert.Contains(t, out, "served from cache (cached 2026-03-01T10:00:00Z)")
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "#2")
}

func TestBatchEvaluationSortsByOrdinal(t *testing.T) {
	var buf bytes.Buffer
	BatchEvaluation(&buf, domain.BatchEvaluationResult{
		TotalPrompts:  3,
		PassedPrompts: 2,
		AverageScore:  0.5,
		Results: map[string]domain.EvaluationResult{
			"prompt_10": {Prompt: "tenth", PassedThresholds: true},
			"prompt_2":  {Prompt: "second", PassedThresholds: false},
			"prompt_1":  {Prompt: "first", PassedThresholds: true},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "2/3 passed")
	assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
	assert.Less(t, strings.Index(out, "second"), strings.Index(out, "tenth"))
}

func TestHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	History(&buf, nil)
	assert.Equal(t, "No history recorded yet.\n", buf.String())
}

func TestHealth(t *testing.T) {
	var buf bytes.Buffer
	Health(&buf, domain.HealthReport{Checks: []domain.HealthCheck{
		{Name: "Config file", Status: domain.HealthOK, Details: "loaded"},
		{Name: "API keys", Status: domain.HealthWarn, Details: "missing for claude"},
	}})
	assert.Equal(t, "[OK] Config file - loaded\n[WARN] API keys - missing for claude\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b c", truncate("a\n b\tc", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestSpinnerSilentOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Analyzing")
	s.Start()
	s.Stop()
	s.Stop()
	assert.Empty(t, buf.String())
}

func TestPromptValidation(t *testing.T) {
	tests := []struct {
		name   string
		result domain.PromptValidation
		want   string
	}{
		{
			name:   "valid",
			result: domain.PromptValidation{Valid: true, Message: "All variables match CSV columns.", Variables: []string{"text"}},
			want:   "[VALID] All variables match CSV columns.\n  variables: text\n",
		},
		{
			name:   "invalid without variables",
			result: domain.PromptValidation{Message: "Prompt cannot be empty.", Variables: []string{}},
			want:   "[INVALID] Prompt cannot be empty.\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PromptValidation(&buf, tt.result)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestEvaluationTemplates(t *testing.T) {
	var buf bytes.Buffer
	EvaluationTemplates(&buf, []domain.EvaluationTemplate{
		{ID: "relevance", Name: "Topic Relevance", Description: "Stays on topic.", Prompt: "Is {text} about {topic}?", Variables: []string{"text", "topic"}},
	})
	assert.Equal(t, "relevance (text, topic)\n  Topic Relevance: Stays on topic.\n  Is {text} about {topic}?\n", buf.String())
}
