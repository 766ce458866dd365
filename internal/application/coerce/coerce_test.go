package coerce

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/promptsmith/internal/domain"
)

func TestScoreClamping(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  float64
	}{
		{name: "in range", input: 0.9, want: 0.9},
		{name: "above range", input: 1.7, want: 1.0},
		{name: "below range", input: -0.3, want: 0.0},
		{name: "numeric string", input: " 0.25 ", want: 0.25},
		{name: "non numeric string", input: "excellent", want: 0.5},
		{name: "missing", input: nil, want: 0.5},
		{name: "bool", input: true, want: 0.5},
		{name: "nan", input: math.NaN(), want: 0.5},
		{name: "integer", input: 1, want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.input); got != tt.want {
				t.Fatalf("Score(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAnalysisDefaultsForEmptyObject(t *testing.T) {
	prompt := "Write a function to sort an array"
	result := Analysis(map[string]interface{}{}, prompt)

	require.Len(t, result.Metrics, 5)
	for _, name := range domain.MetricNames {
		m, ok := result.Metrics[name]
		require.True(t, ok, "missing metric %s", name)
		assert.Equal(t, 0.5, m.Score)
		assert.Equal(t, IncompleteDescription, m.Description)
		assert.Len(t, m.Suggestions, 2)
	}
	assert.Equal(t, []string{DefaultOverallSuggestion}, result.Suggestions)
	assert.Equal(t, prompt, result.EnhancedPrompt)
}

func TestAnalysisDefaultsForNonObject(t *testing.T) {
	for _, parsed := range []interface{}{nil, "text", []interface{}{1.0}} {
		result := Analysis(parsed, "p")
		assert.Len(t, result.Metrics, 5)
		assert.Equal(t, "p", result.EnhancedPrompt)
	}
}

func TestAnalysisKeepsReportedFields(t *testing.T) {
	parsed := map[string]interface{}{
		"metrics": map[string]interface{}{
			"clarity": map[string]interface{}{
				"score":       0.9,
				"description": "clear",
				"suggestions": []interface{}{},
			},
			"structure": map[string]interface{}{"score": "1.7"},
			"tone":      0.4,
			"examples":  "n/a",
		},
		"suggestions":     []interface{}{"add examples", nil, 3.0},
		"enhanced_prompt": "Write a Python function ...",
	}

	result := Analysis(parsed, "Write a function to sort an array")

	assert.Len(t, result.Metrics, 4)
	assert.Equal(t, 0.9, result.Metrics["clarity"].Score)
	assert.Equal(t, "clear", result.Metrics["clarity"].Description)
	assert.Equal(t, []string{}, result.Metrics["clarity"].Suggestions)

	assert.Equal(t, 1.0, result.Metrics["structure"].Score)
	assert.Equal(t, MissingDescription, result.Metrics["structure"].Description)

	assert.Equal(t, 0.4, result.Metrics["tone"].Score)
	assert.Equal(t, DefaultMetric("examples"), result.Metrics["examples"])

	assert.Equal(t, []string{"add examples", "3"}, result.Suggestions)
	assert.Equal(t, "Write a Python function ...", result.EnhancedPrompt)
}

func TestAnalysisEmptyEnhancedPromptFallsBack(t *testing.T) {
	result := Analysis(map[string]interface{}{"enhanced_prompt": "   "}, "orig")
	assert.Equal(t, "orig", result.EnhancedPrompt)

	result = Analysis(map[string]interface{}{"enhanced_prompt": 12.0}, "orig")
	assert.Equal(t, "orig", result.EnhancedPrompt)
}

func TestAnalysisEmptyMetricsMapIsDefaulted(t *testing.T) {
	result := Analysis(map[string]interface{}{"metrics": map[string]interface{}{}}, "p")
	assert.Equal(t, DefaultMetrics(), result.Metrics)
}

func TestDefaultMetricsAreIndependentCopies(t *testing.T) {
	a := DefaultMetrics()
	a[domain.MetricClarity].Suggestions[0] = "mutated"
	b := DefaultMetrics()
	assert.Equal(t, "Make the prompt more clear and concise", b[domain.MetricClarity].Suggestions[0])
}

func TestComparisonFlattensSuggestions(t *testing.T) {
	parsed := map[string]interface{}{
		"original_prompt": map[string]interface{}{
			"prompt": "sort stuff",
			"metrics": map[string]interface{}{
				"structure": map[string]interface{}{"score": 0.2, "suggestions": []interface{}{"use sections"}},
				"clarity":   map[string]interface{}{"score": 0.3, "suggestions": []interface{}{"be specific", "name the language"}},
			},
		},
		"enhanced_prompt": map[string]interface{}{
			"metrics": map[string]interface{}{
				"clarity":   map[string]interface{}{"score": 0.8},
				"structure": map[string]interface{}{"score": 0.1},
			},
			"suggestions": []interface{}{"ship it"},
			"comparison":  "<span style='color:green'>new</span>",
		},
	}

	result := Comparison(parsed, "orig input", "enhanced input")

	assert.Equal(t, "sort stuff", result.Original.Prompt)
	assert.Equal(t, []string{"be specific", "name the language", "use sections"}, result.Original.Suggestions)

	assert.Equal(t, "enhanced input", result.Enhanced.Prompt)
	assert.Equal(t, []string{"ship it"}, result.Enhanced.Suggestions)
	assert.Equal(t, "<span style='color:green'>new</span>", result.Enhanced.Comparison)

	assert.Equal(t, []string{"Improved clarity by 0.50"}, result.Improvements)
}

func TestComparisonNoSuggestionsAnywhere(t *testing.T) {
	parsed := map[string]interface{}{
		"original": map[string]interface{}{
			"metrics": map[string]interface{}{"clarity": map[string]interface{}{"score": 0.3}},
		},
	}
	result := Comparison(parsed, "a", "b")

	assert.Equal(t, []string{NoSuggestionsAvailable}, result.Original.Suggestions)
	// The enhanced side is absent, so its metrics default and supply the canned suggestions.
	assert.Len(t, result.Enhanced.Metrics, 5)
	assert.Len(t, result.Enhanced.Suggestions, 10)
	assert.Equal(t, "b", result.Enhanced.Prompt)
}

func TestErrorResultsAreZeroed(t *testing.T) {
	analysis := ErrorAnalysis(FailureTransport, "prompt")
	require.Len(t, analysis.Metrics, 5)
	for _, m := range analysis.Metrics {
		assert.Equal(t, 0.0, m.Score)
		assert.Equal(t, TransportFailureDescription, m.Description)
	}
	assert.Equal(t, "prompt", analysis.EnhancedPrompt)

	comparison := ErrorComparison(FailureParse, "a", "b")
	for _, side := range []domain.PromptVersion{comparison.Original, comparison.Enhanced} {
		for _, m := range side.Metrics {
			assert.Equal(t, 0.0, m.Score)
			assert.Equal(t, ParseFailureDescription, m.Description)
		}
	}
	assert.Equal(t, ComparisonFailedText, comparison.Enhanced.Comparison)
}

func TestGenerationBatchShapes(t *testing.T) {
	tests := []struct {
		name     string
		parsed   interface{}
		expected int
		want     []ScoredContent
	}{
		{
			name: "numbered keys in natural order",
			parsed: map[string]interface{}{
				"generated_content_10": map[string]interface{}{"content": "ten", "score": 0.1},
				"generated_content_2":  map[string]interface{}{"content": "two", "score": 0.2},
				"generated_content_1":  map[string]interface{}{"content": "one", "score": 1.4},
			},
			expected: 3,
			want: []ScoredContent{
				{Content: "one", Score: 1.0},
				{Content: "two", Score: 0.2},
				{Content: "ten", Score: 0.1},
			},
		},
		{
			name:     "single object",
			parsed:   map[string]interface{}{"content": "solo"},
			expected: 1,
			want:     []ScoredContent{{Content: "solo", Score: 0.5}},
		},
		{
			name:     "list truncated to expected count",
			parsed:   []interface{}{"a", map[string]interface{}{"content": "b", "score": "x"}, "c"},
			expected: 2,
			want:     []ScoredContent{{Content: "a", Score: 0.5}, {Content: "b", Score: 0.5}},
		},
		{
			name:     "structured content is encoded",
			parsed:   map[string]interface{}{"items": []interface{}{map[string]interface{}{"content": map[string]interface{}{"name": "Ada"}}}},
			expected: 1,
			want:     []ScoredContent{{Content: `{"name":"Ada"}`, Score: 0.5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerationBatch(tt.parsed, tt.expected)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerationBatchEmptyContentFails(t *testing.T) {
	parsed := map[string]interface{}{
		"generated_content_1": map[string]interface{}{"content": "fine"},
		"generated_content_2": map[string]interface{}{"content": "  ", "score": 0.9},
	}

	items, err := GenerationBatch(parsed, 2)
	assert.Nil(t, items)

	var empty *domain.EmptyGenerationItemError
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, 1, empty.Index)
}

func TestGenerationBatchIgnoresMetadataKeys(t *testing.T) {
	tests := []struct {
		name   string
		parsed map[string]interface{}
		want   []ScoredContent
	}{
		{
			name: "scalar count next to numbered entries",
			parsed: map[string]interface{}{
				"generated_content_1": map[string]interface{}{"content": "hello", "score": 0.9},
				"total_items":         1.0,
			},
			want: []ScoredContent{{Content: "hello", Score: 0.9}},
		},
		{
			name: "string note next to numbered entries",
			parsed: map[string]interface{}{
				"generated_content_1": "hello",
				"note":                "generated by the model",
			},
			want: []ScoredContent{{Content: "hello", Score: 0.5}},
		},
		{
			name: "unnumbered keys keep object and string values only",
			parsed: map[string]interface{}{
				"first":  map[string]interface{}{"content": "a"},
				"second": "b",
				"count":  2.0,
				"done":   true,
			},
			want: []ScoredContent{{Content: "a", Score: 0.5}, {Content: "b", Score: 0.5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerationBatch(tt.parsed, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
