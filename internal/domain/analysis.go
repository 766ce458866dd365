// Package domain defines core business entities and value objects for promptsmith.
//
// This file contains the prompt analysis and comparison results returned to callers.
// Results are created fresh per call and never mutated after they are returned.
package domain

import (
	"sort"
	"time"
)

// Canonical metric names scored by the analysis rubric, in presentation order.
const (
	MetricClarity    = "clarity"
	MetricStructure  = "structure"
	MetricExamples   = "examples"
	MetricFormatting = "formatting"
	MetricOutputSpec = "output_spec"
)

// MetricNames lists the rubric metrics in their canonical order.
var MetricNames = []string{
	MetricClarity,
	MetricStructure,
	MetricExamples,
	MetricFormatting,
	MetricOutputSpec,
}

// AnalysisMetric is a single rubric score with its explanation.
// Score is always within [0, 1].
type AnalysisMetric struct {
	Score       float64  `json:"score" yaml:"score"`
	Description string   `json:"description" yaml:"description"`
	Suggestions []string `json:"suggestions" yaml:"suggestions"`
}

// AnalysisResult is the structured feedback for one prompt.
type AnalysisResult struct {
	Metrics        map[string]AnalysisMetric `json:"metrics"`
	Suggestions    []string                  `json:"suggestions"`
	EnhancedPrompt string                    `json:"enhanced_prompt"`
	ModelUsed      string                    `json:"model_used"`
	Timestamp      time.Time                 `json:"timestamp"`
}

// PromptVersion is one side of a comparison. HighlightedPrompt is HTML carrying
// "new content" and "polished content" markers.
type PromptVersion struct {
	Prompt            string                    `json:"prompt"`
	Metrics           map[string]AnalysisMetric `json:"metrics"`
	Suggestions       []string                  `json:"suggestions"`
	HighlightedPrompt string                    `json:"highlighted_prompt,omitempty"`
	Comparison        string                    `json:"comparison,omitempty"`
}

// ComparisonResult contrasts an original prompt with its enhanced rewrite.
// Improvements lists metrics whose score rose, e.g. "Improved clarity by 0.20".
type ComparisonResult struct {
	Original     PromptVersion `json:"original"`
	Enhanced     PromptVersion `json:"enhanced"`
	Improvements []string      `json:"improvements"`
	ModelUsed    string        `json:"model_used"`
	Timestamp    time.Time     `json:"timestamp"`
}

// AnalysisRequest carries the caller input for a single analysis.
type AnalysisRequest struct {
	Prompt  string `json:"prompt"`
	Context string `json:"context,omitempty"`
	Model   string `json:"model,omitempty"`
}

// ComparisonRequest carries the caller input for a comparison.
type ComparisonRequest struct {
	OriginalPrompt string `json:"original_prompt"`
	EnhancedPrompt string `json:"enhanced_prompt"`
	Context        string `json:"context,omitempty"`
	Model          string `json:"model,omitempty"`
}

// MetricsInOrder returns metric names with the rubric metrics first, followed by
// any extra metric names in lexical order.
func MetricsInOrder(metrics map[string]AnalysisMetric) []string {
	names := make([]string, 0, len(metrics))
	seen := make(map[string]bool, len(metrics))
	for _, name := range MetricNames {
		if _, ok := metrics[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var extra []string
	for name := range metrics {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}
