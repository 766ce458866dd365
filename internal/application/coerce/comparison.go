package coerce

import (
	"fmt"
	"strings"

	"github.com/doeshing/promptsmith/internal/domain"
)

// Comparison builds a comparison result from a sanitized document. Each side is
// read from "original_prompt" (or "original") and "enhanced_prompt" (or "enhanced")
// and defaulted independently. A side without suggestions gets the flattened
// suggestions of its metrics.
func Comparison(parsed interface{}, original, enhanced string) domain.ComparisonResult {
	obj, _ := parsed.(map[string]interface{})

	result := domain.ComparisonResult{
		Original: promptVersion(side(obj, "original_prompt", "original"), original),
		Enhanced: promptVersion(side(obj, "enhanced_prompt", "enhanced"), enhanced),
	}
	if result.Enhanced.Comparison == "" {
		if text, ok := obj["comparison"].(string); ok {
			result.Enhanced.Comparison = text
		}
	}
	result.Improvements = Improvements(result.Original.Metrics, result.Enhanced.Metrics)
	return result
}

// Improvements lists every metric whose score rose from original to enhanced.
func Improvements(original, enhanced map[string]domain.AnalysisMetric) []string {
	out := []string{}
	for _, name := range domain.MetricsInOrder(original) {
		after, ok := enhanced[name]
		if !ok {
			continue
		}
		if diff := after.Score - original[name].Score; diff > 0 {
			out = append(out, fmt.Sprintf("Improved %s by %.2f", name, diff))
		}
	}
	return out
}

func side(obj map[string]interface{}, keys ...string) map[string]interface{} {
	for _, key := range keys {
		if v, ok := obj[key].(map[string]interface{}); ok {
			return v
		}
	}
	return nil
}

func promptVersion(obj map[string]interface{}, prompt string) domain.PromptVersion {
	version := domain.PromptVersion{
		Prompt:  prompt,
		Metrics: Metrics(obj["metrics"]),
	}
	if p, ok := obj["prompt"].(string); ok && strings.TrimSpace(p) != "" {
		version.Prompt = p
	}
	if h, ok := obj["highlighted_prompt"].(string); ok {
		version.HighlightedPrompt = h
	}
	if c, ok := obj["comparison"].(string); ok {
		version.Comparison = c
	}

	if list, ok := obj["suggestions"].([]interface{}); ok {
		version.Suggestions = stringList(list)
	}
	if len(version.Suggestions) == 0 {
		version.Suggestions = flattenSuggestions(version.Metrics)
	}
	if len(version.Suggestions) == 0 {
		version.Suggestions = []string{NoSuggestionsAvailable}
	}
	return version
}

func flattenSuggestions(metrics map[string]domain.AnalysisMetric) []string {
	var out []string
	for _, name := range domain.MetricsInOrder(metrics) {
		out = append(out, metrics[name].Suggestions...)
	}
	return out
}
