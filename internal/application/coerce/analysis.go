package coerce

import (
	"fmt"
	"strings"

	"github.com/doeshing/promptsmith/internal/domain"
)

// Analysis builds an analysis result from a sanitized document. It never fails:
// absent or malformed fields take the defaults from this package. ModelUsed and
// Timestamp are left for the caller to stamp.
func Analysis(parsed interface{}, prompt string) domain.AnalysisResult {
	obj, _ := parsed.(map[string]interface{})

	result := domain.AnalysisResult{
		Metrics:        Metrics(obj["metrics"]),
		Suggestions:    DefaultSuggestions(),
		EnhancedPrompt: prompt,
	}
	if list, ok := obj["suggestions"].([]interface{}); ok {
		result.Suggestions = stringList(list)
	}
	if enhanced, ok := obj["enhanced_prompt"].(string); ok && strings.TrimSpace(enhanced) != "" {
		result.EnhancedPrompt = enhanced
	}
	return result
}

// Metrics coerces a metrics map. A missing, non-object or empty value yields the
// five default metrics; otherwise every reported metric is kept and repaired.
func Metrics(value interface{}) map[string]domain.AnalysisMetric {
	raw, ok := value.(map[string]interface{})
	if !ok || len(raw) == 0 {
		return DefaultMetrics()
	}
	out := make(map[string]domain.AnalysisMetric, len(raw))
	for name, entry := range raw {
		out[name] = metric(name, entry)
	}
	return out
}

func metric(name string, value interface{}) domain.AnalysisMetric {
	obj, ok := value.(map[string]interface{})
	if !ok {
		// Some models collapse a metric to its bare score.
		if _, numeric := toFloat(value); numeric {
			m := DefaultMetric(name)
			m.Score = Score(value)
			m.Description = MissingDescription
			return m
		}
		return DefaultMetric(name)
	}

	m := domain.AnalysisMetric{
		Score:       Score(obj["score"]),
		Description: MissingDescription,
		Suggestions: []string{},
	}
	switch d := obj["description"].(type) {
	case string:
		if strings.TrimSpace(d) != "" {
			m.Description = d
		}
	case nil:
	default:
		m.Description = fmt.Sprint(d)
	}
	if list, ok := obj["suggestions"].([]interface{}); ok {
		m.Suggestions = stringList(list)
	}
	return m
}

// stringList stringifies list elements, dropping nulls and blank strings.
func stringList(list []interface{}) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		var s string
		switch v := item.(type) {
		case nil:
			continue
		case string:
			s = v
		default:
			s = fmt.Sprint(v)
		}
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
