package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/doeshing/promptsmith/internal/domain"
)

// JSON writes v as indented JSON.
func JSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Analysis prints metrics, suggestions and the enhanced prompt.
func Analysis(out io.Writer, result domain.AnalysisResult) {
	s := NewStyles(out)
	fmt.Fprintln(out, s.Title.Render("Prompt analysis")+" "+s.Muted.Render("("+result.ModelUsed+")"))
	metrics(out, s, result.Metrics)
	bullets(out, s, "Suggestions", result.Suggestions)
	if result.EnhancedPrompt != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, s.Label.Render("Enhanced prompt"))
		fmt.Fprintln(out, s.Box.Render(result.EnhancedPrompt))
	}
}

// Comparison prints both sides and the improvement list.
func Comparison(out io.Writer, result domain.ComparisonResult) {
	s := NewStyles(out)
	fmt.Fprintln(out, s.Title.Render("Prompt comparison")+" "+s.Muted.Render("("+result.ModelUsed+")"))
	for _, side := range []struct {
		label   string
		version domain.PromptVersion
	}{{"Original", result.Original}, {"Enhanced", result.Enhanced}} {
		fmt.Fprintln(out)
		fmt.Fprintln(out, s.Label.Render(side.label))
		metrics(out, s, side.version.Metrics)
		if side.version.Comparison != "" {
			fmt.Fprintln(out, s.Muted.Render(side.version.Comparison))
		}
	}
	bullets(out, s, "Improvements", result.Improvements)
}

// Generation prints a generated batch.
func Generation(out io.Writer, record domain.GenerationRecord) {
	s := NewStyles(out)
	source := fmt.Sprintf("generated in %.2fs", record.GenerationTime)
	if record.IsCached {
		source = "served from cache"
		if record.CachedAt != nil {
			source += " (cached " + record.CachedAt.Format(domain.TimestampFormat) + ")"
		}
	}
	fmt.Fprintf(out, "%s %s\n", s.Title.Render(fmt.Sprintf("%d items", len(record.Data))), s.Muted.Render(record.Model+", "+source))
	for _, item := range record.Data {
		fmt.Fprintf(out, "\n%s %s\n", s.Label.Render(fmt.Sprintf("#%d", item.Index+1)), s.Score(item.Score).Render(fmt.Sprintf("%.2f", item.Score)))
		fmt.Fprintln(out, item.Content)
	}
}

// Evaluation prints one weighted evaluation.
func Evaluation(out io.Writer, result domain.EvaluationResult) {
	s := NewStyles(out)
	verdict := s.Good.Render("passed")
	if !result.PassedThresholds {
		verdict = s.Bad.Render("failed")
	}
	fmt.Fprintf(out, "%s %s %s\n", s.Title.Render("Overall"), s.Score(result.OverallScore).Render(fmt.Sprintf("%.2f", result.OverallScore)), verdict)
	for _, name := range sortedKeys(result.Scores) {
		fmt.Fprintf(out, "  %-12s %s\n", name, s.Score(result.Scores[name]).Render(fmt.Sprintf("%.2f", result.Scores[name])))
	}
	bullets(out, s, "Feedback", result.Feedback)
}

// BatchEvaluation prints the batch summary followed by one line per prompt.
func BatchEvaluation(out io.Writer, result domain.BatchEvaluationResult) {
	s := NewStyles(out)
	fmt.Fprintf(out, "%s %d/%d passed, average %s\n",
		s.Title.Render("Batch evaluation"),
		result.PassedPrompts, result.TotalPrompts,
		s.Score(result.AverageScore).Render(fmt.Sprintf("%.2f", result.AverageScore)))
	keys := make([]string, 0, len(result.Results))
	for key := range result.Results {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return promptOrdinal(keys[i]) < promptOrdinal(keys[j]) })
	for _, key := range keys {
		r := result.Results[key]
		mark := s.Good.Render("ok  ")
		if !r.PassedThresholds {
			mark = s.Bad.Render("fail")
		}
		fmt.Fprintf(out, "  %s %-10s %.2f  %s\n", mark, key, r.OverallScore, truncate(r.Prompt, 60))
	}
}

// EvaluationTemplates prints the template catalog.
func EvaluationTemplates(out io.Writer, templates []domain.EvaluationTemplate) {
	s := NewStyles(out)
	for _, tpl := range templates {
		fmt.Fprintf(out, "%s %s\n", s.Label.Render(tpl.ID), s.Muted.Render("("+strings.Join(tpl.Variables, ", ")+")"))
		fmt.Fprintf(out, "  %s\n  %s\n", tpl.Name+": "+tpl.Description, tpl.Prompt)
	}
}

// PromptValidation prints the outcome of a custom prompt check.
func PromptValidation(out io.Writer, result domain.PromptValidation) {
	s := NewStyles(out)
	tag := s.Good.Render("VALID")
	if !result.Valid {
		tag = s.Bad.Render("INVALID")
	}
	fmt.Fprintf(out, "[%s] %s\n", tag, result.Message)
	if len(result.Variables) > 0 {
		fmt.Fprintf(out, "  variables: %s\n", strings.Join(result.Variables, ", "))
	}
}

// History prints one line per record.
func History(out io.Writer, records []domain.HistoryRecord) {
	s := NewStyles(out)
	if len(records) == 0 {
		fmt.Fprintln(out, s.Muted.Render("No history recorded yet."))
		return
	}
	for _, rec := range records {
		fmt.Fprintf(out, "%s  %s  %-10s  %-18s  %s\n",
			s.Muted.Render(rec.ID),
			rec.Timestamp.Format(domain.TimestampFormat),
			rec.Kind,
			rec.Model,
			truncate(rec.Summary, 60))
	}
}

// CacheStats prints cache counters.
func CacheStats(out io.Writer, backend string, stats domain.CacheStats) {
	s := NewStyles(out)
	fmt.Fprintln(out, s.Title.Render("Generation cache")+" "+s.Muted.Render("("+backend+")"))
	fmt.Fprintf(out, "  entries    %d\n  hits       %d\n  misses     %d\n  evictions  %d\n", stats.Entries, stats.Hits, stats.Misses, stats.Evictions)
}

// Health prints a doctor report.
func Health(out io.Writer, report domain.HealthReport) {
	s := NewStyles(out)
	for _, check := range report.Checks {
		tag := strings.ToUpper(string(check.Status))
		switch check.Status {
		case domain.HealthOK:
			tag = s.Good.Render(tag)
		case domain.HealthWarn:
			tag = s.Warn.Render(tag)
		default:
			tag = s.Bad.Render(tag)
		}
		fmt.Fprintf(out, "[%s] %s - %s\n", tag, s.Label.Render(check.Name), check.Details)
	}
}

func metrics(out io.Writer, s Styles, values map[string]domain.AnalysisMetric) {
	for _, name := range metricOrder(values) {
		metric := values[name]
		fmt.Fprintf(out, "  %-12s %s  %s\n", name, s.Score(metric.Score).Render(fmt.Sprintf("%.2f", metric.Score)), s.Muted.Render(metric.Description))
	}
}

func bullets(out io.Writer, s Styles, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, s.Label.Render(title))
	for _, item := range items {
		fmt.Fprintf(out, "  %s %s\n", s.Bullet, item)
	}
}

// metricOrder lists canonical metrics first, then any extras alphabetically.
func metricOrder(values map[string]domain.AnalysisMetric) []string {
	order := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, name := range domain.MetricNames {
		if _, ok := values[name]; ok {
			order = append(order, name)
			seen[name] = true
		}
	}
	var extra []string
	for name := range values {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func promptOrdinal(key string) int {
	var n int
	if _, err := fmt.Sscanf(key, "prompt_%d", &n); err != nil {
		return 0
	}
	return n
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
