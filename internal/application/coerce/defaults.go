// Package coerce fills strictly typed results from loosely structured model output.
//
// Every default value used when the model omits or mangles a field is declared in
// this file so the fallback policy can be audited in one place.
package coerce

import "github.com/doeshing/promptsmith/internal/domain"

// Default values applied when a field is missing or unusable.
const (
	DefaultScore              = 0.5
	IncompleteDescription     = "Analysis incomplete"
	MissingDescription        = "No description provided"
	DefaultOverallSuggestion  = "Consider adding more details to your prompt"
	NoSuggestionsAvailable    = "No specific suggestions available"
	ComparisonFailedText      = "Error occurred during comparison"
	DefaultGenerationGuidance = "Follow the template structure and style."
)

// Failure descriptions written into zeroed error results.
const (
	TransportFailureDescription = "API request failed"
	ParseFailureDescription     = "Failed to parse model response"
)

var cannedSuggestions = map[string][]string{
	domain.MetricClarity:    {"Make the prompt more clear and concise", "Remove ambiguous terms"},
	domain.MetricStructure:  {"Organize the prompt into clear sections", "Use bullet points or numbering"},
	domain.MetricExamples:   {"Add relevant examples", "Include sample inputs and outputs"},
	domain.MetricFormatting: {"Use proper markdown formatting", "Add line breaks for readability"},
	domain.MetricOutputSpec: {"Specify desired output format", "Define response structure"},
}

var transportRemediation = []string{
	"Please check your API settings and try again",
	"The service might be temporarily unavailable",
}

var parseRemediation = []string{
	"The model response was not valid JSON",
	"Try simplifying your prompt",
}

// DefaultMetric is the placeholder for a metric the model did not score.
func DefaultMetric(name string) domain.AnalysisMetric {
	return domain.AnalysisMetric{
		Score:       DefaultScore,
		Description: IncompleteDescription,
		Suggestions: copyStrings(cannedSuggestions[name]),
	}
}

// DefaultMetrics returns the five rubric metrics with placeholder scores.
func DefaultMetrics() map[string]domain.AnalysisMetric {
	out := make(map[string]domain.AnalysisMetric, len(domain.MetricNames))
	for _, name := range domain.MetricNames {
		out[name] = DefaultMetric(name)
	}
	return out
}

// DefaultSuggestions is used when the model returns no overall suggestions.
func DefaultSuggestions() []string {
	return []string{DefaultOverallSuggestion}
}

// FailureKind distinguishes why a pipeline produced a zeroed result.
type FailureKind int

const (
	FailureTransport FailureKind = iota + 1
	FailureParse
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Description returns the human-readable cause written into zeroed metrics.
func (k FailureKind) Description() string {
	if k == FailureParse {
		return ParseFailureDescription
	}
	return TransportFailureDescription
}

// Remediation returns the hints written into zeroed metrics.
func (k FailureKind) Remediation() []string {
	if k == FailureParse {
		return copyStrings(parseRemediation)
	}
	return copyStrings(transportRemediation)
}

// ZeroedMetrics returns the five rubric metrics scored 0.0 and explained by kind.
func ZeroedMetrics(kind FailureKind) map[string]domain.AnalysisMetric {
	out := make(map[string]domain.AnalysisMetric, len(domain.MetricNames))
	for _, name := range domain.MetricNames {
		out[name] = domain.AnalysisMetric{
			Score:       0,
			Description: kind.Description(),
			Suggestions: kind.Remediation(),
		}
	}
	return out
}

// ErrorAnalysis is the analysis returned in place of a model or parse failure.
func ErrorAnalysis(kind FailureKind, prompt string) domain.AnalysisResult {
	return domain.AnalysisResult{
		Metrics:        ZeroedMetrics(kind),
		Suggestions:    kind.Remediation(),
		EnhancedPrompt: prompt,
	}
}

// ErrorComparison is the comparison returned in place of a model or parse failure.
func ErrorComparison(kind FailureKind, original, enhanced string) domain.ComparisonResult {
	return domain.ComparisonResult{
		Original: domain.PromptVersion{
			Prompt:      original,
			Metrics:     ZeroedMetrics(kind),
			Suggestions: kind.Remediation(),
		},
		Enhanced: domain.PromptVersion{
			Prompt:      enhanced,
			Metrics:     ZeroedMetrics(kind),
			Suggestions: kind.Remediation(),
			Comparison:  ComparisonFailedText,
		},
		Improvements: []string{},
	}
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
