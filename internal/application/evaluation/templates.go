package evaluation

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/doeshing/promptsmith/internal/domain"
)

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

var catalog = []domain.EvaluationTemplate{
	{
		ID:          "sentiment",
		Name:        "Sentiment Analysis",
		Description: "Evaluate the sentiment of text and provide a detailed explanation.",
		Prompt:      "Analyze the sentiment of the following text: {text}. Provide a rating from 1-5 and explain your reasoning.",
	},
	{
		ID:          "toxicity",
		Name:        "Toxicity Detection",
		Description: "Detect and explain toxic content in text.",
		Prompt:      "Evaluate if the following text contains toxic content: {text}. Rate the toxicity level from 1-5 and explain why.",
	},
	{
		ID:          "coherence",
		Name:        "Text Coherence",
		Description: "Evaluate the coherence and flow of text.",
		Prompt:      "Rate the coherence of this text: {text}. Provide a score from 1-5 and explain what makes it coherent or incoherent.",
	},
	{
		ID:          "grammar",
		Name:        "Grammar Check",
		Description: "Evaluate the grammatical correctness of the text.",
		Prompt:      "Review the following text for grammatical errors: {text}. Rate the grammar from 1-5 and list any errors found.",
	},
	{
		ID:          "relevance",
		Name:        "Topic Relevance",
		Description: "Evaluate how well the text stays on topic.",
		Prompt:      "Assess if the following text is relevant to the topic {topic}: {text}. Rate relevance from 1-5 and explain your rating.",
	},
	{
		ID:          "factual_accuracy",
		Name:        "Factual Accuracy",
		Description: "Evaluate the factual accuracy and reliability of the generated content.",
		Prompt:      "Assess the factual accuracy of this generated text: {generated_text}. Compare it with the reference: {reference_text}. Rate accuracy from 1-5 and identify any factual errors.",
	},
	{
		ID:          "instruction_following",
		Name:        "Instruction Following",
		Description: "Evaluate how well the output follows the given instructions.",
		Prompt:      "Given the instruction: {instruction} and the output: {output}, rate how well the output follows the instruction from 1-5. Explain any deviations or missing elements.",
	},
	{
		ID:          "creativity_originality",
		Name:        "Creativity & Originality",
		Description: "Assess the creativity and originality of the generated content.",
		Prompt:      "Evaluate the creativity and originality of this content: {content}. Consider uniqueness, innovation, and unexpected elements. Rate from 1-5 and explain your rating.",
	},
	{
		ID:          "bias_fairness",
		Name:        "Bias & Fairness",
		Description: "Detect potential biases and assess fairness in the content.",
		Prompt:      "Analyze this text for potential biases: {text}. Consider gender, racial, cultural, or other biases. Rate fairness from 1-5 and explain any identified biases.",
	},
}

// Templates returns a copy of the built-in catalog with variables filled in.
func Templates() []domain.EvaluationTemplate {
	out := make([]domain.EvaluationTemplate, len(catalog))
	for i, tpl := range catalog {
		tpl.Variables = PromptVariables(tpl.Prompt)
		out[i] = tpl
	}
	return out
}

// LookupTemplate finds a catalog entry by ID.
func LookupTemplate(id string) (domain.EvaluationTemplate, bool) {
	for _, tpl := range Templates() {
		if tpl.ID == id {
			return tpl, true
		}
	}
	return domain.EvaluationTemplate{}, false
}

// ResolveTemplate returns the catalog prompt when s is a catalog ID, else s.
func ResolveTemplate(s string) string {
	if tpl, ok := LookupTemplate(strings.TrimSpace(s)); ok {
		return tpl.Prompt
	}
	return s
}

// PromptVariables lists the {name} placeholders in prompt, first occurrence order.
func PromptVariables(prompt string) []string {
	var vars []string
	seen := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(prompt, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		vars = append(vars, name)
	}
	return vars
}

// ValidateCustomPrompt checks that every placeholder in prompt names one of
// columns. With no columns only the placeholders are extracted.
func ValidateCustomPrompt(prompt string, columns []string) domain.PromptValidation {
	if strings.TrimSpace(prompt) == "" {
		return domain.PromptValidation{Message: "Prompt cannot be empty.", Variables: []string{}}
	}
	vars := PromptVariables(prompt)
	if len(vars) == 0 {
		return domain.PromptValidation{Message: "No variables found in prompt. Use {variable_name} format.", Variables: []string{}}
	}
	if columns == nil {
		return domain.PromptValidation{Valid: true, Message: "Variables found in prompt. Supply a CSV to check column matching.", Variables: vars}
	}

	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	var missing []string
	for _, v := range vars {
		if !have[v] {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return domain.PromptValidation{
			Message:   "Missing columns in CSV: " + strings.Join(missing, ", "),
			Variables: vars,
			Missing:   missing,
		}
	}
	return domain.PromptValidation{Valid: true, Message: "All variables match CSV columns.", Variables: vars}
}

// PrepareEvaluationData substitutes each CSV row into prompt. Placeholders that
// name no column are an invalid argument; short rows fill with empty strings.
func PrepareEvaluationData(prompt string, r io.Reader) ([]domain.PreparedPrompt, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	check := ValidateCustomPrompt(prompt, header)
	if !check.Valid {
		return nil, domain.NewInvalidArgument("prompt", check.Message)
	}

	prepared := make([]domain.PreparedPrompt, 0, len(rows))
	for _, row := range rows {
		values := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				values[name] = row[i]
			} else {
				values[name] = ""
			}
		}
		filled := placeholder.ReplaceAllStringFunc(prompt, func(m string) string {
			name := strings.TrimSpace(m[1 : len(m)-1])
			if v, ok := values[name]; ok {
				return v
			}
			return m
		})
		prepared = append(prepared, domain.PreparedPrompt{Prompt: filled, Row: values})
	}
	if len(prepared) == 0 {
		return nil, domain.NewInvalidArgument("csv", fmt.Sprintf("file has a header but no rows for %d variables", len(check.Variables)))
	}
	return prepared, nil
}
