package domain

import "time"

// EvaluationCriterion weighs one rubric metric in an evaluation.
type EvaluationCriterion struct {
	Name        string   `json:"name"`
	Weight      float64  `json:"weight"`
	Description string   `json:"description"`
	Threshold   *float64 `json:"threshold,omitempty"`
}

// EvaluationResult scores one prompt against a criteria set.
type EvaluationResult struct {
	Prompt           string             `json:"prompt"`
	Scores           map[string]float64 `json:"scores"`
	OverallScore     float64            `json:"overall_score"`
	PassedThresholds bool               `json:"passed_thresholds"`
	Feedback         []string           `json:"feedback"`
	ModelUsed        string             `json:"model_used"`
	Timestamp        time.Time          `json:"timestamp"`
}

// BatchEvaluationResult aggregates evaluations over a CSV of prompts.
type BatchEvaluationResult struct {
	TotalPrompts  int                         `json:"total_prompts"`
	PassedPrompts int                         `json:"passed_prompts"`
	AverageScore  float64                     `json:"average_score"`
	Results       map[string]EvaluationResult `json:"results"`
	Timestamp     time.Time                   `json:"timestamp"`
}

// EvaluationTemplate is a catalog prompt with {variable} placeholders filled from CSV columns.
type EvaluationTemplate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Prompt      string   `json:"prompt"`
	Variables   []string `json:"variables"`
}

// PromptValidation reports whether a custom prompt's variables match a CSV header.
type PromptValidation struct {
	Valid     bool     `json:"is_valid"`
	Message   string   `json:"message"`
	Variables []string `json:"variables"`
	Missing   []string `json:"missing,omitempty"`
}

// PreparedPrompt is a template with one CSV row substituted in.
type PreparedPrompt struct {
	Prompt string            `json:"prompt"`
	Row    map[string]string `json:"original_data"`
}
