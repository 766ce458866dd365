// Package evaluation scores prompts against weighted criteria built on the
// analysis rubric, singly or in CSV batches.
package evaluation

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/promptsmith/internal/application/normalize"
	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/ports"
)

const (
	weightTolerance = 0.01
	promptColumn    = "prompt"
	batchWorkers    = 4
)

// Analyzer is the analysis pipeline entry point evaluation builds on.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error)
}

// Service evaluates prompts by running the analysis pipeline and weighting its metrics.
type Service struct {
	Analyzer Analyzer
	Logger   ports.Logger
	Clock    ports.Clock
}

// DefaultCriteria weighs every rubric metric equally with no thresholds.
func DefaultCriteria() []domain.EvaluationCriterion {
	weight := 1 / float64(len(domain.MetricNames))
	criteria := make([]domain.EvaluationCriterion, 0, len(domain.MetricNames))
	for _, name := range domain.MetricNames {
		criteria = append(criteria, domain.EvaluationCriterion{Name: name, Weight: weight})
	}
	return criteria
}

// ValidateCriteria checks that weights sum to one and thresholds lie in [0, 1].
func ValidateCriteria(criteria []domain.EvaluationCriterion) error {
	if len(criteria) == 0 {
		return domain.NewInvalidArgument("criteria", "at least one criterion is required")
	}
	total := 0.0
	for _, c := range criteria {
		if strings.TrimSpace(c.Name) == "" {
			return domain.NewInvalidArgument("criteria", "criterion name must not be empty")
		}
		if c.Weight < 0 || c.Weight > 1 {
			return domain.NewInvalidArgument("criteria", fmt.Sprintf("weight for %s must be between 0 and 1", c.Name))
		}
		if c.Threshold != nil && (*c.Threshold < 0 || *c.Threshold > 1) {
			return domain.NewInvalidArgument("criteria", fmt.Sprintf("threshold for %s must be between 0 and 1", c.Name))
		}
		total += c.Weight
	}
	if math.Abs(total-1) > weightTolerance {
		return domain.NewInvalidArgument("criteria", fmt.Sprintf("weights must sum to 1.0, got %.2f", total))
	}
	return nil
}

// Evaluate analyzes prompt and scores it against criteria. Criteria naming a
// metric the analysis did not return count as zero and are left out of Scores.
func (s *Service) Evaluate(ctx context.Context, prompt string, criteria []domain.EvaluationCriterion, promptContext string) (domain.EvaluationResult, error) {
	if err := s.ready(); err != nil {
		return domain.EvaluationResult{}, err
	}
	if err := ValidateCriteria(criteria); err != nil {
		return domain.EvaluationResult{}, err
	}
	return s.evaluate(ctx, prompt, criteria, promptContext)
}

func (s *Service) evaluate(ctx context.Context, prompt string, criteria []domain.EvaluationCriterion, promptContext string) (domain.EvaluationResult, error) {
	analysis, err := s.Analyzer.Analyze(ctx, domain.AnalysisRequest{Prompt: prompt, Context: promptContext})
	if err != nil {
		return domain.EvaluationResult{}, err
	}

	scores := make(map[string]float64, len(criteria))
	passed := true
	overall := 0.0
	for _, c := range criteria {
		metric, ok := analysis.Metrics[c.Name]
		if !ok {
			continue
		}
		scores[c.Name] = metric.Score
		overall += metric.Score * c.Weight
		if c.Threshold != nil && metric.Score < *c.Threshold {
			passed = false
		}
	}

	feedback := analysis.Suggestions
	if feedback == nil {
		feedback = []string{}
	}
	return domain.EvaluationResult{
		Prompt:           normalize.Text(prompt),
		Scores:           scores,
		OverallScore:     overall,
		PassedThresholds: passed,
		Feedback:         feedback,
		ModelUsed:        analysis.ModelUsed,
		Timestamp:        s.Clock.Now(),
	}, nil
}

// EvaluateBatch evaluates every row of a CSV with a "prompt" column. Results are
// keyed prompt_1, prompt_2, ... in row order.
func (s *Service) EvaluateBatch(ctx context.Context, r io.Reader, criteria []domain.EvaluationCriterion) (domain.BatchEvaluationResult, error) {
	if err := s.ready(); err != nil {
		return domain.BatchEvaluationResult{}, err
	}
	if err := ValidateCriteria(criteria); err != nil {
		return domain.BatchEvaluationResult{}, err
	}
	prompts, err := readPrompts(r)
	if err != nil {
		return domain.BatchEvaluationResult{}, err
	}
	return s.evaluateAll(ctx, prompts, criteria)
}

// EvaluateCustomBatch fills template, a catalog ID or a literal prompt with
// {column} placeholders, from each CSV row and evaluates the results. Every
// placeholder must name a column.
func (s *Service) EvaluateCustomBatch(ctx context.Context, template string, r io.Reader, criteria []domain.EvaluationCriterion) (domain.BatchEvaluationResult, error) {
	if err := s.ready(); err != nil {
		return domain.BatchEvaluationResult{}, err
	}
	if err := ValidateCriteria(criteria); err != nil {
		return domain.BatchEvaluationResult{}, err
	}
	prepared, err := PrepareEvaluationData(ResolveTemplate(template), r)
	if err != nil {
		return domain.BatchEvaluationResult{}, err
	}
	prompts := make([]string, len(prepared))
	for i, p := range prepared {
		prompts[i] = p.Prompt
	}
	return s.evaluateAll(ctx, prompts, criteria)
}

// ValidatePrompt checks a custom prompt's placeholders against the header of
// csvContent. A nil reader only extracts the placeholders.
func (s *Service) ValidatePrompt(prompt string, csvContent io.Reader) (domain.PromptValidation, error) {
	if csvContent == nil {
		return ValidateCustomPrompt(prompt, nil), nil
	}
	columns, err := readHeader(csvContent)
	if err != nil {
		return domain.PromptValidation{}, err
	}
	return ValidateCustomPrompt(prompt, columns), nil
}

// Templates lists the built-in evaluation prompt catalog.
func (s *Service) Templates() []domain.EvaluationTemplate {
	return Templates()
}

func (s *Service) evaluateAll(ctx context.Context, prompts []string, criteria []domain.EvaluationCriterion) (domain.BatchEvaluationResult, error) {
	results := make([]domain.EvaluationResult, len(prompts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchWorkers)
	for i, prompt := range prompts {
		i, prompt := i, prompt
		g.Go(func() error {
			result, err := s.evaluate(gctx, prompt, criteria, "")
			if err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.BatchEvaluationResult{}, err
	}

	batch := domain.BatchEvaluationResult{
		TotalPrompts: len(results),
		Results:      make(map[string]domain.EvaluationResult, len(results)),
		Timestamp:    s.Clock.Now(),
	}
	total := 0.0
	for i, result := range results {
		batch.Results[fmt.Sprintf("prompt_%d", i+1)] = result
		total += result.OverallScore
		if result.PassedThresholds {
			batch.PassedPrompts++
		}
	}
	batch.AverageScore = total / float64(len(results))
	s.Logger.Info("batch evaluation finished", map[string]interface{}{
		"total":  batch.TotalPrompts,
		"passed": batch.PassedPrompts,
	})
	return batch, nil
}

// readPrompts returns the prompt column of a CSV document.
func readPrompts(r io.Reader) ([]string, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	column := -1
	for i, name := range header {
		if strings.EqualFold(name, promptColumn) {
			column = i
			break
		}
	}
	if column < 0 {
		return nil, domain.NewInvalidArgument("csv", "must contain a 'prompt' column")
	}

	var prompts []string
	for _, row := range rows {
		if column >= len(row) || strings.TrimSpace(row[column]) == "" {
			continue
		}
		prompts = append(prompts, row[column])
	}
	if len(prompts) == 0 {
		return nil, domain.NewInvalidArgument("csv", "file contains no prompts")
	}
	return prompts, nil
}

// readHeader returns the cleaned column names of a CSV document.
func readHeader(r io.Reader) ([]string, error) {
	reader := newCSVReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.NewInvalidArgument("csv", "file is empty")
	}
	if err != nil {
		return nil, domain.NewInvalidArgument("csv", err.Error())
	}
	return cleanHeader(header), nil
}

// readTable returns the cleaned header and every data row.
func readTable(r io.Reader) ([]string, [][]string, error) {
	reader := newCSVReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, domain.NewInvalidArgument("csv", "file is empty")
	}
	if err != nil {
		return nil, nil, domain.NewInvalidArgument("csv", err.Error())
	}
	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, domain.NewInvalidArgument("csv", err.Error())
		}
		rows = append(rows, row)
	}
	return cleanHeader(header), rows, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}
	return out
}

func (s *Service) ready() error {
	if s.Analyzer == nil || s.Logger == nil || s.Clock == nil {
		return errors.New("evaluation.Service dependencies not satisfied")
	}
	return nil
}
