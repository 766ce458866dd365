// Package analysis scores prompts against the rubric and compares prompt revisions.
//
// Model and parse failures never escape Analyze or Compare: they are turned into
// zeroed results whose descriptions name the cause. Only caller mistakes, such as an
// empty prompt or an unknown model name, are returned as errors.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/doeshing/promptsmith/internal/application/coerce"
	"github.com/doeshing/promptsmith/internal/application/normalize"
	"github.com/doeshing/promptsmith/internal/application/prompts"
	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/ports"
)

// Service runs the analysis and comparison pipelines.
// History is optional; records are appended best-effort.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Router         ports.ModelRouter
	History        ports.HistoryStore
	Logger         ports.Logger
	Clock          ports.Clock
}

// Analyze scores one prompt and proposes an enhanced version.
func (s *Service) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	if err := s.ready(); err != nil {
		return domain.AnalysisResult{}, err
	}
	prompt := normalize.Text(req.Prompt)
	if prompt == "" {
		return domain.AnalysisResult{}, domain.NewInvalidArgument("prompt", "must not be empty")
	}

	run := newTracker("analyze", s.Logger)
	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("load config: %w", err)
	}
	userMessage, err := prompts.Render(prompts.Analysis, prompts.AnalysisData{
		Prompt:  prompt,
		Context: normalize.Text(req.Context),
	})
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	var result domain.AnalysisResult
	provider, modelUsed, fail, err := s.resolve(ctx, run, cfg, req.Model)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	if fail == nil {
		var doc interface{}
		doc, fail = s.complete(ctx, run, provider, ports.CompletionRequest{
			SystemMessage: prompts.AnalysisSystem,
			UserMessage:   userMessage,
			Options:       completionOptions(cfg),
		})
		if fail == nil {
			run.enter(StageCoercing)
			result = coerce.Analysis(doc, req.Prompt)
			run.enter(StageDone)
		}
	}
	if fail != nil {
		result = coerce.ErrorAnalysis(fail.Kind, req.Prompt)
	}

	result.ModelUsed = modelUsed
	result.Timestamp = s.Clock.Now()

	if record, err := domain.NewAnalysisHistory(uuid.New().String(), prompt, result); err == nil {
		s.appendHistory(ctx, record)
	} else {
		s.Logger.Warn("history encode failed", map[string]interface{}{"error": err.Error()})
	}
	return result, nil
}

// Compare scores an original prompt and its enhanced rewrite side by side.
func (s *Service) Compare(ctx context.Context, req domain.ComparisonRequest) (domain.ComparisonResult, error) {
	if err := s.ready(); err != nil {
		return domain.ComparisonResult{}, err
	}
	original := normalize.Text(req.OriginalPrompt)
	if original == "" {
		return domain.ComparisonResult{}, domain.NewInvalidArgument("original_prompt", "must not be empty")
	}
	enhanced := normalize.Text(req.EnhancedPrompt)
	if enhanced == "" {
		return domain.ComparisonResult{}, domain.NewInvalidArgument("enhanced_prompt", "must not be empty")
	}

	run := newTracker("compare", s.Logger)
	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return domain.ComparisonResult{}, fmt.Errorf("load config: %w", err)
	}
	systemMessage, err := prompts.Render(prompts.Comparison, nil)
	if err != nil {
		return domain.ComparisonResult{}, err
	}
	userMessage, err := normalize.MarshalCompact(comparisonInput{
		OriginalPrompt: original,
		EnhancedPrompt: enhanced,
		Context:        normalize.Text(req.Context),
	})
	if err != nil {
		return domain.ComparisonResult{}, fmt.Errorf("encode comparison input: %w", err)
	}

	var result domain.ComparisonResult
	provider, modelUsed, fail, err := s.resolve(ctx, run, cfg, req.Model)
	if err != nil {
		return domain.ComparisonResult{}, err
	}
	if fail == nil {
		var doc interface{}
		doc, fail = s.complete(ctx, run, provider, ports.CompletionRequest{
			SystemMessage: systemMessage,
			UserMessage:   string(userMessage),
			Options:       completionOptions(cfg),
		})
		if fail == nil {
			run.enter(StageCoercing)
			result = coerce.Comparison(doc, req.OriginalPrompt, req.EnhancedPrompt)
			run.enter(StageDone)
		}
	}
	if fail != nil {
		result = coerce.ErrorComparison(fail.Kind, req.OriginalPrompt, req.EnhancedPrompt)
	}

	result.ModelUsed = modelUsed
	result.Timestamp = s.Clock.Now()

	if record, err := domain.NewComparisonHistory(uuid.New().String(), result); err == nil {
		s.appendHistory(ctx, record)
	} else {
		s.Logger.Warn("history encode failed", map[string]interface{}{"error": err.Error()})
	}
	return result, nil
}

type comparisonInput struct {
	OriginalPrompt string `json:"original_prompt"`
	EnhancedPrompt string `json:"enhanced_prompt"`
	Context        string `json:"context,omitempty"`
}

func (s *Service) ready() error {
	if s.ConfigProvider == nil || s.Router == nil || s.Logger == nil || s.Clock == nil {
		return errors.New("analysis.Service dependencies not satisfied")
	}
	return nil
}

// resolve picks the provider. An unknown explicit model name is a caller error;
// any other resolution failure is treated like a failed model call.
func (s *Service) resolve(ctx context.Context, run *tracker, cfg domain.Config, name string) (ports.Provider, string, *failure, error) {
	modelUsed := name
	if modelUsed == "" {
		modelUsed = cfg.Preferences.DefaultModel
	}
	provider, err := s.Router.Resolve(ctx, name)
	if err != nil {
		if name != "" && errors.Is(err, domain.ErrModelNotConfigured) {
			return nil, "", nil, domain.NewInvalidArgument("model", err.Error())
		}
		return nil, modelUsed, run.fail(coerce.FailureTransport, fmt.Errorf("resolve model: %w", err)), nil
	}
	return provider, provider.Model().DisplayName(), nil, nil
}

// complete runs the calling-model and sanitizing stages.
func (s *Service) complete(ctx context.Context, run *tracker, provider ports.Provider, req ports.CompletionRequest) (interface{}, *failure) {
	run.enter(StageCallingModel)
	s.Logger.Info("calling provider", map[string]interface{}{
		"op":       run.op,
		"provider": provider.Name(),
		"model":    provider.Model().DisplayName(),
	})
	resp, err := provider.Complete(ctx, req)
	if err != nil {
		return nil, run.fail(coerce.FailureTransport, err)
	}

	run.enter(StageSanitizing)
	doc, err := normalize.SanitizeObject(resp.Text())
	if err != nil {
		return nil, run.fail(coerce.FailureParse, err)
	}
	return doc, nil
}

func (s *Service) appendHistory(ctx context.Context, record domain.HistoryRecord) {
	if s.History == nil {
		return
	}
	if err := s.History.Append(ctx, record); err != nil {
		s.Logger.Error("history append failed", err, map[string]interface{}{
			"id":   record.ID,
			"kind": string(record.Kind),
		})
	}
}

func completionOptions(cfg domain.Config) ports.CompletionOptions {
	return ports.CompletionOptions{
		Temperature:    cfg.GetTemperature(),
		MaxTokens:      cfg.GetMaxTokens(),
		ResponseFormat: domain.ResponseFormatJSON,
		N:              1,
	}
}
