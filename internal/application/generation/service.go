// Package generation produces batches of synthetic samples from a template,
// serving repeated requests from the generation cache.
package generation

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

// Service runs the generation pipeline. Cache and History are optional.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Router         ports.ModelRouter
	Cache          ports.GenerationCache
	History        ports.HistoryStore
	Logger         ports.Logger
	Clock          ports.Clock
}

// Generate returns a batch for req. Unless ForceRefresh is set, a live cache
// entry short-circuits the model call. Freshly generated complete batches are
// written back to the cache, forced or not.
func (s *Service) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationRecord, error) {
	if err := s.ready(); err != nil {
		return domain.GenerationRecord{}, err
	}
	if err := validate(req); err != nil {
		return domain.GenerationRecord{}, err
	}

	provider, err := s.Router.Resolve(ctx, req.Model)
	if err != nil {
		if req.Model != "" && errors.Is(err, domain.ErrModelNotConfigured) {
			return domain.GenerationRecord{}, domain.NewInvalidArgument("model", err.Error())
		}
		return domain.GenerationRecord{}, fmt.Errorf("resolve model: %w", err)
	}
	modelName := provider.Model().Name

	if !req.ForceRefresh && s.Cache != nil {
		if entry, ok := s.Cache.Get(req.Template, modelName, req.BatchSize, req.ReferenceContent); ok {
			s.Logger.Info("generation cache hit", map[string]interface{}{"model": modelName, "batch_size": req.BatchSize})
			cachedAt := entry.CachedAt
			record := domain.GenerationRecord{
				ID:               uuid.New().String(),
				Timestamp:        s.Clock.Now(),
				Template:         req.Template,
				Model:            modelName,
				Data:             domain.CloneItems(entry.Data),
				GenerationTime:   0,
				IsCached:         true,
				CachedAt:         &cachedAt,
				ReferenceContent: req.ReferenceContent,
			}
			s.appendHistory(ctx, record)
			return record, nil
		}
		s.Logger.Info("generation cache miss", map[string]interface{}{"model": modelName, "batch_size": req.BatchSize})
	}

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return domain.GenerationRecord{}, fmt.Errorf("load config: %w", err)
	}
	userMessage, err := renderRequest(req)
	if err != nil {
		return domain.GenerationRecord{}, err
	}

	started := s.Clock.Now()
	resp, err := provider.Complete(ctx, ports.CompletionRequest{
		SystemMessage: prompts.GenerationSystem,
		UserMessage:   userMessage,
		Options: ports.CompletionOptions{
			Temperature:    cfg.GetTemperature(),
			MaxTokens:      cfg.GetMaxTokens(),
			ResponseFormat: domain.ResponseFormatJSON,
			N:              req.BatchSize,
		},
	})
	if err != nil {
		s.Logger.Error("generation model call failed", err, map[string]interface{}{"model": modelName})
		return domain.GenerationRecord{}, fmt.Errorf("generate with %s: %w", modelName, err)
	}
	elapsed := s.Clock.Now().Sub(started)

	scored, err := s.collect(resp.Choices, req.BatchSize)
	if err != nil {
		return domain.GenerationRecord{}, err
	}

	now := s.Clock.Now()
	items := make([]domain.GeneratedItem, len(scored))
	for i, sc := range scored {
		items[i] = domain.GeneratedItem{Content: sc.Content, Score: sc.Score, Index: i, Timestamp: now}
	}

	record := domain.GenerationRecord{
		ID:               uuid.New().String(),
		Timestamp:        now,
		Template:         req.Template,
		Model:            modelName,
		Data:             items,
		GenerationTime:   elapsed.Seconds(),
		IsCached:         false,
		ReferenceContent: req.ReferenceContent,
	}

	if s.Cache != nil && len(items) == req.BatchSize {
		if _, err := s.Cache.Put(req.Template, modelName, req.BatchSize, req.ReferenceContent, items); err != nil {
			s.Logger.Error("generation cache write failed", err, map[string]interface{}{"model": modelName})
		}
	} else if s.Cache != nil {
		s.Logger.Warn("partial batch not cached", map[string]interface{}{
			"model":     modelName,
			"requested": req.BatchSize,
			"received":  len(items),
		})
	}

	s.appendHistory(ctx, record)
	return record, nil
}

// GenerateSimilar is Generate with reference content required.
func (s *Service) GenerateSimilar(ctx context.Context, req domain.GenerationRequest) (domain.GenerationRecord, error) {
	if normalize.Text(req.ReferenceContent) == "" {
		return domain.GenerationRecord{}, domain.NewInvalidArgument("reference_content", "must not be empty")
	}
	return s.Generate(ctx, req)
}

// collect coerces every choice and keeps the first batchSize items in choice
// order. When there are at least batchSize choices each one contributes a single
// item; otherwise a choice may fill the rest of the batch. Choices that fail to
// parse are skipped. When nothing usable comes back, the first non-empty choice
// becomes a single item.
func (s *Service) collect(choices []string, batchSize int) ([]coerce.ScoredContent, error) {
	perChoice := batchSize
	if len(choices) >= batchSize {
		perChoice = 1
	}
	var out []coerce.ScoredContent
	for i, choice := range choices {
		if len(out) >= batchSize {
			break
		}
		doc, err := normalize.Sanitize(choice)
		if err != nil {
			s.Logger.Warn("skipping unparseable completion", map[string]interface{}{"choice": i, "error": err.Error()})
			continue
		}
		batch, err := coerce.GenerationBatch(doc, min(perChoice, batchSize-len(out)))
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	if len(out) > 0 {
		return out, nil
	}
	return fallbackItem(choices)
}

func fallbackItem(choices []string) ([]coerce.ScoredContent, error) {
	for _, choice := range choices {
		content := bestEffortContent(choice)
		if content != "" {
			return []coerce.ScoredContent{{Content: content, Score: coerce.DefaultScore}}, nil
		}
	}
	return nil, &domain.EmptyGenerationItemError{Index: 0}
}

func bestEffortContent(choice string) string {
	doc, err := normalize.Sanitize(choice)
	if err != nil {
		return normalize.Text(choice)
	}
	if m, ok := doc.(map[string]interface{}); ok && len(m) == 0 {
		return ""
	}
	encoded, err := normalize.MarshalCompact(doc)
	if err != nil {
		return normalize.Text(choice)
	}
	return string(encoded)
}

func renderRequest(req domain.GenerationRequest) (string, error) {
	instructions := normalize.Text(req.AdditionalInstructions)
	if instructions == "" {
		instructions = coerce.DefaultGenerationGuidance
	}
	data := prompts.GenerationData{
		Template:         req.Template,
		Instructions:     instructions,
		BatchSize:        req.BatchSize,
		ReferenceContent: req.ReferenceContent,
	}
	if req.ReferenceContent != "" {
		return prompts.Render(prompts.Similar, data)
	}
	return prompts.Render(prompts.Synthetic, data)
}

func validate(req domain.GenerationRequest) error {
	if normalize.Text(req.Template) == "" {
		return domain.NewInvalidArgument("template", "must not be empty")
	}
	if req.BatchSize < 1 || req.BatchSize > domain.MaxBatchSize {
		return domain.NewInvalidArgument("batch_size", fmt.Sprintf("must be between 1 and %d", domain.MaxBatchSize))
	}
	return nil
}

func (s *Service) ready() error {
	if s.ConfigProvider == nil || s.Router == nil || s.Logger == nil || s.Clock == nil {
		return errors.New("generation.Service dependencies not satisfied")
	}
	return nil
}

func (s *Service) appendHistory(ctx context.Context, record domain.GenerationRecord) {
	if s.History == nil {
		return
	}
	entry, err := domain.NewGenerationHistory(record)
	if err == nil {
		err = s.History.Append(ctx, entry)
	}
	if err != nil {
		s.Logger.Error("history append failed", err, map[string]interface{}{"id": record.ID})
	}
}
