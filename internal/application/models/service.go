// Package models reports what the configured models can do and whether they answer.
package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/ports"
)

const (
	// CheckTimeout bounds one status completion.
	CheckTimeout = 30 * time.Second
	checkWorkers = 4
)

// JSON handling modes reported in capabilities.
const (
	JSONModeNative     = "native"
	JSONModeInstructed = "instructed"
)

var pipelines = []string{"analysis", "comparison", "generation", "evaluation"}

// Service inspects model definitions and checks their endpoints.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Factory        ports.ProviderFactory
	Logger         ports.Logger
	Clock          ports.Clock
}

// Capabilities describes every configured model in config order.
func (s *Service) Capabilities(ctx context.Context) ([]domain.ModelCapabilities, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	out := make([]domain.ModelCapabilities, 0, len(cfg.Models))
	for _, model := range cfg.Models {
		out = append(out, describe(model, cfg))
	}
	return out, nil
}

func describe(model domain.ModelDefinition, cfg domain.Config) domain.ModelCapabilities {
	provider := strings.ToLower(strings.TrimSpace(model.Provider))
	if provider == "" {
		provider = domain.ProviderOpenAI
	}
	maxTokens := model.MaxTokens
	if maxTokens <= 0 {
		maxTokens = cfg.GetMaxTokens()
	}

	native := true
	jsonMode := JSONModeNative
	switch provider {
	case domain.ProviderOpenAI, domain.ProviderOllama:
		native = model.APIFormat.NativeN()
	case domain.ProviderAnthropic:
		native = false
		jsonMode = JSONModeInstructed
	}

	caps := append([]string(nil), pipelines...)
	if native {
		caps = append(caps, "multi-completion")
	}
	return domain.ModelCapabilities{
		Name:              model.Name,
		Provider:          provider,
		ModelID:           model.DisplayName(),
		Endpoint:          model.Endpoint,
		Default:           model.Name == cfg.Preferences.DefaultModel,
		MaxTokens:         maxTokens,
		NativeCompletions: native,
		JSONMode:          jsonMode,
		Capabilities:      caps,
	}
}

// Status sends a short completion to each named model, or every configured
// model when names is empty. A failing model is reported, not returned as an error.
func (s *Service) Status(ctx context.Context, names ...string) ([]domain.ModelStatus, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	targets := cfg.Models
	if len(names) > 0 {
		targets = make([]domain.ModelDefinition, 0, len(names))
		for _, name := range names {
			model, ok := cfg.FindModelByName(name)
			if !ok {
				return nil, domain.NewInvalidArgument("model", fmt.Sprintf("%s is not configured", name))
			}
			targets = append(targets, model)
		}
	}

	statuses := make([]domain.ModelStatus, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(checkWorkers)
	for i, model := range targets {
		i, model := i, model
		g.Go(func() error {
			statuses[i] = s.check(gctx, model)
			return nil
		})
	}
	_ = g.Wait()
	return statuses, nil
}

// Check sends a short completion to one model.
func (s *Service) Check(ctx context.Context, name string) (domain.ModelStatus, error) {
	statuses, err := s.Status(ctx, name)
	if err != nil {
		return domain.ModelStatus{}, err
	}
	return statuses[0], nil
}

func (s *Service) check(ctx context.Context, model domain.ModelDefinition) domain.ModelStatus {
	status := domain.ModelStatus{Name: model.Name, Model: model.DisplayName()}
	started := s.Clock.Now()

	provider, err := s.Factory.ForModel(model)
	if err != nil {
		return s.failed(status, started, err)
	}
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	resp, err := provider.Complete(ctx, ports.CompletionRequest{
		SystemMessage: "You are a connectivity check.",
		UserMessage:   "Reply with the single word: ok",
		Options:       ports.CompletionOptions{Temperature: 0, MaxTokens: 16},
	})
	if err != nil {
		return s.failed(status, started, err)
	}
	status.Status = domain.ModelHealthy
	status.Reply = strings.TrimSpace(resp.Text())
	status.LatencyMS = s.Clock.Now().Sub(started).Milliseconds()
	status.CheckedAt = s.Clock.Now()
	return status
}

func (s *Service) failed(status domain.ModelStatus, started time.Time, err error) domain.ModelStatus {
	s.Logger.Warn("model check failed", map[string]interface{}{
		"model": status.Name,
		"error": err.Error(),
	})
	status.Status = domain.ModelError
	status.Error = err.Error()
	status.LatencyMS = s.Clock.Now().Sub(started).Milliseconds()
	status.CheckedAt = s.Clock.Now()
	return status
}

func (s *Service) ready() error {
	if s.ConfigProvider == nil || s.Factory == nil || s.Logger == nil || s.Clock == nil {
		return errors.New("models.Service dependencies not satisfied")
	}
	return nil
}
