package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/ports"
)

// Router resolves model names against the current configuration.
// When the default model is requested and fallback models are configured, the
// returned provider retries the fallbacks in order after a failed call.
type Router struct {
	Config  ports.ConfigProvider
	Factory ports.ProviderFactory
	Logger  ports.Logger
}

// Resolve implements ports.ModelRouter.
func (r *Router) Resolve(ctx context.Context, name string) (ports.Provider, error) {
	if r.Config == nil || r.Factory == nil {
		return nil, errors.New("ai.Router dependencies not satisfied")
	}
	cfg, err := r.Config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	model, err := cfg.ResolveModel(name)
	if err != nil {
		return nil, err
	}
	primary, err := r.Factory.ForModel(model)
	if err != nil {
		return nil, err
	}
	if name != "" {
		return primary, nil
	}

	chain := []ports.Provider{primary}
	for _, fallback := range cfg.GetFallbackModels() {
		if fallback.Name == model.Name {
			continue
		}
		provider, err := r.Factory.ForModel(fallback)
		if err != nil {
			r.warn("skipping fallback model", map[string]interface{}{"model": fallback.Name, "error": err.Error()})
			continue
		}
		chain = append(chain, provider)
	}
	if len(chain) == 1 {
		return primary, nil
	}
	return &fallbackProvider{chain: chain, logger: r.Logger}, nil
}

func (r *Router) warn(msg string, fields map[string]interface{}) {
	if r.Logger != nil {
		r.Logger.Warn(msg, fields)
	}
}

// fallbackProvider reports the primary model's identity and moves down the
// chain when a call fails. Context cancellation stops the chain.
type fallbackProvider struct {
	chain  []ports.Provider
	logger ports.Logger
}

func (p *fallbackProvider) Name() string {
	return p.chain[0].Name()
}

func (p *fallbackProvider) Model() domain.ModelDefinition {
	return p.chain[0].Model()
}

func (p *fallbackProvider) Complete(ctx context.Context, req ports.CompletionRequest) (ports.CompletionResponse, error) {
	var errs []error
	for _, provider := range p.chain {
		resp, err := provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", provider.Model().Name, err))
		if ctx.Err() != nil {
			break
		}
		if p.logger != nil {
			p.logger.Warn("model call failed, trying next", map[string]interface{}{
				"model": provider.Model().Name,
				"error": err.Error(),
			})
		}
	}
	return ports.CompletionResponse{}, errors.Join(errs...)
}

var (
	_ ports.ModelRouter = (*Router)(nil)
	_ ports.Provider    = (*fallbackProvider)(nil)
)
