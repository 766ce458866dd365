package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/ports"
)

const (
	anthropicKeyEnv       = "ANTHROPIC_API_KEY"
	defaultAnthropicModel = "claude-sonnet-4-5"
	// JSON mode has no Messages API equivalent, so the instruction is appended to the system prompt.
	anthropicJSONSuffix = "\n\nRespond with a single JSON object and nothing else."
)

// anthropicProvider calls the Messages API. The API returns one completion per
// request, so multi-completion requests are fanned out.
type anthropicProvider struct {
	model      domain.ModelDefinition
	httpClient *http.Client
}

func newAnthropicProvider(model domain.ModelDefinition, client *http.Client) ports.Provider {
	return &anthropicProvider{model: model, httpClient: client}
}

func (p *anthropicProvider) Name() string {
	return domain.ProviderAnthropic
}

func (p *anthropicProvider) Model() domain.ModelDefinition {
	return p.model
}

func (p *anthropicProvider) Complete(ctx context.Context, req ports.CompletionRequest) (ports.CompletionResponse, error) {
	apiKey := getEnv(p.model.AuthEnvVar, anthropicKeyEnv)
	if apiKey == "" {
		return ports.CompletionResponse{}, missingKeyError(p.model, anthropicKeyEnv)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if p.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(p.httpClient))
	}
	if p.model.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(p.model.Endpoint))
	}
	client := anthropic.NewClient(opts...)

	params := p.buildParams(req)
	call := func(ctx context.Context) ([]string, error) {
		message, err := client.Messages.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("anthropic API error: %w", err)
		}
		for _, block := range message.Content {
			if block.Type == "text" {
				return []string{block.Text}, nil
			}
		}
		return nil, fmt.Errorf("no text content in anthropic response")
	}

	var (
		choices []string
		err     error
	)
	if n := req.Options.Count(); n > 1 {
		choices, err = fanOut(ctx, n, call)
	} else {
		choices, err = call(ctx)
	}
	if err != nil {
		return ports.CompletionResponse{}, err
	}
	return ports.CompletionResponse{Choices: choices, Model: p.model.DisplayName()}, nil
}

func (p *anthropicProvider) buildParams(req ports.CompletionRequest) anthropic.MessageNewParams {
	system := req.SystemMessage
	if req.Options.ResponseFormat == domain.ResponseFormatJSON && !strings.Contains(system, anthropicJSONSuffix) {
		system += anthropicJSONSuffix
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(defaultString(p.model.ModelID, defaultAnthropicModel)),
		MaxTokens:   int64(defaultInt(req.Options.MaxTokens, defaultInt(p.model.MaxTokens, domain.DefaultMaxTokens))),
		Temperature: anthropic.Float(req.Options.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserMessage)),
		},
	}
	if system = strings.TrimSpace(system); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}
