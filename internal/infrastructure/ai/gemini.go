package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/ports"
)

const (
	geminiKeyEnv       = "GEMINI_API_KEY"
	defaultGeminiModel = "gemini-2.5-flash"
)

// geminiProvider calls the Gemini API. Several completions are requested with
// CandidateCount in a single call.
type geminiProvider struct {
	model      domain.ModelDefinition
	httpClient *http.Client
}

func newGeminiProvider(model domain.ModelDefinition, client *http.Client) ports.Provider {
	return &geminiProvider{model: model, httpClient: client}
}

func (p *geminiProvider) Name() string {
	return domain.ProviderGemini
}

func (p *geminiProvider) Model() domain.ModelDefinition {
	return p.model
}

func (p *geminiProvider) Complete(ctx context.Context, req ports.CompletionRequest) (ports.CompletionResponse, error) {
	apiKey := getEnv(p.model.AuthEnvVar, geminiKeyEnv)
	if apiKey == "" {
		return ports.CompletionResponse{}, missingKeyError(p.model, geminiKeyEnv)
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
	}
	if p.model.Endpoint != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.model.Endpoint}
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return ports.CompletionResponse{}, fmt.Errorf("gemini client: %w", err)
	}

	resp, err := cli.Models.GenerateContent(ctx,
		defaultString(p.model.ModelID, defaultGeminiModel),
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.UserMessage}}}},
		p.buildConfig(req),
	)
	if err != nil {
		return ports.CompletionResponse{}, fmt.Errorf("gemini API error: %w", err)
	}

	var choices []string
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil {
				text.WriteString(part.Text)
			}
		}
		choices = append(choices, text.String())
	}
	if len(choices) == 0 {
		return ports.CompletionResponse{}, fmt.Errorf("gemini response contained no candidates")
	}
	return ports.CompletionResponse{Choices: choices, Model: p.model.DisplayName()}, nil
}

func (p *geminiProvider) buildConfig(req ports.CompletionRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Options.Temperature)),
		MaxOutputTokens: int32(defaultInt(req.Options.MaxTokens, defaultInt(p.model.MaxTokens, domain.DefaultMaxTokens))),
		CandidateCount:  int32(req.Options.Count()),
	}
	if req.Options.ResponseFormat == domain.ResponseFormatJSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.SystemMessage != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemMessage}}}
	}
	return cfg
}
