package config

import (
	"strings"
	"testing"

	"github.com/doeshing/promptsmith/internal/domain"
)

func validConfig() domain.Config {
	return domain.Config{
		Preferences: domain.Preferences{DefaultModel: "gpt", Temperature: 0.7},
		Models: []domain.ModelDefinition{
			{Name: "gpt", Provider: "openai", Endpoint: "https://api.openai.com/v1/chat/completions"},
			{Name: "claude", Provider: "anthropic"},
		},
		Cache:       domain.CacheSettings{Backend: "memory", TTL: "24h", MaxEntries: 100},
		History:     domain.HistorySettings{Backend: "file", RetentionDays: 30},
		Maintenance: domain.MaintenanceSettings{Schedule: "*/15 * * * *"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*domain.Config) {}},
		{name: "no models", mutate: func(c *domain.Config) { c.Models = nil }, wantErr: "at least one model"},
		{name: "missing default", mutate: func(c *domain.Config) { c.Preferences.DefaultModel = "nope" }, wantErr: "default model nope"},
		{name: "unknown fallback", mutate: func(c *domain.Config) { c.Preferences.FallbackModels = []string{"x"} }, wantErr: "fallback model x"},
		{name: "duplicate model", mutate: func(c *domain.Config) { c.Models = append(c.Models, c.Models[0]) }, wantErr: "more than once"},
		{name: "unknown provider", mutate: func(c *domain.Config) { c.Models[1].Provider = "cohere" }, wantErr: "unknown provider"},
		{name: "openai without endpoint", mutate: func(c *domain.Config) { c.Models[0].Endpoint = "" }, wantErr: "endpoint is required"},
		{name: "bad ttl", mutate: func(c *domain.Config) { c.Cache.TTL = "tomorrow" }, wantErr: "cache.ttl"},
		{name: "zero ttl", mutate: func(c *domain.Config) { c.Cache.TTL = "0s" }, wantErr: "cache.ttl"},
		{name: "bad cache backend", mutate: func(c *domain.Config) { c.Cache.Backend = "redis" }, wantErr: "cache.backend"},
		{name: "bad history backend", mutate: func(c *domain.Config) { c.History.Backend = "mongo" }, wantErr: "history.backend"},
		{name: "postgres needs dsn", mutate: func(c *domain.Config) { c.History.Backend = "postgres" }, wantErr: "history.dsn"},
		{name: "negative retention", mutate: func(c *domain.Config) { c.History.RetentionDays = -1 }, wantErr: "retention_days"},
		{name: "bad schedule", mutate: func(c *domain.Config) { c.Maintenance.Schedule = "every minute" }, wantErr: "maintenance.schedule"},
		{name: "descriptor schedule", mutate: func(c *domain.Config) { c.Maintenance.Schedule = "@hourly" }},
		{name: "temperature range", mutate: func(c *domain.Config) { c.Preferences.Temperature = 3 }, wantErr: "temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
