package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/doeshing/promptsmith/internal/domain"
)

// ScheduleParser parses the five-field maintenance schedule.
var ScheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if len(cfg.Models) == 0 {
		return errors.New("at least one model must be configured")
	}
	if err := validateModels(cfg.Models); err != nil {
		return err
	}
	defaultModel := cfg.Preferences.DefaultModel
	if defaultModel == "" {
		defaultModel = cfg.Models[0].Name
	}
	if !cfg.HasModel(defaultModel) {
		return fmt.Errorf("default model %s not found in models list", defaultModel)
	}
	for _, name := range cfg.Preferences.FallbackModels {
		if !cfg.HasModel(name) {
			return fmt.Errorf("fallback model %s not found", name)
		}
	}
	if t := cfg.Preferences.Temperature; t < 0 || t > 2 {
		return fmt.Errorf("preferences.temperature must be between 0 and 2, got %v", t)
	}
	if err := validateCache(cfg); err != nil {
		return err
	}
	if err := validateHistory(cfg.History); err != nil {
		return err
	}
	if _, err := ScheduleParser.Parse(cfg.GetMaintenanceSchedule()); err != nil {
		return fmt.Errorf("maintenance.schedule invalid: %w", err)
	}
	return nil
}

func validateModels(models []domain.ModelDefinition) error {
	seen := make(map[string]bool, len(models))
	for _, model := range models {
		if strings.TrimSpace(model.Name) == "" {
			return errors.New("every model needs a name")
		}
		if seen[model.Name] {
			return fmt.Errorf("model %s is declared more than once", model.Name)
		}
		seen[model.Name] = true
		switch strings.ToLower(model.Provider) {
		case domain.ProviderOpenAI, "":
			if model.Endpoint == "" {
				return fmt.Errorf("model %s: endpoint is required for openai-compatible providers", model.Name)
			}
		case domain.ProviderOllama, domain.ProviderAnthropic, domain.ProviderGemini:
		default:
			return fmt.Errorf("model %s: unknown provider %q", model.Name, model.Provider)
		}
	}
	return nil
}

func validateCache(cfg domain.Config) error {
	if _, err := cfg.GetCacheTTL(); err != nil {
		return fmt.Errorf("cache.ttl invalid: %w", err)
	}
	if cfg.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must be >= 0")
	}
	switch cfg.GetCacheBackend() {
	case domain.CacheBackendMemory, domain.CacheBackendFile:
	default:
		return fmt.Errorf("cache.backend must be memory|file, got %s", cfg.Cache.Backend)
	}
	return nil
}

func validateHistory(history domain.HistorySettings) error {
	if history.RetentionDays < 0 {
		return fmt.Errorf("history.retention_days must be >= 0")
	}
	switch strings.ToLower(history.Backend) {
	case "", domain.HistoryBackendFile, domain.HistoryBackendSQLite:
	case domain.HistoryBackendPostgres:
		if history.DSN == "" {
			return fmt.Errorf("history.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("history.backend must be file|sqlite|postgres, got %s", history.Backend)
	}
	return nil
}
