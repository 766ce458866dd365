package doctor

import (
	"context"
	"fmt"
	"os"
	"strings"

	appconfig "github.com/doeshing/promptsmith/internal/application/config"
	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/ports"
)

// CacheInspector reports generation cache statistics.
type CacheInspector interface {
	Stats() (domain.CacheStats, error)
}

// Locator is implemented by stores that can say where their data lives.
type Locator interface {
	Location() string
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Cache          CacheInspector
	History        ports.HistoryStore
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded format %s, %d models", cfg.ConfigFormatVersion, len(cfg.Models))))

	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config validation", err.Error()))
	} else {
		checks = append(checks, ok("Config validation", fmt.Sprintf("default model %s", cfg.Preferences.DefaultModel)))
	}

	checks = append(checks, apiCheck(cfg.Models))

	if s.Cache != nil {
		if stats, err := s.Cache.Stats(); err != nil {
			checks = append(checks, fail("Generation cache", err.Error()))
		} else {
			checks = append(checks, ok("Generation cache", fmt.Sprintf("%s backend%s, %d live entries", cfg.GetCacheBackend(), locatedAt(s.Cache), stats.Entries)))
		}
	} else {
		checks = append(checks, warn("Generation cache", "cache not initialized"))
	}

	if s.History != nil {
		if _, err := s.History.List(ctx, domain.HistoryFilter{Limit: 1}); err != nil {
			checks = append(checks, fail("History store", err.Error()))
		} else {
			checks = append(checks, ok("History store", fmt.Sprintf("%s backend reachable%s", cfg.GetHistoryBackend(), locatedAt(s.History))))
		}
	} else {
		checks = append(checks, warn("History store", "history disabled"))
	}

	return domain.HealthReport{Checks: checks}, nil
}

func locatedAt(store interface{}) string {
	if l, ok := store.(Locator); ok && l.Location() != "" {
		return " at " + l.Location()
	}
	return ""
}

func apiCheck(models []domain.ModelDefinition) domain.HealthCheck {
	var missing []string
	for _, model := range models {
		var fallback string
		switch strings.ToLower(model.Provider) {
		case domain.ProviderAnthropic:
			fallback = "ANTHROPIC_API_KEY"
		case domain.ProviderGemini:
			fallback = "GEMINI_API_KEY"
		case domain.ProviderOpenAI, "":
			fallback = "OPENAI_API_KEY"
			if model.AuthEnvVar != "" {
				fallback = ""
			}
		default:
			continue
		}
		if envMissing(model.AuthEnvVar, fallback) {
			missing = append(missing, model.Name)
		}
	}
	if len(missing) > 0 {
		return warn("API keys", "missing for "+strings.Join(missing, ", "))
	}
	return ok("API keys", "detected for configured providers")
}

func envMissing(primary, fallback string) bool {
	if primary != "" && os.Getenv(primary) != "" {
		return false
	}
	if fallback != "" && os.Getenv(fallback) != "" {
		return false
	}
	return true
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
