package domain

import (
	"fmt"
	"time"
)

// GetDefaultModel retrieves the default model definition from configuration
// Returns an error if the default model is not found
func (c *Config) GetDefaultModel() (ModelDefinition, error) {
	if c.Preferences.DefaultModel == "" {
		return ModelDefinition{}, fmt.Errorf("%w: no default model configured", ErrModelNotConfigured)
	}

	for _, model := range c.Models {
		if model.Name == c.Preferences.DefaultModel {
			return model, nil
		}
	}

	return ModelDefinition{}, fmt.Errorf("%w: default model %s not found in configuration", ErrModelNotConfigured, c.Preferences.DefaultModel)
}

// FindModelByName searches for a model by its name
func (c *Config) FindModelByName(name string) (ModelDefinition, bool) {
	for _, model := range c.Models {
		if model.Name == name {
			return model, true
		}
	}
	return ModelDefinition{}, false
}

// ResolveModel returns the named model, or the default one when name is empty.
func (c *Config) ResolveModel(name string) (ModelDefinition, error) {
	if name == "" {
		return c.GetDefaultModel()
	}
	model, ok := c.FindModelByName(name)
	if !ok {
		return ModelDefinition{}, fmt.Errorf("%w: %s", ErrModelNotConfigured, name)
	}
	return model, nil
}

// HasModel checks if a model with the given name exists in the configuration
func (c *Config) HasModel(name string) bool {
	_, exists := c.FindModelByName(name)
	return exists
}

// AddModel adds a new model to the configuration
// Returns an error if a model with the same name already exists
func (c *Config) AddModel(model ModelDefinition) error {
	if c.HasModel(model.Name) {
		return fmt.Errorf("model with name %s already exists", model.Name)
	}

	c.Models = append(c.Models, model)
	return nil
}

// RemoveModel removes a model from the configuration by name.
// The default model moves to the first remaining model when the removed one was the default.
func (c *Config) RemoveModel(name string) error {
	indexToRemove := -1
	for i, model := range c.Models {
		if model.Name == name {
			indexToRemove = i
			break
		}
	}

	if indexToRemove == -1 {
		return fmt.Errorf("model %s not found", name)
	}

	c.Models = append(c.Models[:indexToRemove], c.Models[indexToRemove+1:]...)

	if c.Preferences.DefaultModel == name {
		if len(c.Models) > 0 {
			c.Preferences.DefaultModel = c.Models[0].Name
		} else {
			c.Preferences.DefaultModel = ""
		}
	}

	var fallbacks []string
	for _, fallback := range c.Preferences.FallbackModels {
		if fallback != name {
			fallbacks = append(fallbacks, fallback)
		}
	}
	c.Preferences.FallbackModels = fallbacks

	return nil
}

// SetDefaultModel changes the default model to the specified name
func (c *Config) SetDefaultModel(name string) error {
	if !c.HasModel(name) {
		return fmt.Errorf("cannot set default model: model %s does not exist", name)
	}

	c.Preferences.DefaultModel = name
	return nil
}

// GetFallbackModels returns the fallback models that actually exist
func (c *Config) GetFallbackModels() []ModelDefinition {
	var fallbackModels []ModelDefinition

	for _, fallbackName := range c.Preferences.FallbackModels {
		if model, exists := c.FindModelByName(fallbackName); exists {
			fallbackModels = append(fallbackModels, model)
		}
	}

	return fallbackModels
}

// GetTemperature returns the sampling temperature used for model calls
func (c *Config) GetTemperature() float64 {
	if c.Preferences.Temperature <= 0 {
		return DefaultTemperature
	}
	return c.Preferences.Temperature
}

// GetMaxTokens returns the completion token budget
func (c *Config) GetMaxTokens() int {
	if c.Preferences.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return c.Preferences.MaxTokens
}

// GetTimeout returns the per-call model timeout
func (c *Config) GetTimeout() time.Duration {
	if c.Preferences.TimeoutSeconds <= 0 {
		return DefaultHTTPClientTimeout
	}
	return time.Duration(c.Preferences.TimeoutSeconds) * time.Second
}

// GetCacheTTL parses the configured cache TTL, falling back to 24 hours
func (c *Config) GetCacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return DefaultCacheTTL, nil
	}
	ttl, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("parse cache ttl %q: %w", c.Cache.TTL, err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	return ttl, nil
}

// GetCacheMaxEntries returns the maximum number of cache entries
func (c *Config) GetCacheMaxEntries() int {
	if c.Cache.MaxEntries <= 0 {
		return DefaultMaxCacheEntries
	}
	return c.Cache.MaxEntries
}

// GetCacheBackend returns the configured cache backend
func (c *Config) GetCacheBackend() string {
	if c.Cache.Backend == "" {
		return CacheBackendMemory
	}
	return c.Cache.Backend
}

// GetHistoryBackend returns the configured history backend
func (c *Config) GetHistoryBackend() string {
	if c.History.Backend == "" {
		return HistoryBackendFile
	}
	return c.History.Backend
}

// GetHistoryRetentionDays returns the number of days to retain history.
// Zero disables pruning.
func (c *Config) GetHistoryRetentionDays() int {
	if c.History.RetentionDays < 0 {
		return 0
	}
	return c.History.RetentionDays
}

// GetListenAddress returns the HTTP listen address
func (c *Config) GetListenAddress() string {
	if c.Server.Listen == "" {
		return DefaultListenAddress
	}
	return c.Server.Listen
}

// GetMaintenanceSchedule returns the cron expression for maintenance runs
func (c *Config) GetMaintenanceSchedule() string {
	if c.Maintenance.Schedule == "" {
		return DefaultMaintenanceSchedule
	}
	return c.Maintenance.Schedule
}

// ValidateConsistency checks the internal consistency of the configuration
func (c *Config) ValidateConsistency() error {
	if c.Preferences.DefaultModel != "" && !c.HasModel(c.Preferences.DefaultModel) {
		return fmt.Errorf("default model %s does not exist in models list", c.Preferences.DefaultModel)
	}

	for _, fallbackName := range c.Preferences.FallbackModels {
		if !c.HasModel(fallbackName) {
			return fmt.Errorf("fallback model %s does not exist in models list", fallbackName)
		}
	}

	if c.Preferences.DefaultModel != "" && len(c.Models) == 0 {
		return fmt.Errorf("default model is set but no models are configured")
	}

	return nil
}
