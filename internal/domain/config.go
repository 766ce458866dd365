package domain

// Config mirrors ~/.promptsmith/config.yaml.
type Config struct {
	ConfigFormatVersion string              `yaml:"config_format_version"`
	Preferences         Preferences         `yaml:"preferences"`
	Models              []ModelDefinition   `yaml:"models"`
	Cache               CacheSettings       `yaml:"cache"`
	History             HistorySettings     `yaml:"history"`
	Server              ServerSettings      `yaml:"server"`
	Maintenance         MaintenanceSettings `yaml:"maintenance"`
}

// Preferences captures generation defaults shared by every pipeline.
type Preferences struct {
	DefaultModel   string   `yaml:"default_model"`
	FallbackModels []string `yaml:"fallback_models,omitempty"`
	Temperature    float64  `yaml:"temperature"`
	MaxTokens      int      `yaml:"max_tokens"`
	TimeoutSeconds int      `yaml:"timeout"`
}

// CacheSettings configures the generation cache.
type CacheSettings struct {
	Backend    string `yaml:"backend"`
	TTL        string `yaml:"ttl"`
	MaxEntries int    `yaml:"max_entries"`
	Dir        string `yaml:"dir,omitempty"`
}

// HistorySettings selects and configures the history backend.
type HistorySettings struct {
	Backend       string `yaml:"backend"`
	Path          string `yaml:"path,omitempty"`
	DSN           string `yaml:"dsn,omitempty"`
	RetentionDays int    `yaml:"retention_days"`
}

// ServerSettings configures the HTTP route layer.
// RateLimitRPM is reserved; requests are not throttled.
type ServerSettings struct {
	Listen         string   `yaml:"listen"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimitRPM   int      `yaml:"rate_limit_rpm"`
}

// MaintenanceSettings schedules cache sweeps and history pruning.
type MaintenanceSettings struct {
	Schedule string `yaml:"schedule"`
}

// Backend identifiers accepted in the cache and history sections.
const (
	CacheBackendMemory = "memory"
	CacheBackendFile   = "file"

	HistoryBackendFile     = "file"
	HistoryBackendSQLite   = "sqlite"
	HistoryBackendPostgres = "postgres"
)
