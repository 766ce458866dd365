package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultHTTPClientTimeout is the timeout for model HTTP requests
	DefaultHTTPClientTimeout = 60 * time.Second
	// DefaultCacheTTL is how long a generated batch stays reusable
	DefaultCacheTTL = 24 * time.Hour
	// DefaultShutdownTimeout bounds graceful HTTP shutdown
	DefaultShutdownTimeout = 10 * time.Second
)

// Limit constants
const (
	// DefaultMaxCacheEntries is the maximum number of cache entries
	DefaultMaxCacheEntries = 500
	// MaxBatchSize bounds one generation request
	MaxBatchSize = 50
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to return
	DefaultHistoryLimit = 20
	// DefaultHistoryRetainDays is the default number of days to retain history
	DefaultHistoryRetainDays = 30
)

// Model call constants
const (
	// DefaultTemperature is the sampling temperature sent with every completion request
	DefaultTemperature = 0.7
	// DefaultMaxTokens is the default completion token budget
	DefaultMaxTokens = 2000
	// ResponseFormatJSON requests a JSON object response from providers that support it
	ResponseFormatJSON = "json_object"
)

// Server constants
const (
	DefaultListenAddress       = "127.0.0.1:8000"
	DefaultMaintenanceSchedule = "0 * * * *"
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
