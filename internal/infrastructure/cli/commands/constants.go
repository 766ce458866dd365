package commands

import "time"

// Flag names shared across commands
const (
	FlagJSON = "json"
	FlagYes  = "yes"
)

// CLI-specific defaults
const (
	// DefaultEditorCommand is the default editor command
	DefaultEditorCommand = "vi"
	// DefaultRequestTimeout bounds one pipeline call from the CLI
	DefaultRequestTimeout = 2 * time.Minute
	// DefaultBatchSize is the number of items generated when --batch-size is omitted
	DefaultBatchSize = 5
	// DefaultHistoryStatsWindow is how many records history stats inspects
	DefaultHistoryStatsWindow = 1000
	// TopModelsShown is how many models history stats lists
	TopModelsShown = 5
	// ModelTestTimeout bounds 'models test'
	ModelTestTimeout = 30 * time.Second
)

// Error messages
const (
	ErrConfigLoaderUnavailable  = "config loader unavailable"
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrHistoryStoreUnavailable  = "history store unavailable"
	ErrCacheUnavailable         = "generation cache unavailable"
	ErrKeyRequired              = "--key is required"
	ErrInvalidRetainDays        = "--days must be > 0"
	ErrReferenceRequired        = "--reference is required"
	ErrTemplateRequiresCSV      = "--template requires --csv"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgNoHistoryRecorded        = "No history recorded yet."
	MsgAborted                  = "Aborted."
)
