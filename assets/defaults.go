package assets

import "embed"

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// Templates holds the prompt templates sent to the model.
//
//go:embed templates/*.tmpl
var Templates embed.FS
