// Package version carries build metadata injected with -ldflags.
package version

// Set via -ldflags "-X github.com/doeshing/promptsmith/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)
