package commands

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptsmith/internal/version"
)

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show promptsmith version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{
				Version:   version.Version,
				Commit:    version.Commit,
				BuildDate: version.BuildDate,
				GoVersion: runtime.Version(),
			}
			return output(cmd, info, func(w io.Writer) { displayVersionInformation(w, info) })
		},
	}
}

// displayVersionInformation displays version information
func displayVersionInformation(out io.Writer, info versionInfo) {
	fmt.Fprintf(out, "promptsmith version %s\n", info.Version)

	if info.Commit != "" {
		fmt.Fprintf(out, "Commit: %s\n", info.Commit)
	}

	if info.BuildDate != "" {
		fmt.Fprintf(out, "Built: %s\n", info.BuildDate)
	}

	fmt.Fprintf(out, "Go version: %s\n", info.GoVersion)
}
