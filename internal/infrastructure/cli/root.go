package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptsmith/internal/app"
	"github.com/doeshing/promptsmith/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose    bool
	ConfigPath string
}

// Execute builds the container, runs the command line and releases the container.
func Execute(ctx context.Context, opts Options, args []string) (err error) {
	container, err := app.BuildContainer(ctx, app.Options{ConfigPath: opts.ConfigPath, Verbose: opts.Verbose})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := container.Close(); err == nil {
			err = closeErr
		}
	}()

	root := NewRootCmd(container)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(container *app.Container) *cobra.Command {
	root := &cobra.Command{
		Use:   "promptsmith",
		Short: "promptsmith - prompt analysis and synthetic data toolkit",
		Long: `promptsmith scores prompts against a quality rubric, compares prompt revisions,
evaluates prompts against weighted criteria and generates cached batches of synthetic data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool(commands.FlagJSON, false, "Print results as JSON")

	root.AddCommand(
		commands.NewAnalyzeCommand(container),
		commands.NewCompareCommand(container),
		commands.NewGenerateCommand(container),
		commands.NewGenerateSimilarCommand(container),
		commands.NewEvaluateCommand(container),
		commands.NewHistoryCommand(container),
		commands.NewCacheCommand(container),
		commands.NewConfigCommand(container),
		commands.NewModelsCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewServeCommand(container),
		commands.NewVersionCommand(),
	)
	return root
}
