package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptsmith/internal/app"
	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/infrastructure/cli/helpers"
)

// NewModelsCommand creates the models command with all subcommands
func NewModelsCommand(container *app.Container) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Manage AI model configurations",
	}

	modelsCmd.AddCommand(
		newModelsListCommand(container),
		newModelsCapabilitiesCommand(container),
		newModelsStatusCommand(container),
		newModelsTestCommand(container),
		newModelsUseCommand(container),
		newModelsAddCommand(container),
		newModelsRemoveCommand(container),
	)

	return modelsCmd
}

// newModelsListCommand creates the 'models list' subcommand
func newModelsListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := container.ConfigProvider.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return output(cmd, cfg.Models, func(w io.Writer) { listModels(w, cfg) })
		},
	}
}

// newModelsCapabilitiesCommand creates the 'models capabilities' subcommand
func newModelsCapabilitiesCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "Show what each configured model supports",
		RunE: func(cmd *cobra.Command, args []string) error {
			caps, err := container.ModelService.Capabilities(cmd.Context())
			if err != nil {
				return err
			}
			return output(cmd, caps, func(w io.Writer) { listCapabilities(w, caps) })
		},
	}
}

// newModelsStatusCommand creates the 'models status' subcommand
func newModelsStatusCommand(container *app.Container) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "status [name...]",
		Short: "Check that models answer a short request",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd.Context(), timeout)
			defer cancel()

			var statuses []domain.ModelStatus
			err := runWithSpinner(cmd, "Checking models", func() error {
				var runErr error
				statuses, runErr = container.ModelService.Status(ctx, args...)
				return runErr
			})
			if err != nil {
				return err
			}
			return output(cmd, statuses, func(w io.Writer) { listStatuses(w, statuses) })
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", ModelTestTimeout, "Overall timeout")
	return cmd
}

// newModelsTestCommand creates the 'models test' subcommand
func newModelsTestCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "test <name>",
		Short: "Send a one-line request to a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return testModel(cmd.Context(), cmd.OutOrStdout(), container, args[0])
		},
	}
}

// newModelsUseCommand creates the 'models use' subcommand
func newModelsUseCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Set default model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setDefaultModel(cmd.Context(), container, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default model set to %s\n", args[0])
			return nil
		},
	}
}

// newModelsAddCommand creates the 'models add' subcommand
func newModelsAddCommand(container *app.Container) *cobra.Command {
	var opts modelAddOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new model definition",
		Example: `  promptsmith models add --name local --provider ollama --model-id llama3.1
  promptsmith models add --name claude --provider anthropic --model-id claude-sonnet-4-5 --auth-env ANTHROPIC_API_KEY`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := addModel(cmd.Context(), container, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added model %s\n", opts.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "Model name (identifier)")
	cmd.Flags().StringVar(&opts.Provider, "provider", domain.ProviderOpenAI, "Provider: openai, ollama, anthropic or gemini")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "Provider endpoint URL")
	cmd.Flags().StringVar(&opts.ModelID, "model-id", "", "Model identifier at provider")
	cmd.Flags().StringVar(&opts.AuthEnv, "auth-env", "", "Environment variable containing API key")
	cmd.Flags().StringVar(&opts.OrgEnv, "org-env", "", "Environment variable containing org/project ID")
	cmd.Flags().IntVar(&opts.MaxTokens, "max-tokens", domain.DefaultMaxTokens, "Max tokens for responses")

	return cmd
}

// newModelsRemoveCommand creates the 'models remove' subcommand
func newModelsRemoveCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove model definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := removeModel(cmd.Context(), container, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed model %s\n", args[0])
			return nil
		},
	}
}

// modelAddOptions holds options for adding a new model
type modelAddOptions struct {
	Name      string
	Provider  string
	Endpoint  string
	ModelID   string
	AuthEnv   string
	OrgEnv    string
	MaxTokens int
}

// listModels lists all configured models
func listModels(out io.Writer, cfg domain.Config) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPROVIDER\tMODEL ID\tDEFAULT")

	for _, model := range cfg.Models {
		defaultMarker := ""
		if cfg.Preferences.DefaultModel == model.Name {
			defaultMarker = "*"
		}
		provider := model.Provider
		if provider == "" {
			provider = domain.ProviderOpenAI
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", model.Name, provider, model.ModelID, defaultMarker)
	}
	_ = tw.Flush()

	if len(cfg.Preferences.FallbackModels) > 0 {
		fmt.Fprintf(out, "Fallbacks: %s\n", strings.Join(cfg.Preferences.FallbackModels, ", "))
	}
}

// testModel sends a minimal completion to one model, bypassing the fallback chain
func testModel(ctx context.Context, out io.Writer, container *app.Container, modelName string) error {
	testCtx, cancel := withTimeout(ctx, ModelTestTimeout)
	defer cancel()

	status, err := container.ModelService.Check(testCtx, modelName)
	if err != nil {
		return err
	}
	if status.Status != domain.ModelHealthy {
		return fmt.Errorf("model %s test failed: %s", modelName, status.Error)
	}

	fmt.Fprintf(out, "Model %s responded successfully (%s).\n", modelName, status.Reply)
	return nil
}

// listCapabilities prints one row per model with its derived capabilities
func listCapabilities(out io.Writer, caps []domain.ModelCapabilities) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPROVIDER\tMAX TOKENS\tJSON\tCAPABILITIES")
	for _, c := range caps {
		name := c.Name
		if c.Default {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", name, c.Provider, c.MaxTokens, c.JSONMode, strings.Join(c.Capabilities, ", "))
	}
	_ = tw.Flush()
}

// listStatuses prints one row per checked model
func listStatuses(out io.Writer, statuses []domain.ModelStatus) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS\tLATENCY\tDETAIL")
	for _, st := range statuses {
		detail := st.Reply
		if st.Status != domain.ModelHealthy {
			detail = st.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%dms\t%s\n", st.Name, st.Status, st.LatencyMS, detail)
	}
	_ = tw.Flush()
}

// setDefaultModel sets the default model
func setDefaultModel(ctx context.Context, container *app.Container, modelName string) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.SetDefaultModel(modelName); err != nil {
		return err
	}

	return helpers.SaveConfigWithValidation(container.ConfigLoader, cfg)
}

// addModel adds a new model definition
func addModel(ctx context.Context, container *app.Container, opts modelAddOptions) error {
	if err := validateModelAddOptions(opts); err != nil {
		return err
	}

	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	model := domain.ModelDefinition{
		Name:       opts.Name,
		Provider:   strings.ToLower(opts.Provider),
		Endpoint:   opts.Endpoint,
		ModelID:    opts.ModelID,
		AuthEnvVar: opts.AuthEnv,
		OrgEnvVar:  opts.OrgEnv,
		MaxTokens:  opts.MaxTokens,
	}

	if err := cfg.AddModel(model); err != nil {
		return err
	}

	return helpers.SaveConfigWithValidation(container.ConfigLoader, cfg)
}

// removeModel removes a model definition
func removeModel(ctx context.Context, container *app.Container, modelName string) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.RemoveModel(modelName); err != nil {
		return err
	}

	return helpers.SaveConfigWithValidation(container.ConfigLoader, cfg)
}

// validateModelAddOptions validates the options for adding a model
func validateModelAddOptions(opts modelAddOptions) error {
	if opts.Name == "" || opts.ModelID == "" {
		return fmt.Errorf("--name and --model-id are required")
	}

	switch strings.ToLower(opts.Provider) {
	case domain.ProviderOpenAI:
		if opts.Endpoint == "" {
			return fmt.Errorf("--endpoint is required for openai-compatible models")
		}
	case domain.ProviderOllama, domain.ProviderAnthropic, domain.ProviderGemini:
	default:
		return fmt.Errorf("unsupported provider %q", opts.Provider)
	}

	if opts.MaxTokens <= 0 {
		return fmt.Errorf("max-tokens must be positive, got %d", opts.MaxTokens)
	}

	return nil
}
