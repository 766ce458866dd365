package commands

import (
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptsmith/internal/app"
	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/infrastructure/cli/helpers"
	"github.com/doeshing/promptsmith/internal/infrastructure/cli/render"
)

type generateOptions struct {
	model        string
	batchSize    int
	instructions string
	reference    string
	forceRefresh bool
	timeout      time.Duration
}

func (o *generateOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.model, "model", "m", "", "Override model name (default from config)")
	cmd.Flags().IntVarP(&o.batchSize, "batch-size", "n", DefaultBatchSize, "Number of items to generate")
	cmd.Flags().StringVar(&o.instructions, "instructions", "", "Additional generation instructions")
	cmd.Flags().BoolVar(&o.forceRefresh, "force-refresh", false, "Bypass the cache and regenerate")
	cmd.Flags().DurationVar(&o.timeout, "timeout", DefaultRequestTimeout, "Request timeout")
}

func (o *generateOptions) request(template, reference string) domain.GenerationRequest {
	return domain.GenerationRequest{
		Template:               template,
		Model:                  o.model,
		BatchSize:              o.batchSize,
		ReferenceContent:       reference,
		AdditionalInstructions: o.instructions,
		ForceRefresh:           o.forceRefresh,
	}
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand(container *app.Container) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate [template]",
		Short: "Generate a batch of synthetic samples from a template",
		Long:  "Generate synthetic samples. Identical requests within the cache TTL are served from cache.\nReads the template from stdin when no argument (or \"-\") is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			template, err := helpers.ReadText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runGeneration(cmd, container, opts, template, false)
		},
	}

	opts.bind(cmd)
	return cmd
}

// NewGenerateSimilarCommand creates the generate-similar command
func NewGenerateSimilarCommand(container *app.Container) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:     "generate-similar [template]",
		Short:   "Generate samples that match the style of reference content",
		Example: `  promptsmith generate-similar "Product tagline" --reference @examples.txt -n 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.reference == "" {
				return errors.New(ErrReferenceRequired)
			}
			template, err := helpers.ReadText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runGeneration(cmd, container, opts, template, true)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.reference, "reference", "", "Reference content to imitate (or @file)")
	return cmd
}

func runGeneration(cmd *cobra.Command, container *app.Container, opts *generateOptions, template string, similar bool) error {
	reference := ""
	if similar {
		var err error
		if reference, err = helpers.ReadFileOrValue(opts.reference); err != nil {
			return err
		}
	}
	req := opts.request(template, reference)

	ctx, cancel := withTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	var record domain.GenerationRecord
	err := runWithSpinner(cmd, "Generating samples", func() error {
		var runErr error
		if similar {
			record, runErr = container.GenerationService.GenerateSimilar(ctx, req)
		} else {
			record, runErr = container.GenerationService.Generate(ctx, req)
		}
		return runErr
	})
	if err != nil {
		return err
	}
	return output(cmd, record, func(w io.Writer) { render.Generation(w, record) })
}
