package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptsmith/internal/app"
	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/infrastructure/cli/helpers"
	"github.com/doeshing/promptsmith/internal/infrastructure/cli/render"
)

// NewAnalyzeCommand creates the analyze command
func NewAnalyzeCommand(container *app.Container) *cobra.Command {
	var (
		promptContext string
		model         string
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "analyze [prompt]",
		Short: "Score a prompt against the rubric and propose an enhanced version",
		Long:  "Score a prompt for clarity, structure, examples, formatting and output specification.\nReads the prompt from stdin when no argument (or \"-\") is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := helpers.ReadText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd.Context(), timeout)
			defer cancel()

			var result domain.AnalysisResult
			err = runWithSpinner(cmd, "Analyzing prompt", func() error {
				var runErr error
				result, runErr = container.AnalysisService.Analyze(ctx, domain.AnalysisRequest{
					Prompt:  prompt,
					Context: promptContext,
					Model:   model,
				})
				return runErr
			})
			if err != nil {
				return err
			}
			return output(cmd, result, func(w io.Writer) { render.Analysis(w, result) })
		},
	}

	cmd.Flags().StringVar(&promptContext, "context", "", "Extra context about how the prompt will be used")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Override model name (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", DefaultRequestTimeout, "Request timeout")
	return cmd
}

// NewCompareCommand creates the compare command
func NewCompareCommand(container *app.Container) *cobra.Command {
	var (
		original      string
		enhanced      string
		promptContext string
		model         string
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare an original prompt with its enhanced rewrite",
		Long:  "Compare two prompt versions. Prefix a value with @ to read it from a file.",
		Example: `  promptsmith compare --original "Sort an array" --enhanced "Sort the integer array ascending and return it"
  promptsmith compare --original @v1.txt --enhanced @v2.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			originalText, err := helpers.ReadFileOrValue(original)
			if err != nil {
				return err
			}
			enhancedText, err := helpers.ReadFileOrValue(enhanced)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd.Context(), timeout)
			defer cancel()

			var result domain.ComparisonResult
			err = runWithSpinner(cmd, "Comparing prompts", func() error {
				var runErr error
				result, runErr = container.AnalysisService.Compare(ctx, domain.ComparisonRequest{
					OriginalPrompt: originalText,
					EnhancedPrompt: enhancedText,
					Context:        promptContext,
					Model:          model,
				})
				return runErr
			})
			if err != nil {
				return fmt.Errorf("compare: %w", err)
			}
			return output(cmd, result, func(w io.Writer) { render.Comparison(w, result) })
		},
	}

	cmd.Flags().StringVar(&original, "original", "", "Original prompt (or @file)")
	cmd.Flags().StringVar(&enhanced, "enhanced", "", "Enhanced prompt (or @file)")
	cmd.Flags().StringVar(&promptContext, "context", "", "Extra context about how the prompt will be used")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Override model name (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", DefaultRequestTimeout, "Request timeout")
	_ = cmd.MarkFlagRequired("original")
	_ = cmd.MarkFlagRequired("enhanced")
	return cmd
}
