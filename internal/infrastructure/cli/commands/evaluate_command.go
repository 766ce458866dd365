package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptsmith/internal/app"
	"github.com/doeshing/promptsmith/internal/application/evaluation"
	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/infrastructure/cli/helpers"
	"github.com/doeshing/promptsmith/internal/infrastructure/cli/render"
)

// NewEvaluateCommand creates the evaluate command
func NewEvaluateCommand(container *app.Container) *cobra.Command {
	var (
		criteriaFile  string
		csvFile       string
		promptContext string
		template      string
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "evaluate [prompt]",
		Short: "Score prompts against weighted criteria",
		Long: `Score a prompt, or every row of a CSV file with a "prompt" column, against weighted criteria.
Criteria are read from a YAML or JSON list; without --criteria every rubric metric is weighted equally.
With --template each CSV row is substituted into a catalog template or a prompt with {column} placeholders.`,
		Example: `  promptsmith evaluate "Summarize the report in 3 bullets"
  promptsmith evaluate --csv prompts.csv --criteria criteria.yaml
  promptsmith evaluate --csv reviews.csv --template sentiment
  promptsmith evaluate --csv notes.csv --template "Summarize {body} for {audience}"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if template != "" && csvFile == "" {
				return errors.New(ErrTemplateRequiresCSV)
			}
			criteria := evaluation.DefaultCriteria()
			if criteriaFile != "" {
				loaded, err := helpers.LoadCriteriaFromFile(criteriaFile)
				if err != nil {
					return err
				}
				criteria = loaded
			}

			ctx, cancel := withTimeout(cmd.Context(), timeout)
			defer cancel()

			if csvFile != "" {
				f, err := os.Open(csvFile)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", csvFile, err)
				}
				defer f.Close()

				var result domain.BatchEvaluationResult
				err = runWithSpinner(cmd, "Evaluating prompts", func() error {
					var runErr error
					if template != "" {
						result, runErr = container.EvaluationService.EvaluateCustomBatch(ctx, template, f, criteria)
					} else {
						result, runErr = container.EvaluationService.EvaluateBatch(ctx, f, criteria)
					}
					return runErr
				})
				if err != nil {
					return err
				}
				return output(cmd, result, func(w io.Writer) { render.BatchEvaluation(w, result) })
			}

			prompt, err := helpers.ReadText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			var result domain.EvaluationResult
			err = runWithSpinner(cmd, "Evaluating prompt", func() error {
				var runErr error
				result, runErr = container.EvaluationService.Evaluate(ctx, prompt, criteria, promptContext)
				return runErr
			})
			if err != nil {
				return err
			}
			return output(cmd, result, func(w io.Writer) { render.Evaluation(w, result) })
		},
	}

	cmd.Flags().StringVar(&criteriaFile, "criteria", "", "YAML or JSON file listing criteria")
	cmd.Flags().StringVar(&csvFile, "csv", "", "CSV file with a prompt column for batch evaluation")
	cmd.Flags().StringVar(&promptContext, "context", "", "Extra context about how the prompt will be used")
	cmd.Flags().StringVar(&template, "template", "", "Catalog template ID or prompt with {column} placeholders (requires --csv)")
	cmd.Flags().DurationVar(&timeout, "timeout", DefaultRequestTimeout, "Request timeout")

	cmd.AddCommand(
		newEvaluatePromptsCommand(container),
		newEvaluateValidateCommand(container),
	)
	return cmd
}

// newEvaluatePromptsCommand creates the 'evaluate prompts' subcommand
func newEvaluatePromptsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "prompts",
		Short: "List the built-in evaluation templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates := container.EvaluationService.Templates()
			return output(cmd, templates, func(w io.Writer) { render.EvaluationTemplates(w, templates) })
		},
	}
}

// newEvaluateValidateCommand creates the 'evaluate validate' subcommand
func newEvaluateValidateCommand(container *app.Container) *cobra.Command {
	var csvFile string

	cmd := &cobra.Command{
		Use:   "validate [prompt]",
		Short: "Check a custom prompt's {variables} against CSV columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := helpers.ReadText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			prompt = evaluation.ResolveTemplate(prompt)

			var csvContent io.Reader
			if csvFile != "" {
				f, err := os.Open(csvFile)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", csvFile, err)
				}
				defer f.Close()
				csvContent = f
			}

			result, err := container.EvaluationService.ValidatePrompt(prompt, csvContent)
			if err != nil {
				return err
			}
			if err := output(cmd, result, func(w io.Writer) { render.PromptValidation(w, result) }); err != nil {
				return err
			}
			if !result.Valid {
				return errors.New(result.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvFile, "csv", "", "CSV file whose header the variables must match")
	return cmd
}
