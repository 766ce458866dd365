package commands

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptsmith/internal/infrastructure/cli/render"
)

// wantJSON reports whether the inherited --json flag is set.
func wantJSON(cmd *cobra.Command) bool {
	enabled, err := cmd.Flags().GetBool(FlagJSON)
	return err == nil && enabled
}

// output prints v as JSON when --json is set, otherwise through pretty.
func output(cmd *cobra.Command, v interface{}, pretty func(io.Writer)) error {
	if wantJSON(cmd) {
		return render.JSON(cmd.OutOrStdout(), v)
	}
	pretty(cmd.OutOrStdout())
	return nil
}

// withTimeout bounds ctx when timeout is positive.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// runWithSpinner animates label on stderr while fn runs.
func runWithSpinner(cmd *cobra.Command, label string, fn func() error) error {
	spinner := render.NewSpinner(cmd.ErrOrStderr(), label)
	spinner.Start()
	err := fn()
	spinner.Stop()
	return err
}
