package ai

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/promptsmith/internal/domain"
)

// fanOut runs call n times concurrently and concatenates the choices in call order.
// The first failure cancels the remaining calls.
func fanOut(ctx context.Context, n int, call func(context.Context) ([]string, error)) ([]string, error) {
	results := make([][]string, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			choices, err := call(gctx)
			if err != nil {
				return err
			}
			results[i] = choices
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []string
	for _, choices := range results {
		out = append(out, choices...)
	}
	return out, nil
}

func getEnv(primary, fallback string) string {
	if primary != "" {
		if value := os.Getenv(primary); value != "" {
			return value
		}
	}
	if fallback != "" {
		return os.Getenv(fallback)
	}
	return ""
}

func missingKeyError(model domain.ModelDefinition, fallback string) error {
	switch {
	case model.AuthEnvVar != "" && fallback != "" && model.AuthEnvVar != fallback:
		return fmt.Errorf("missing API key for %s: set %s or %s", model.Name, model.AuthEnvVar, fallback)
	case model.AuthEnvVar != "":
		return fmt.Errorf("missing API key for %s: set %s", model.Name, model.AuthEnvVar)
	default:
		return fmt.Errorf("missing API key for %s: set %s", model.Name, fallback)
	}
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func defaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}
