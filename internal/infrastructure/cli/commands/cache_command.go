package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptsmith/internal/app"
	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/infrastructure/cli/helpers"
	"github.com/doeshing/promptsmith/internal/infrastructure/cli/render"
)

const (
	msgNoCachedBatches = "No cached batches."
)

// NewCacheCommand creates the cache command with all subcommands
func NewCacheCommand(container *app.Container) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the generation cache",
	}

	cacheCmd.AddCommand(
		newCacheListCommand(container),
		newCacheStatsCommand(container),
		newCacheClearCommand(container),
		newCacheSweepCommand(container),
		newCacheConfigCommand(container),
	)

	return cacheCmd
}

// newCacheListCommand creates the 'cache list' subcommand
func newCacheListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCacheEntries(cmd, container)
		},
	}
}

// newCacheStatsCommand creates the 'cache stats' subcommand
func newCacheStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entry count, hits, misses and evictions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Cache == nil {
				return errors.New(ErrCacheUnavailable)
			}
			stats, err := container.Cache.Stats()
			if err != nil {
				return fmt.Errorf("failed to read cache stats: %w", err)
			}
			return output(cmd, stats, func(w io.Writer) {
				render.CacheStats(w, container.Config.GetCacheBackend(), stats)
				fmt.Fprintf(w, "  ttl        %s\n  hit rate   %.1f%%\n", container.Cache.TTL(), helpers.CacheHitRate(stats))
			})
		},
	}
}

// newCacheClearCommand creates the 'cache clear' subcommand
func newCacheClearCommand(container *app.Container) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Cache == nil {
				return errors.New(ErrCacheUnavailable)
			}
			if !helpers.Confirm(cmd.OutOrStdout(), cmd.InOrStdin(), "Drop all cached batches?", yes) {
				fmt.Fprintln(cmd.OutOrStdout(), MsgAborted)
				return nil
			}
			if err := container.Cache.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, FlagYes, "y", false, "Do not ask for confirmation")
	return cmd
}

// newCacheSweepCommand creates the 'cache sweep' subcommand
func newCacheSweepCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one maintenance pass: drop expired batches and prune old history",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := container.Maintenance().RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Evicted %d expired batches, pruned %d history entries.\n", result.CacheEvicted, result.HistoryPruned)
			return nil
		},
	}
}

// newCacheConfigCommand creates the 'cache config' subcommand
func newCacheConfigCommand(container *app.Container) *cobra.Command {
	var ttl string
	var maxEntries int
	var backend string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Update cache TTL, max entries or backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateCacheConfiguration(cmd.Context(), cmd.OutOrStdout(), container, ttl, maxEntries, backend)
		},
	}

	cmd.Flags().StringVar(&ttl, "ttl", "", "Cache TTL duration (e.g. 30m, 24h)")
	cmd.Flags().IntVar(&maxEntries, "max", 0, "Max cache entries")
	cmd.Flags().StringVar(&backend, "backend", "", "Cache backend (memory|file)")
	return cmd
}

// listCacheEntries lists all live cache entries
func listCacheEntries(cmd *cobra.Command, container *app.Container) error {
	if container.Cache == nil {
		return errors.New(ErrCacheUnavailable)
	}

	entries, err := container.Cache.Entries()
	if err != nil {
		return fmt.Errorf("failed to retrieve cache entries: %w", err)
	}
	if wantJSON(cmd) {
		if entries == nil {
			entries = []domain.CacheEntry{}
		}
		return render.JSON(cmd.OutOrStdout(), entries)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, msgNoCachedBatches)
		return nil
	}
	ttl := container.Cache.TTL()
	for _, entry := range entries {
		expires := entry.CachedAt.Add(ttl)
		fmt.Fprintf(out, "%s | %d items | cached %s | expires in %s\n",
			shortKey(entry.Key),
			len(entry.Data),
			entry.CachedAt.Format(domain.TimestampFormat),
			time.Until(expires).Round(time.Minute))
	}
	return nil
}

// updateCacheConfiguration updates cache settings in configuration
func updateCacheConfiguration(ctx context.Context, out io.Writer, container *app.Container, ttl string, maxEntries int, backend string) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if ttl != "" {
		cfg.Cache.TTL = ttl
	}
	if maxEntries > 0 {
		cfg.Cache.MaxEntries = maxEntries
	}
	if backend != "" {
		cfg.Cache.Backend = backend
	}

	if err := helpers.SaveConfigWithValidation(container.ConfigLoader, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Cache settings saved (ttl %s, max %d, backend %s).\n", cfg.Cache.TTL, cfg.GetCacheMaxEntries(), cfg.GetCacheBackend())
	return nil
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
