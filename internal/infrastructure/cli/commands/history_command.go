package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptsmith/internal/app"
	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/infrastructure/cli/helpers"
	"github.com/doeshing/promptsmith/internal/infrastructure/cli/render"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect analysis, comparison and generation history",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistoryShowCommand(container),
		newHistoryDeleteCommand(container),
		newHistoryClearCommand(container),
		newHistoryStatsCommand(container),
		newHistoryRetainCommand(container),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(container *app.Container) *cobra.Command {
	var (
		kind   string
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent history entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.HistoryFilter{Kind: domain.HistoryKind(strings.ToLower(kind)), Limit: limit, Search: search}
			if filter.Kind != "" && !filter.Kind.Valid() {
				return fmt.Errorf("--kind must be analysis, comparison or generation")
			}
			records, err := listHistory(cmd.Context(), container, filter)
			if err != nil {
				return err
			}
			if records == nil {
				records = []domain.HistoryRecord{}
			}
			return output(cmd, records, func(w io.Writer) { render.History(w, records) })
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only show analysis, comparison or generation records")
	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show")
	cmd.Flags().StringVarP(&search, "query", "q", "", "Case-insensitive keyword filter")
	return cmd
}

// newHistoryShowCommand creates the 'history show' subcommand
func newHistoryShowCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the stored result for a history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := findHistoryRecord(cmd.Context(), container, args[0])
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return render.JSON(cmd.OutOrStdout(), rec)
			}
			return renderHistoryPayload(cmd.OutOrStdout(), rec)
		},
	}
}

// newHistoryDeleteCommand creates the 'history delete' subcommand
func newHistoryDeleteCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.HistoryStore == nil {
				return errors.New(ErrHistoryStoreUnavailable)
			}
			removed, err := container.HistoryStore.Delete(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to delete history entry: %w", err)
			}
			if !removed {
				return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(container *app.Container) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every history entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.HistoryStore == nil {
				return errors.New(ErrHistoryStoreUnavailable)
			}
			if !helpers.Confirm(cmd.OutOrStdout(), cmd.InOrStdin(), "Delete all history?", yes) {
				fmt.Fprintln(cmd.OutOrStdout(), MsgAborted)
				return nil
			}
			if err := container.HistoryStore.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, FlagYes, "y", false, "Do not ask for confirmation")
	return cmd
}

// newHistoryStatsCommand creates the 'history stats' subcommand
func newHistoryStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record counts per kind and most used models",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := listHistory(cmd.Context(), container, domain.HistoryFilter{Limit: DefaultHistoryStatsWindow})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, MsgNoHistoryRecorded)
				return nil
			}
			stats := helpers.AnalyzeHistory(records, TopModelsShown)
			if wantJSON(cmd) {
				return render.JSON(out, stats)
			}
			displayHistoryStatistics(out, stats)
			return nil
		},
	}
}

// newHistoryRetainCommand creates the 'history retain' subcommand
func newHistoryRetainCommand(container *app.Container) *cobra.Command {
	var retainDays int

	cmd := &cobra.Command{
		Use:   "retain",
		Short: "Prune history older than N days and update retention policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if retainDays <= 0 {
				return errors.New(ErrInvalidRetainDays)
			}
			return updateHistoryRetention(cmd.Context(), cmd.OutOrStdout(), container, retainDays)
		},
	}

	cmd.Flags().IntVar(&retainDays, "days", domain.DefaultHistoryRetainDays, "Days to retain history")
	return cmd
}

func listHistory(ctx context.Context, container *app.Container, filter domain.HistoryFilter) ([]domain.HistoryRecord, error) {
	if container.HistoryStore == nil {
		return nil, errors.New(ErrHistoryStoreUnavailable)
	}
	records, err := container.HistoryStore.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve history records: %w", err)
	}
	return records, nil
}

// findHistoryRecord scans the newest records for id.
func findHistoryRecord(ctx context.Context, container *app.Container, id string) (domain.HistoryRecord, error) {
	records, err := listHistory(ctx, container, domain.HistoryFilter{Limit: DefaultHistoryStatsWindow})
	if err != nil {
		return domain.HistoryRecord{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.HistoryRecord{}, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
}

func renderHistoryPayload(out io.Writer, rec domain.HistoryRecord) error {
	switch rec.Kind {
	case domain.HistoryKindAnalysis:
		result, err := rec.DecodeAnalysis()
		if err != nil {
			return err
		}
		render.Analysis(out, result)
	case domain.HistoryKindComparison:
		result, err := rec.DecodeComparison()
		if err != nil {
			return err
		}
		render.Comparison(out, result)
	case domain.HistoryKindGeneration:
		record, err := rec.DecodeGeneration()
		if err != nil {
			return err
		}
		render.Generation(out, record)
	default:
		return fmt.Errorf("history record %s has unknown kind %q", rec.ID, rec.Kind)
	}
	return nil
}

// updateHistoryRetention prunes old history and updates retention policy
func updateHistoryRetention(ctx context.Context, out io.Writer, container *app.Container, days int) error {
	store := container.HistoryStore
	if store == nil {
		return errors.New(ErrHistoryStoreUnavailable)
	}

	pruned, err := store.PruneOlderThan(ctx, days)
	if err != nil {
		return fmt.Errorf("failed to prune old history: %w", err)
	}

	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.History.RetentionDays = days

	if err := helpers.SaveConfigWithValidation(container.ConfigLoader, cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "Pruned %d entries. Retaining last %d days of history.\n", pruned, days)
	return nil
}

// displayHistoryStatistics displays formatted history statistics
func displayHistoryStatistics(out io.Writer, stats helpers.HistoryStatistics) {
	fmt.Fprintf(out, "Entries analyzed: %d\n", stats.Total)
	for _, kind := range []domain.HistoryKind{domain.HistoryKindAnalysis, domain.HistoryKindComparison, domain.HistoryKindGeneration} {
		fmt.Fprintf(out, "  %s: %d\n", kind, stats.ByKind[kind])
	}
	fmt.Fprintf(out, "Generations served from cache: %d\n", stats.Cached)

	fmt.Fprintln(out, "Top models:")
	for _, stat := range stats.TopModels {
		fmt.Fprintf(out, "  %s (%d)\n", stat.Value, stat.Count)
	}
}
