package history

import (
	"sort"
	"strings"
	"time"

	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/ports"
)

// applyFilter sorts newest first, then applies kind, search and limit.
func applyFilter(records []domain.HistoryRecord, filter domain.HistoryFilter) []domain.HistoryRecord {
	sorted := make([]domain.HistoryRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	limit := filter.EffectiveLimit()
	out := make([]domain.HistoryRecord, 0, min(limit, len(sorted)))
	for _, rec := range sorted {
		if filter.Kind != "" && rec.Kind != filter.Kind {
			continue
		}
		if search != "" && !matches(rec, search) {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out
}

func matches(rec domain.HistoryRecord, needle string) bool {
	return strings.Contains(strings.ToLower(rec.Summary), needle) ||
		strings.Contains(strings.ToLower(rec.Model), needle)
}

func cutoffFor(clock ports.Clock, days int) time.Time {
	return clock.Now().Add(-time.Duration(days) * 24 * time.Hour)
}
