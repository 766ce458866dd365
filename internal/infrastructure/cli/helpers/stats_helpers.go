package helpers

import (
	"sort"

	"github.com/doeshing/promptsmith/internal/domain"
)

// UsageStatistic counts how often a value appears in history.
type UsageStatistic struct {
	Value string
	Count int
}

// HistoryStatistics summarises a slice of history records.
type HistoryStatistics struct {
	Total     int
	ByKind    map[domain.HistoryKind]int
	TopModels []UsageStatistic
	Cached    int
}

// AnalyzeHistory counts records per kind and model. Cached counts generation
// records that were served from the cache.
func AnalyzeHistory(records []domain.HistoryRecord, topN int) HistoryStatistics {
	stats := HistoryStatistics{
		Total:  len(records),
		ByKind: make(map[domain.HistoryKind]int),
	}
	models := make(map[string]int)

	for _, rec := range records {
		stats.ByKind[rec.Kind]++
		models[rec.Model]++
		if rec.Kind == domain.HistoryKindGeneration {
			if gen, err := rec.DecodeGeneration(); err == nil && gen.IsCached {
				stats.Cached++
			}
		}
	}

	stats.TopModels = CalculateTop(models, topN)
	return stats
}

// CalculateTop returns the top N most frequent values
// If limit is 0 or negative, returns all values
func CalculateTop(frequency map[string]int, limit int) []UsageStatistic {
	stats := make([]UsageStatistic, 0, len(frequency))
	for value, count := range frequency {
		stats = append(stats, UsageStatistic{Value: value, Count: count})
	}

	// count descending, then value ascending
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Value < stats[j].Value
		}
		return stats[i].Count > stats[j].Count
	})

	if limit > 0 && len(stats) > limit {
		return stats[:limit]
	}
	return stats
}

// CacheHitRate returns hits as a percentage of lookups.
func CacheHitRate(stats domain.CacheStats) float64 {
	lookups := stats.Hits + stats.Misses
	if lookups == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(lookups) * 100.0
}
