package domain

import "time"

// GeneratedItem is one synthetic sample inside a generation batch.
// Index is unique within its batch and follows generation order.
type GeneratedItem struct {
	Content   string    `json:"content"`
	Score     float64   `json:"score"`
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerationRecord is the result of one generation call, fresh or served from cache.
type GenerationRecord struct {
	ID               string          `json:"id"`
	Timestamp        time.Time       `json:"timestamp"`
	Template         string          `json:"template"`
	Model            string          `json:"model"`
	Data             []GeneratedItem `json:"data"`
	GenerationTime   float64         `json:"generation_time"`
	IsCached         bool            `json:"is_cached"`
	CachedAt         *time.Time      `json:"cached_at,omitempty"`
	ReferenceContent string          `json:"reference_content,omitempty"`
}

// GenerationRequest carries the caller input for a generation call.
type GenerationRequest struct {
	Template               string `json:"template"`
	Model                  string `json:"model,omitempty"`
	BatchSize              int    `json:"batch_size"`
	ReferenceContent       string `json:"reference_content,omitempty"`
	AdditionalInstructions string `json:"additional_instructions,omitempty"`
	ForceRefresh           bool   `json:"force_refresh,omitempty"`
}

// CacheEntry is a complete generated batch stored under its derived key.
// Entries are replaced, never updated in place.
type CacheEntry struct {
	Key      string          `json:"key"`
	Data     []GeneratedItem `json:"data"`
	CachedAt time.Time       `json:"cached_at"`
}

// CacheStats summarises generation cache activity since start-up.
type CacheStats struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// CloneItems returns a copy of items that shares no backing array with the input.
func CloneItems(items []GeneratedItem) []GeneratedItem {
	if items == nil {
		return nil
	}
	out := make([]GeneratedItem, len(items))
	copy(out, items)
	return out
}
