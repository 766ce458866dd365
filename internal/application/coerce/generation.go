package coerce

import (
	"sort"
	"strconv"
	"strings"

	"github.com/doeshing/promptsmith/internal/application/normalize"
	"github.com/doeshing/promptsmith/internal/domain"
)

const generatedContentPrefix = "generated_content_"

// ScoredContent is one coerced generation entry before it is indexed and timestamped.
type ScoredContent struct {
	Content string
	Score   float64
}

// GenerationBatch extracts up to expectedCount entries from a sanitized generation
// document. Entries missing a usable score get DefaultScore. An entry with empty
// content fails the whole batch with *domain.EmptyGenerationItemError.
//
// Accepted shapes: {"generated_content_1": {...}, "generated_content_2": {...}},
// a list of entries, {"items"|"data": [...]}, or a single {"content", "score"} object.
// Entries may also be bare strings. In the keyed shape, metadata keys such as
// "total_items" are ignored.
func GenerationBatch(parsed interface{}, expectedCount int) ([]ScoredContent, error) {
	entries := GenerationEntries(parsed)
	if expectedCount > 0 && len(entries) > expectedCount {
		entries = entries[:expectedCount]
	}
	out := make([]ScoredContent, 0, len(entries))
	for i, entry := range entries {
		item, ok := generationItem(entry)
		if !ok {
			return nil, &domain.EmptyGenerationItemError{Index: i}
		}
		out = append(out, item)
	}
	return out, nil
}

// GenerationEntries returns the raw entries of a generation document in order.
func GenerationEntries(parsed interface{}) []interface{} {
	switch v := parsed.(type) {
	case []interface{}:
		return v
	case string:
		return []interface{}{v}
	case map[string]interface{}:
		if _, ok := v["content"]; ok {
			return []interface{}{v}
		}
		for _, key := range []string{"items", "data", "generated_content"} {
			if list, ok := v[key].([]interface{}); ok {
				return list
			}
		}
		return keyedEntries(v)
	default:
		return nil
	}
}

// keyedEntries returns the generated_content_N values in natural key order. Without
// such keys it falls back to every object or string value; scalar metadata is dropped.
func keyedEntries(doc map[string]interface{}) []interface{} {
	var numbered, other []string
	for key, value := range doc {
		if isGeneratedContentKey(key) {
			numbered = append(numbered, key)
			continue
		}
		switch value.(type) {
		case map[string]interface{}, string:
			other = append(other, key)
		}
	}
	keys := numbered
	if len(keys) == 0 {
		keys = other
	}
	sortNatural(keys)
	out := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		out = append(out, doc[key])
	}
	return out
}

func isGeneratedContentKey(key string) bool {
	prefix, _, ok := splitTrailingNumber(key)
	return ok && prefix == generatedContentPrefix
}

func generationItem(entry interface{}) (ScoredContent, bool) {
	var content string
	score := DefaultScore
	switch v := entry.(type) {
	case string:
		content = v
	case map[string]interface{}:
		switch c := v["content"].(type) {
		case string:
			content = c
		case nil:
		default:
			if encoded, err := normalize.MarshalCompact(c); err == nil {
				content = string(encoded)
			}
		}
		score = Score(v["score"])
	}
	if strings.TrimSpace(content) == "" {
		return ScoredContent{}, false
	}
	return ScoredContent{Content: content, Score: score}, true
}

// sortNatural orders keys by their non-numeric prefix, then by any trailing number,
// so "generated_content_10" follows "generated_content_9".
func sortNatural(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		pi, ni, oki := splitTrailingNumber(keys[i])
		pj, nj, okj := splitTrailingNumber(keys[j])
		if pi != pj || !oki || !okj {
			return keys[i] < keys[j]
		}
		return ni < nj
	})
}

func splitTrailingNumber(s string) (string, int, bool) {
	end := len(s)
	start := end
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	if start == end {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return s, 0, false
	}
	return s[:start], n, true
}
