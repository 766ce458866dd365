package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Score converts a model-reported score to [0, 1]. Numbers and numeric strings
// are clamped; anything else, NaN included, becomes DefaultScore.
func Score(value interface{}) float64 {
	f, ok := toFloat(value)
	if !ok || math.IsNaN(f) {
		return DefaultScore
	}
	return Clamp(f)
}

// Clamp bounds f to [0, 1].
func Clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
