package provider

import (
	"math"
	"strconv"
)

// ExtractValue normalizes a stat value from loosely typed API payloads.
//
// Some sources return flat numbers, some return numeric strings, and some
// nest the value under {"total": n} or {"value": n}. This handles all three.
//
// Returns the scalar float64 value, and ok=false if not extractable.
func ExtractValue(val interface{}) (float64, bool) {
	if val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
		return 0, false
	case map[string]interface{}:
		for _, key := range []string{"total", "value", "all", "count"} {
			if inner, exists := v[key]; exists && inner != nil {
				return ExtractValue(inner)
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

// ExtractInt returns the value under key rounded to an int, or nil when the
// key is absent or not numeric. Absence must stay distinguishable from zero.
func ExtractInt(stats map[string]interface{}, key string) *int {
	f, ok := ExtractValue(stats[key])
	if !ok {
		return nil
	}
	n := int(math.Round(f))
	return &n
}

// ExtractFloat is ExtractInt without rounding.
func ExtractFloat(stats map[string]interface{}, key string) *float64 {
	f, ok := ExtractValue(stats[key])
	if !ok {
		return nil
	}
	return &f
}
