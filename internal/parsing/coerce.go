package parsing

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// cleanText normalizes an untyped source value into an optional string.
// nil, the literal token "null" and values that are empty after trimming
// (including non-breaking spaces) are absent.
func cleanText(v any) *string {
	s, ok := textValue(v)
	if !ok || s == "null" {
		return nil
	}
	return &s
}

// textValue stringifies a scalar and trims it; ok is false when the value
// is nil or trims to nothing.
func textValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, " ", " "))
		if s == "" {
			return "", false
		}
		return s, true
	case map[string]any, []any:
		return "", false
	default:
		s := strings.TrimSpace(fmt.Sprint(t))
		if s == "" {
			return "", false
		}
		return s, true
	}
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		if math.IsNaN(t) {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		if f, err := t.Float64(); err == nil {
			return int64(f), true
		}
		return 0, false
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(t) {
			return 0, false
		}
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f, true
		}
		return 0, false
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

// firstAlias returns the value of the first alias key that is present with a
// usable value: non-nil, and for strings non-empty after trimming.
func firstAlias(rec map[string]any, aliases []string) (any, bool) {
	for _, key := range aliases {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr {
			if strings.TrimSpace(s) == "" {
				continue
			}
		}
		return v, true
	}
	return nil, false
}

// cleanFirst resolves an alias list to a cleaned optional string.
func cleanFirst(rec map[string]any, aliases []string) *string {
	v, ok := firstAlias(rec, aliases)
	if !ok {
		return nil
	}
	return cleanText(v)
}
