package parsing

import (
	"encoding/json"
	"log"
	"time"
)

// canonicalDate is the wire and storage format for registration dates.
const canonicalDate = "2006-01-02"

// dateLayouts are tried in order against string-valued dates. The list covers
// the formats seen across the registry dumps; a bare year appears in some
// streamed exports and resolves to January 1st of that year.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
	"2006",
}

// NormalizeDate coerces a date of unknown shape into a canonical YYYY-MM-DD
// string. Numeric values are Unix timestamps in seconds. Returns ok=false for
// missing or unparseable input; never an error.
func NormalizeDate(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case float64:
		return time.Unix(int64(t), 0).UTC().Format(canonicalDate), true
	case int:
		return time.Unix(int64(t), 0).UTC().Format(canonicalDate), true
	case int64:
		return time.Unix(t, 0).UTC().Format(canonicalDate), true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return time.Unix(i, 0).UTC().Format(canonicalDate), true
		}
		if f, err := t.Float64(); err == nil {
			return time.Unix(int64(f), 0).UTC().Format(canonicalDate), true
		}
		return "", false
	case string:
		s, ok := textValue(t)
		if !ok || s == "null" {
			return "", false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.Format(canonicalDate), true
			}
		}
		log.Printf("Warning: could not parse date: %q", s)
		return "", false
	default:
		return "", false
	}
}
