package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

type framing int

const (
	framingLines framing = iota
	framingArray
	framingWrapped
)

// wrapperKeys are the conventional envelope keys under which some dumps nest
// their record list, in lookup order.
var wrapperKeys = []string{"companies", "data", "results", "items", "records"}

// wrapperPattern matches a document that opens with a wrapper key bound to
// an array, which can then be streamed without materializing the envelope.
var wrapperPattern = regexp.MustCompile(`^\s*\{\s*"(companies|data|results|items|records)"\s*:\s*\[`)

// detectFraming classifies the head of the decompressed stream. A leading
// bracket means a plain JSON array; a leading wrapper key means an array
// under an envelope; anything else is treated as newline-delimited objects.
func detectFraming(head []byte) framing {
	trimmed := bytes.TrimLeft(head, " \t\r\n")
	if len(trimmed) == 0 {
		return framingLines
	}
	if trimmed[0] == '[' {
		return framingArray
	}
	if wrapperPattern.Match(head) {
		return framingWrapped
	}
	return framingLines
}

// consumeWrapper positions dec just inside the array of a wrapper envelope:
// past the opening brace, the wrapper key, and the opening bracket.
func consumeWrapper(dec *json.Decoder) error {
	for i := 0; i < 3; i++ {
		if _, err := dec.Token(); err != nil {
			return fmt.Errorf("failed to decode wrapper framing: %w", err)
		}
	}
	return nil
}

// namesList reports whether a record carries a non-empty "names" sub-list.
func namesList(item map[string]any) ([]any, bool) {
	names, ok := item["names"].([]any)
	if !ok || len(names) == 0 {
		return nil, false
	}
	return names, true
}

// explodeNames turns one parent record into one raw record per name entry.
// Each exploded record keeps the parent's business id, takes identity fields
// from the name entry, and carries every other parent field in its metadata.
func explodeNames(item map[string]any, names []any) []map[string]any {
	meta := make(map[string]any, len(item)-1)
	for k, v := range item {
		if k != "names" {
			meta[k] = v
		}
	}

	businessID := item["businessId"]
	if sub, ok := businessID.(map[string]any); ok {
		businessID = sub["value"]
	}

	out := make([]map[string]any, 0, len(names))
	for _, nv := range names {
		entry, ok := nv.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, map[string]any{
			"business_id":       businessID,
			"name":              entry["name"],
			"registration_date": entry["registrationDate"],
			"end_date":          entry["endDate"],
			"name_type":         entry["type"],
			"source":            entry["source"],
			"version":           entry["version"],
			"metadata":          meta,
		})
	}
	return out
}
