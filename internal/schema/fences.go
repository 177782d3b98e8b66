package schema

import "strings"

// StripFences removes a single markdown code fence wrapping the payload, a
// common model failure mode. It tolerates a language tag on the opening
// fence ("```json") and surrounding whitespace. Returns the cleaned text and
// whether a fence was removed.
func StripFences(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed, false
	}

	body := trimmed[3:]
	// Drop the language tag up to the first newline.
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		body = body[idx+1:]
	} else {
		// Opening fence with no content.
		return "", true
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body), true
}

// hasFenceRemnants reports whether text still contains fence markers after
// stripping, which produces a more specific parse diagnostic.
func hasFenceRemnants(text string) bool {
	return strings.Contains(text, "```")
}
