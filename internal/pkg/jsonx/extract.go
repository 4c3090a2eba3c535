// Package jsonx recovers JSON objects from free-text model replies.
//
// Backends routinely wrap JSON in commentary or markdown fences and may
// truncate on hitting the output-token ceiling. Losing a fully-computed
// result to a formatting artifact is worse than returning a partial one, so
// extraction recovers the largest complete object it can find.
package jsonx

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/planflow/planflow/internal/domain"
)

const fence = "```"

// ExtractObject extracts a well-formed JSON object from raw model output.
// It strips code fences and surrounding prose, repairs truncation by keeping
// the first complete top-level object, and parses the result. Failures are
// reported as *domain.MalformedResponseError with the raw text preserved.
func ExtractObject(raw string) (map[string]any, error) {
	text := stripFences(strings.TrimSpace(raw))

	first := strings.IndexByte(text, '{')
	if first == -1 {
		return nil, &domain.MalformedResponseError{Raw: raw, Err: errors.New("no JSON object in response")}
	}
	if last := strings.LastIndexByte(text, '}'); last > first {
		text = text[first : last+1]
	} else {
		// No closing brace at all; keep the tail for the truncation scan.
		text = text[first:]
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj, nil
	}

	// Truncated or trailed-by-noise output: the position where brace depth
	// first returns to zero marks the end of the first complete object.
	if end, ok := completeObjectEnd(text); ok {
		var repaired map[string]any
		if err := json.Unmarshal([]byte(text[:end]), &repaired); err == nil {
			return repaired, nil
		}
	}

	err := json.Unmarshal([]byte(text), &obj)
	return nil, &domain.MalformedResponseError{Raw: raw, Err: err}
}

// stripFences removes markdown code fences. A block tagged as JSON wins over
// a generic wrapping fence; a missing closing fence (truncated reply) keeps
// everything after the opening tag.
func stripFences(text string) string {
	if start := strings.Index(text, fence+"json"); start != -1 {
		inner := text[start+len(fence+"json"):]
		if end := strings.Index(inner, fence); end != -1 {
			inner = inner[:end]
		}
		return strings.TrimSpace(inner)
	}
	if strings.HasPrefix(text, fence) && strings.HasSuffix(text, fence) && len(text) > 2*len(fence) {
		inner := text[len(fence) : len(text)-len(fence)]
		// Drop a language marker on the opening line.
		if nl := strings.IndexByte(inner, '\n'); nl != -1 && !strings.ContainsAny(inner[:nl], "{}") {
			inner = inner[nl+1:]
		}
		return strings.TrimSpace(inner)
	}
	return text
}

// completeObjectEnd scans text (which must start at an opening brace) and
// returns the offset just past the brace that closes the first top-level
// object. Braces inside string literals are ignored.
func completeObjectEnd(text string) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
