package translation

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// preferredKeys are checked before falling back to the first array-valued key
var preferredKeys = []string{"lines", "translations"}

var lineBreaks = regexp.MustCompile(`\n+`)

// ParseLines extracts translated lines from a model reply. It accepts a bare
// JSON array of strings, or an object holding one under "lines",
// "translations" or its first array-valued key. Anything else is split on
// newline runs.
func ParseLines(content string) []string {
	body := extractJSON(content)

	var arr []string
	if err := json.Unmarshal([]byte(body), &arr); err == nil {
		return arr
	}

	if lines, ok := linesFromObject(body); ok {
		return lines
	}

	return splitLines(content)
}

func linesFromObject(body string) ([]string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil, false
	}

	for _, key := range preferredKeys {
		if raw, ok := obj[key]; ok {
			if lines, ok := stringArray(raw); ok {
				return lines, true
			}
		}
	}

	for _, key := range orderedKeys(body) {
		if lines, ok := stringArray(obj[key]); ok {
			return lines, true
		}
	}
	return nil, false
}

// orderedKeys returns the top-level object keys in document order
func orderedKeys(body string) []string {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
	}
	return keys
}

func stringArray(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, false
	}
	return lines, true
}

func splitLines(content string) []string {
	lines := make([]string, 0)
	for _, line := range lineBreaks.Split(strings.ReplaceAll(content, "\r\n", "\n"), -1) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// extractJSON strips a markdown code fence around the reply, if any
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
