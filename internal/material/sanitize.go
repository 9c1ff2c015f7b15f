package material

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Sanitize normalizes raw LLM output into a JSON candidate string. It strips
// markdown code fences, slices the text to the span between the first '{'
// and the last '}', and removes trailing commas before closing braces and
// brackets. Sanitize is idempotent on already-clean input. If no braces are
// present the result will simply fail to parse downstream.
func Sanitize(raw string) string {
	s := stripCodeFences(raw)
	s = sliceToObject(s)
	s = removeTrailingCommas(s)
	return s
}

// ParseFilled parses sanitized LLM output into a generic document. On parse
// failure it escalates to a more aggressive repair pass (quote
// normalization, missing-comma insertion) before giving up; the final error
// carries a truncated excerpt of the offending text for diagnosis.
func ParseFilled(raw string) (map[string]any, error) {
	cleaned := Sanitize(raw)

	var doc map[string]any
	if err := json.Unmarshal([]byte(cleaned), &doc); err == nil {
		return doc, nil
	}

	repaired := insertMissingCommas(normalizeQuotes(cleaned))
	repaired = removeTrailingCommas(repaired)
	if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
		return nil, fmt.Errorf("parse generated content: %w (text: %s)", err, excerpt(cleaned, 200))
	}
	return doc, nil
}

// stripCodeFences removes markdown code fences (```json ... ``` or ``` ... ```).
func stripCodeFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	var kept []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// sliceToObject cuts the string down to the span between the first '{' and
// the last '}'. If either brace is missing the input is returned unchanged.
func sliceToObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

// removeTrailingCommas drops commas that directly precede a closing brace
// or bracket, outside of string values.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' && inString {
			b.WriteByte(c)
			escaped = true
			continue
		}
		if c == '"' {
			b.WriteByte(c)
			inString = !inString
			continue
		}
		if inString {
			b.WriteByte(c)
			continue
		}

		if c == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}

		b.WriteByte(c)
	}

	return b.String()
}

// normalizeQuotes replaces curly/smart quotes with plain double quotes.
// Models occasionally emit them around keys and values.
func normalizeQuotes(s string) string {
	replacer := strings.NewReplacer(
		"“", `"`, // left double quote
		"”", `"`, // right double quote
		"‘", "'",
		"’", "'",
	)
	return replacer.Replace(s)
}

// insertMissingCommas adds commas between adjacent closing and opening
// braces/brackets ("}{", "][", "}[", "]{"), outside of string values.
func insertMissingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' && inString {
			b.WriteByte(c)
			escaped = true
			continue
		}
		if c == '"' {
			b.WriteByte(c)
			inString = !inString
			continue
		}
		if inString {
			b.WriteByte(c)
			continue
		}

		b.WriteByte(c)
		if c == '}' || c == ']' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '{' || s[j] == '[') {
				b.WriteByte(',')
			}
		}
	}

	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t'
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
