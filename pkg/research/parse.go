package research

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"
)

// stripFences removes a Markdown code fence and a leading "json" language
// tag around a model response.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	if rest, ok := strings.CutPrefix(s, "json"); ok {
		rest = strings.TrimSpace(rest)
		if rest != "" && strings.ContainsRune("[{\"", rune(rest[0])) {
			s = rest
		}
	}
	return s
}

// parseList decodes a JSON value into strings. A value that is not an array
// becomes a single-element list; non-string elements are stringified.
func parseList(raw string) ([]string, error) {
	var v any
	if err := json.Unmarshal([]byte(stripFences(raw)), &v); err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, stringify(item))
	}
	return out, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// compact trims entries and drops blank ones.
func compact(items []string) []string {
	out := items[:0:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
