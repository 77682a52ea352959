package enrich

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// sanitizeString collapses any run of whitespace to a single space and trims
// the ends. Every string that crosses the extraction or AI boundary passes
// through here.
func sanitizeString(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// sanitizeList sanitizes each entry, drops blanks, removes duplicates while
// preserving order, and caps the result at max entries. max <= 0 means no cap.
func sanitizeList(values []string, max int) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))

	for _, v := range values {
		s := sanitizeString(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if max > 0 && len(out) == max {
			break
		}
	}

	return out
}

// truncateRunes cuts s to at most n runes, appending an ellipsis when
// truncation happened. Safe on multi-byte text.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}
