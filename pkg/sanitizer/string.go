package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses any run of whitespace
// (including newlines and tabs) into a single space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeReason normalizes a free-text rejection reason and caps its length
// so that one approver cannot blow up every fan-out message.
func NormalizeReason(reason string, maxLen int) string {
	normalized := TrimAndNormalize(reason)
	if maxLen > 0 && len(normalized) > maxLen {
		normalized = normalized[:maxLen]
	}
	return normalized
}

// NormalizeFileName strips path separators and control characters from a
// transport-provided file name.
func NormalizeFileName(name string) string {
	name = TrimAndNormalize(name)
	var result strings.Builder
	for _, r := range name {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}
