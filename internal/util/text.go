package util

import (
	"regexp"
	"strings"
	"unicode"
)

var spaceRun = regexp.MustCompile(`\s+`)

// CleanText collapses whitespace runs and strips control characters.
// Every extracted line passes through here before tagging.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(spaceRun.ReplaceAllString(b.String(), " "))
}

// matchKeyMaxLen bounds normalized match keys so near-identical long texts
// still collide on purpose.
const matchKeyMaxLen = 80

// NormalizeMatchKey reduces text to a fuzzy lookup key: lowercased, with
// punctuation and whitespace stripped, truncated to a bounded length. Used
// to re-attach translations after the filter agent rewrites wording.
func NormalizeMatchKey(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	key := b.String()
	if len(key) > matchKeyMaxLen {
		key = key[:matchKeyMaxLen]
	}
	return key
}

var unsafeFilename = regexp.MustCompile(`[^\w\s-]`)

// SafeFilename converts free text into an OS-safe filename.
func SafeFilename(text string, maxLen int) string {
	if text == "" {
		return "untitled"
	}
	safe := unsafeFilename.ReplaceAllString(text, "")
	safe = spaceRun.ReplaceAllString(strings.TrimSpace(safe), "_")
	if maxLen > 0 && len(safe) > maxLen {
		safe = safe[:maxLen]
	}
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "untitled"
	}
	return safe
}
