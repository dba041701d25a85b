package audit

import (
	"strings"

	"github.com/pagewarden/pagewarden/internal/model"
)

// placeholderTexts are problematic_text values that carry no finding.
var placeholderTexts = map[string]bool{
	"n/a":  true,
	"none": true,
}

// Sanitizer drops "no issue" noise records. The type blacklist is a policy
// table rather than a constant: both the auditors and the filter agent emit
// these phrasings, so the same filter runs before and after deduplication.
type Sanitizer struct {
	noIssueTypes map[string]bool
}

// NewSanitizer builds a sanitizer from a no-issue vocabulary. An empty list
// falls back to the built-in defaults.
func NewSanitizer(noIssueTypes []string) *Sanitizer {
	if len(noIssueTypes) == 0 {
		noIssueTypes = model.DefaultNoIssueTypes()
	}
	blacklist := make(map[string]bool, len(noIssueTypes))
	for _, t := range noIssueTypes {
		blacklist[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &Sanitizer{noIssueTypes: blacklist}
}

// Sanitize returns the records that describe a real finding. Pure filter,
// idempotent by construction.
func (s *Sanitizer) Sanitize(violations []model.Violation) []model.Violation {
	kept := make([]model.Violation, 0, len(violations))
	for _, v := range violations {
		if s.keeps(v) {
			kept = append(kept, v)
		}
	}
	return kept
}

func (s *Sanitizer) keeps(v model.Violation) bool {
	vtype := strings.ToLower(strings.TrimSpace(v.ViolationType))
	if vtype == "" || s.noIssueTypes[vtype] {
		return false
	}
	text := strings.ToLower(strings.TrimSpace(v.ProblematicText))
	if text == "" || placeholderTexts[text] {
		return false
	}
	return true
}
