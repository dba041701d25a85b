package model

import (
	"encoding/json"
	"strings"
)

// Severity classifies a violation per the auditor severity framework.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// ParseSeverity converts auditor string output to a Severity, defaulting to
// medium for empty or unknown values. Case and surrounding whitespace noise
// are tolerated.
func ParseSeverity(value string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(value))) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityHigh:
		return SeverityHigh
	case SeverityMedium:
		return SeverityMedium
	case SeverityLow:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// PageNumber tolerates both int and string page references, since guideline
// documents use either. It re-serializes to whatever form arrived.
type PageNumber struct {
	raw json.RawMessage
}

// NewPageNumber builds a PageNumber from an int.
func NewPageNumber(n int) PageNumber {
	raw, _ := json.Marshal(n)
	return PageNumber{raw: raw}
}

// NewPageString builds a PageNumber from a string reference like "12-13".
func NewPageString(s string) PageNumber {
	raw, _ := json.Marshal(s)
	return PageNumber{raw: raw}
}

func (p *PageNumber) UnmarshalJSON(data []byte) error {
	p.raw = append(p.raw[:0], data...)
	return nil
}

func (p PageNumber) MarshalJSON() ([]byte, error) {
	if len(p.raw) == 0 {
		return []byte("0"), nil
	}
	return p.raw, nil
}

// String renders the page reference for reports.
func (p PageNumber) String() string {
	if len(p.raw) == 0 {
		return "0"
	}
	var s string
	if err := json.Unmarshal(p.raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(p.raw))
}

// Violation is a single reported compliance issue.
type Violation struct {
	ProblematicText  string     `json:"problematic_text"`
	ViolationType    string     `json:"violation_type"`
	Explanation      string     `json:"explanation"`
	GuidelineSection string     `json:"guideline_section"`
	PageNumber       PageNumber `json:"page_number"`
	Severity         Severity   `json:"severity"`
	SuggestedRewrite string     `json:"suggested_rewrite"`

	// Multilingual fields. The filter agent sometimes drops these; the
	// restoration pass puts them back.
	Translation        string `json:"translation,omitempty"`
	RewriteTranslation string `json:"rewrite_translation,omitempty"`
	ChunkLanguage      string `json:"chunk_language,omitempty"`

	// SourceAuditID records which parallel auditor run produced the finding.
	// Traceability only; never part of the external serialization contract.
	SourceAuditID int `json:"-"`
}
