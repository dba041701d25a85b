package audit

import (
	"fmt"
	"testing"

	"github.com/pagewarden/pagewarden/internal/model"
)

const violationJSON = `{
	"problematic_text": "Guaranteed 100% win!",
	"violation_type": "Misleading Claim",
	"explanation": "Promises a certain outcome",
	"guideline_section": "3.2",
	"page_number": 12,
	"severity": "high",
	"suggested_rewrite": "Winning is never guaranteed."
}`

func TestParseViolationsShapeTolerance(t *testing.T) {
	// The same violation delivered in all three historical shapes must
	// parse identically.
	shapes := map[string]string{
		"object with violations array":    fmt.Sprintf(`{"violations": [%s]}`, violationJSON),
		"array of per-section objects":    fmt.Sprintf(`[{"violations": [%s]}]`, violationJSON),
		"bare array of violation objects": fmt.Sprintf(`[%s]`, violationJSON),
	}

	for name, raw := range shapes {
		t.Run(name, func(t *testing.T) {
			got := ParseViolations(raw, nil)
			if len(got) != 1 {
				t.Fatalf("got %d violations, want 1", len(got))
			}
			v := got[0]
			if v.ProblematicText != "Guaranteed 100% win!" {
				t.Errorf("ProblematicText = %q", v.ProblematicText)
			}
			if v.ViolationType != "Misleading Claim" {
				t.Errorf("ViolationType = %q", v.ViolationType)
			}
			if v.Severity != model.SeverityHigh {
				t.Errorf("Severity = %q", v.Severity)
			}
			if v.PageNumber.String() != "12" {
				t.Errorf("PageNumber = %q", v.PageNumber.String())
			}
		})
	}
}

func TestParseViolationsFencedBlock(t *testing.T) {
	raw := "Here is my analysis:\n```json\n{\"violations\": [" + violationJSON + "]}\n```\nLet me know if you need more."
	got := ParseViolations(raw, nil)
	if len(got) != 1 {
		t.Fatalf("got %d violations, want 1", len(got))
	}
}

func TestParseViolationsBraceSpanFallback(t *testing.T) {
	raw := "Sure! The result is {\"violations\": [" + violationJSON + "]} as requested."
	got := ParseViolations(raw, nil)
	if len(got) != 1 {
		t.Fatalf("got %d violations, want 1", len(got))
	}
}

func TestParseViolationsNoViolationString(t *testing.T) {
	// A per-section "violations" value that is the literal no-violation
	// string means a clean section, not a parse error.
	raw := `[{"violations": "no violation found"}, {"violations": [` + violationJSON + `]}]`
	got := ParseViolations(raw, nil)
	if len(got) != 1 {
		t.Fatalf("got %d violations, want 1", len(got))
	}
}

func TestParseViolationsControlCharHealing(t *testing.T) {
	raw := "{\"violations\": [{\"problematic_text\": \"bad\x01text\", \"violation_type\": \"Misleading Claim\"}]}"
	got := ParseViolations(raw, nil)
	if len(got) != 1 {
		t.Fatalf("got %d violations, want 1", len(got))
	}
}

func TestParseViolationsUnrecoverable(t *testing.T) {
	cases := map[string]string{
		"no JSON at all":  "I could not process this content.",
		"broken JSON":     `{"violations": [{"problematic_text": }`,
		"empty response":  "",
		"lone open brace": "{",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if got := ParseViolations(raw, nil); len(got) != 0 {
				t.Errorf("got %d violations, want 0", len(got))
			}
		})
	}
}

func TestParseViolationsDefensiveDefaults(t *testing.T) {
	raw := `{"violations": [{"problematic_text": "Always win big", "explanation": null}]}`
	got := ParseViolations(raw, nil)
	if len(got) != 1 {
		t.Fatalf("got %d violations, want 1", len(got))
	}
	v := got[0]
	if v.ViolationType != "Unknown" {
		t.Errorf("ViolationType = %q, want Unknown", v.ViolationType)
	}
	if v.Explanation != "N/A" {
		t.Errorf("Explanation = %q, want N/A", v.Explanation)
	}
	if v.Severity != model.SeverityMedium {
		t.Errorf("Severity = %q, want medium", v.Severity)
	}
	if v.PageNumber.String() != "0" {
		t.Errorf("PageNumber = %q, want 0", v.PageNumber.String())
	}
}

func TestParseViolationsSeverityNoise(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Severity
	}{
		{`{"violations": [{"problematic_text": "x", "violation_type": "y", "severity": "urgent"}]}`, model.SeverityMedium},
		{`{"violations": [{"problematic_text": "x", "violation_type": "y", "severity": "CRITICAL "}]}`, model.SeverityCritical},
	}
	for _, tt := range tests {
		got := ParseViolations(tt.raw, nil)
		if len(got) != 1 {
			t.Fatalf("got %d violations, want 1", len(got))
		}
		if got[0].Severity != tt.want {
			t.Errorf("Severity = %q, want %q", got[0].Severity, tt.want)
		}
	}
}

func TestParseViolationsStringPageNumber(t *testing.T) {
	raw := `{"violations": [{"problematic_text": "x", "violation_type": "y", "page_number": "12-13"}]}`
	got := ParseViolations(raw, nil)
	if len(got) != 1 {
		t.Fatalf("got %d violations, want 1", len(got))
	}
	if got[0].PageNumber.String() != "12-13" {
		t.Errorf("PageNumber = %q, want 12-13", got[0].PageNumber.String())
	}
}

func TestParseViolationsSkipsMalformedRecord(t *testing.T) {
	raw := `{"violations": ["not an object", ` + violationJSON + `]}`
	got := ParseViolations(raw, nil)
	if len(got) != 1 {
		t.Fatalf("got %d violations, want 1 (bad record skipped)", len(got))
	}
}
