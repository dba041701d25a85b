package audit

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pagewarden/pagewarden/internal/model"
)

// fencedBlockRe captures the payload of a markdown code fence, with or
// without a language hint.
var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// ParseViolations extracts a violation list from raw auditor output. It
// never fails: unrecoverable input yields an empty list with the reason
// logged, because one bad reply must not abort the sibling ensemble calls.
func ParseViolations(raw string, logger *slog.Logger) []model.Violation {
	if logger == nil {
		logger = slog.Default()
	}

	span, ok := extractJSONSpan(raw)
	if !ok {
		logger.Warn("no JSON payload in auditor response", "response_len", len(raw))
		return nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(span), &decoded); err != nil {
		// One conservative repair pass, then give up rather than guess.
		healed := healControlChars(span)
		if err2 := json.Unmarshal([]byte(healed), &decoded); err2 != nil {
			logger.Warn("auditor response is not valid JSON", "err", err, "healed_err", err2)
			return nil
		}
		logger.Debug("auditor response parsed after control-character repair")
	}

	return mapViolations(flattenShapes(decoded, logger), logger)
}

// extractJSONSpan locates the JSON payload within raw text: a fenced code
// block first, then the outermost brace/bracket span.
func extractJSONSpan(raw string) (string, bool) {
	if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}

	objStart := strings.Index(raw, "{")
	arrStart := strings.Index(raw, "[")
	start, closer := objStart, "}"
	if start < 0 || (arrStart >= 0 && arrStart < start) {
		start, closer = arrStart, "]"
	}
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(raw, closer)
	if end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// healControlChars normalizes stray control characters that LLMs sometimes
// emit inside string values. Newlines, tabs and carriage returns become
// spaces; other control characters are dropped.
func healControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(' ')
		case r < 0x20:
			// drop
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// flattenShapes normalizes the three historical response shapes to a flat
// list of raw violation values: an object with a violations array, an array
// of per-section objects each carrying a violations array, or a bare array
// of violation objects.
func flattenShapes(decoded any, logger *slog.Logger) []any {
	var flat []any

	appendSection := func(m map[string]any) {
		v, ok := m["violations"]
		if !ok {
			// A bare violation object without the envelope.
			flat = append(flat, m)
			return
		}
		switch vv := v.(type) {
		case []any:
			flat = append(flat, vv...)
		case string:
			// "no violation found" as a string means a clean section.
		case nil:
		default:
			logger.Warn("unexpected violations value in auditor response")
		}
	}

	switch d := decoded.(type) {
	case map[string]any:
		appendSection(d)
	case []any:
		for _, item := range d {
			if m, ok := item.(map[string]any); ok {
				appendSection(m)
			} else {
				logger.Warn("skipping non-object entry in auditor response")
			}
		}
	default:
		logger.Warn("auditor response is neither object nor array")
	}
	return flat
}

// mapViolations converts raw violation values to Violation records with
// defensive defaults. A record that is not an object is skipped, never
// fatal for the batch.
func mapViolations(raws []any, logger *slog.Logger) []model.Violation {
	violations := make([]model.Violation, 0, len(raws))
	for _, raw := range raws {
		m, ok := raw.(map[string]any)
		if !ok {
			logger.Warn("skipping malformed violation record")
			continue
		}
		violations = append(violations, mapViolation(m))
	}
	return violations
}

func mapViolation(m map[string]any) model.Violation {
	return model.Violation{
		ProblematicText:    stringField(m, "problematic_text", "N/A"),
		ViolationType:      stringField(m, "violation_type", "Unknown"),
		Explanation:        stringField(m, "explanation", "N/A"),
		GuidelineSection:   stringField(m, "guideline_section", "Unknown"),
		PageNumber:         pageField(m, "page_number"),
		Severity:           model.ParseSeverity(stringField(m, "severity", "")),
		SuggestedRewrite:   stringField(m, "suggested_rewrite", "N/A"),
		Translation:        stringField(m, "translation", ""),
		RewriteTranslation: stringField(m, "rewrite_translation", ""),
		ChunkLanguage:      stringField(m, "chunk_language", ""),
	}
}

func stringField(m map[string]any, key, fallback string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return fallback
		}
		return s
	}
	return fallback
}

func pageField(m map[string]any, key string) model.PageNumber {
	switch v := m[key].(type) {
	case float64:
		return model.NewPageNumber(int(v))
	case string:
		if v != "" {
			return model.NewPageString(v)
		}
	}
	return model.NewPageNumber(0)
}
