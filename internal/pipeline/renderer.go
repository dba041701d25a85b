package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pagewarden/pagewarden/internal/model"
)

// severityRank orders findings worst-first in reports.
var severityRank = map[model.Severity]int{
	model.SeverityCritical: 0,
	model.SeverityHigh:     1,
	model.SeverityMedium:   2,
	model.SeverityLow:      3,
}

func severityEmoji(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "🔴"
	case model.SeverityHigh:
		return "🟠"
	case model.SeverityMedium:
		return "🟡"
	default:
		return "🔵"
	}
}

// Renderer formats analysis results as markdown, JSON and HTML reports.
type Renderer struct {
	includeFooter bool
	markdown      goldmark.Markdown
}

// NewRenderer creates a renderer.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

// RenderMarkdown builds the full compliance report.
func (r *Renderer) RenderMarkdown(result *model.AnalysisResult, source string) string {
	var b strings.Builder

	b.WriteString("# Compliance Audit Report\n\n")
	if source != "" {
		fmt.Fprintf(&b, "**Source:** %s\n\n", source)
	}
	fmt.Fprintf(&b, "**Date:** %s\n\n", time.Now().UTC().Format("2006-01-02 15:04 UTC"))

	if !result.Success {
		fmt.Fprintf(&b, "**Audit failed:** %s\n", result.Error)
		return b.String()
	}

	fmt.Fprintf(&b, "**Findings:** %d unique (from %d raw)\n\n",
		result.UniqueViolations, result.TotalViolationsFound)

	if len(result.Violations) == 0 {
		b.WriteString("No compliance violations were found.\n")
	} else {
		violations := make([]model.Violation, len(result.Violations))
		copy(violations, result.Violations)
		sort.SliceStable(violations, func(i, j int) bool {
			return severityRank[violations[i].Severity] < severityRank[violations[j].Severity]
		})

		b.WriteString("## Violations\n\n")
		for i, v := range violations {
			fmt.Fprintf(&b, "### %d. %s %s\n\n", i+1, severityEmoji(v.Severity), v.ViolationType)
			fmt.Fprintf(&b, "> %s\n\n", v.ProblematicText)
			if v.Translation != "" {
				fmt.Fprintf(&b, "*Translation:* %s\n\n", v.Translation)
			}
			fmt.Fprintf(&b, "- **Severity:** %s\n", v.Severity)
			fmt.Fprintf(&b, "- **Guideline:** %s (p. %s)\n", v.GuidelineSection, v.PageNumber.String())
			fmt.Fprintf(&b, "- **Why:** %s\n", v.Explanation)
			fmt.Fprintf(&b, "- **Suggested rewrite:** %s\n", v.SuggestedRewrite)
			if v.RewriteTranslation != "" {
				fmt.Fprintf(&b, "- **Rewrite translation:** %s\n", v.RewriteTranslation)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "---\n\nProcessed in %.1fs.\n", result.ProcessingTime)
	if r.includeFooter {
		b.WriteString("\nGenerated by pagewarden.\n")
	}
	return b.String()
}

// RenderHTML converts the markdown report to a standalone HTML fragment.
func (r *Renderer) RenderHTML(result *model.AnalysisResult, source string) (string, error) {
	var buf bytes.Buffer
	md := r.RenderMarkdown(result, source)
	if err := r.markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render HTML: %w", err)
	}
	return buf.String(), nil
}

// RenderJSON writes the result to a JSON file.
func (r *Renderer) RenderJSON(result *model.AnalysisResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	return nil
}

// WriteMarkdown writes the markdown report to a file.
func (r *Renderer) WriteMarkdown(result *model.AnalysisResult, source, path string) error {
	if err := os.WriteFile(path, []byte(r.RenderMarkdown(result, source)), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// RenderSummary prints a short result summary to stdout.
func (r *Renderer) RenderSummary(result *model.AnalysisResult) {
	if !result.Success {
		fmt.Printf("\nAudit failed: %s\n", result.Error)
		return
	}

	counts := map[model.Severity]int{}
	for _, v := range result.Violations {
		counts[v.Severity]++
	}

	fmt.Printf("\nFound %d unique violations (%d before deduplication) in %.1fs\n",
		result.UniqueViolations, result.TotalViolationsFound, result.ProcessingTime)
	for _, s := range []model.Severity{model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow} {
		if counts[s] > 0 {
			fmt.Printf("  %s %s: %d\n", severityEmoji(s), s, counts[s])
		}
	}
	if result.Debug != nil && result.Debug.SuspiciousWipe {
		fmt.Println("  ⚠ filter agent removed every finding; review the debug output")
	}
}
