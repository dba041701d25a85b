package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pagewarden/pagewarden/internal/llm"
	"github.com/pagewarden/pagewarden/internal/model"
)

// suspiciousWipeThreshold: a filter pass that empties a finding set larger
// than this is flagged for human review instead of being trusted outright.
const suspiciousWipeThreshold = 3

// filterPayload is the envelope sent to the reconciling agent: the pooled
// findings plus the page-global context that can resolve false positives.
type filterPayload struct {
	ContextBackpack []string          `json:"context_backpack"`
	ViolationsInput []model.Violation `json:"violations_input"`
}

// FilterResult carries the deduplication outcome plus its debug trail.
type FilterResult struct {
	Violations []model.Violation
	RawText    string
	// SuspiciousWipe is set when a non-trivial input set came back empty.
	SuspiciousWipe bool
	// FellBack is set when the remote call failed and the input was
	// returned unchanged.
	FellBack bool
}

// Filter invokes the second-pass reconciling agent that merges duplicate
// findings from the auditor ensemble and drops compliance restatements.
type Filter struct {
	provider llm.Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// NewFilter creates a filter-agent invoker.
func NewFilter(provider llm.Provider, timeout time.Duration, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run deduplicates a violation set through one remote call. An empty input
// skips the call entirely. On call failure the original input is returned
// unchanged: under-reporting a compliance risk to the reviewer is worse
// than over-reporting, so the filter fails open.
func (f *Filter) Run(ctx context.Context, violations []model.Violation, contextBackpack []string) FilterResult {
	if len(violations) == 0 {
		return FilterResult{Violations: violations}
	}

	payload, err := json.Marshal(filterPayload{
		ContextBackpack: contextBackpack,
		ViolationsInput: violations,
	})
	if err != nil {
		f.logger.Warn("filter payload serialization failed, keeping unfiltered findings", "err", err)
		return FilterResult{Violations: violations, FellBack: true}
	}

	callCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	resp, err := f.provider.Complete(callCtx, llm.CompletionRequest{
		System:      llm.FilterSystemPrompt(),
		Prompt:      string(payload),
		Temperature: auditTemperature,
	})
	if err != nil {
		f.logger.Warn("filter agent call failed, keeping unfiltered findings", "err", err)
		return FilterResult{Violations: violations, FellBack: true}
	}

	filtered := ParseViolations(resp.Text, f.logger)

	result := FilterResult{
		Violations: filtered,
		RawText:    resp.Text,
	}
	if len(filtered) == 0 && len(violations) > suspiciousWipeThreshold {
		f.logger.Warn("filter agent removed every finding",
			"input_count", len(violations))
		result.SuspiciousWipe = true
	}
	return result
}
