package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagewarden/pagewarden/internal/audit"
	"github.com/pagewarden/pagewarden/internal/cache"
	"github.com/pagewarden/pagewarden/internal/extract"
	"github.com/pagewarden/pagewarden/internal/llm"
	"github.com/pagewarden/pagewarden/internal/model"
	"github.com/pagewarden/pagewarden/internal/util"
	"github.com/pagewarden/pagewarden/internal/worker"
)

// Pipeline orchestrates the complete audit: fetch, extract, dispatch the
// auditor ensemble, parse, sanitize, deduplicate, restore translations.
// The stages after dispatch run strictly sequentially, each consuming the
// complete output of the previous one.
type Pipeline struct {
	fetcher    *Fetcher
	dispatcher *audit.Dispatcher
	filter     *audit.Filter
	sanitizer  *audit.Sanitizer
	renderer   *Renderer
	config     *model.Config
	logger     *slog.Logger
}

// NewPipeline creates a pipeline with the given configuration.
func NewPipeline(cfg *model.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, int(cfg.Audit.CallTimeout/time.Second)))
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	return NewPipelineWithProvider(cfg, provider, logger), nil
}

// NewPipelineWithProvider creates a pipeline around an existing provider.
func NewPipelineWithProvider(cfg *model.Config, provider llm.Provider, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	var robots *util.RobotsChecker
	if cfg.HTTP.RespectRobots {
		robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	limiter := worker.NewLimiter(cfg.LLM.RatePerSecond, cfg.LLM.RateBurst)

	return &Pipeline{
		fetcher:    NewFetcher(cfg.HTTP, robots, store, cfg.Cache.DiskTTL),
		dispatcher: audit.NewDispatcher(provider, limiter, cfg.Audit, logger),
		filter:     audit.NewFilter(provider, cfg.Audit.FilterTimeout, logger),
		sanitizer:  audit.NewSanitizer(cfg.Audit.NoIssueTypes),
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		config:     cfg,
		logger:     logger,
	}
}

// Renderer exposes the report renderer for callers that format results.
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// AuditURL fetches a page and audits its content. Transient fetch failures
// are retried before the audit is given up on.
func (p *Pipeline) AuditURL(ctx context.Context, url string, mode extract.Mode) (*model.AnalysisResult, error) {
	fetched, err := p.fetcher.FetchWithRetry(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	p.logger.Info("fetched page",
		"url", fetched.FinalURL,
		"bytes", len(fetched.HTML),
		"from_cache", fetched.FromCache)

	return p.AuditHTML(ctx, fetched.HTML, mode), nil
}

// AuditHTML runs the full audit over raw HTML. It always returns a result;
// failures are reported through the result's error field, never a panic.
func (p *Pipeline) AuditHTML(ctx context.Context, htmlText string, mode extract.Mode) *model.AnalysisResult {
	start := time.Now()
	debug := &model.DebugInfo{}

	fail := func(msg string) *model.AnalysisResult {
		return &model.AnalysisResult{
			Success:        false,
			Violations:     []model.Violation{},
			ProcessingTime: time.Since(start).Seconds(),
			Error:          msg,
			Debug:          debug,
		}
	}

	// 1. Extract
	ok, jsonText, errMsg := extract.Content(htmlText, mode)
	if !ok {
		return fail("extraction failed: " + errMsg)
	}
	doc, err := model.ParseChunkDocument(jsonText)
	if err != nil {
		return fail("extraction produced invalid document: " + err.Error())
	}

	var backpackLines []string
	if backpack := doc.Backpack(); backpack != nil {
		backpackLines = backpack.SmallChunks
	}

	// 2. Inject page-global context into every chunk, then dispatch
	dispatchDoc := doc
	if p.config.Audit.InjectContext {
		dispatchDoc = extract.InjectGlobalContext(doc)
	}

	casinoMode := mode == extract.ModeSurgical
	rawResults, err := p.dispatcher.Dispatch(ctx, dispatchDoc, casinoMode)
	if err != nil {
		recordAudits(debug, rawResults)
		return fail(err.Error())
	}

	// 3. Parse each successful reply; failures contribute nothing
	var pooled []model.Violation
	for _, r := range rawResults {
		record := model.AuditDebugRecord{AuditNumber: r.AuditIndex + 1}
		if r.Err != nil {
			record.Error = r.Err.Error()
			debug.FailedAudits++
		} else {
			parsed := audit.ParseViolations(r.RawText, p.logger)
			for i := range parsed {
				parsed[i].SourceAuditID = r.AuditIndex
			}
			pooled = append(pooled, parsed...)
			record.RawResponse = r.RawText
			record.ParsedCount = len(parsed)
		}
		debug.Audits = append(debug.Audits, record)
	}

	// 4. Sanitize the pooled findings
	sanitized := p.sanitizer.Sanitize(pooled)
	p.logger.Info("ensemble findings pooled",
		"raw", len(pooled),
		"sanitized", len(sanitized),
		"failed_audits", debug.FailedAudits)

	// 5. Deduplicate through the filter agent, sanitize its output too
	filterRes := p.filter.Run(ctx, sanitized, backpackLines)
	debug.FilterRawText = filterRes.RawText
	debug.SuspiciousWipe = filterRes.SuspiciousWipe
	final := p.sanitizer.Sanitize(filterRes.Violations)

	// 6. Restore translation fields the merge pass may have dropped
	final = audit.RestoreTranslations(final, sanitized)

	// Unset chunk_language means English. Applied after restoration: the
	// empty value has to keep meaning "unknown" for the lookup above.
	for i := range final {
		if final[i].ChunkLanguage == "" {
			final[i].ChunkLanguage = "English"
		}
	}

	return &model.AnalysisResult{
		Success:              true,
		Violations:           final,
		TotalViolationsFound: len(sanitized),
		UniqueViolations:     len(final),
		ProcessingTime:       time.Since(start).Seconds(),
		Debug:                debug,
	}
}

func recordAudits(debug *model.DebugInfo, results []audit.RawAuditResult) {
	for _, r := range results {
		record := model.AuditDebugRecord{AuditNumber: r.AuditIndex + 1}
		if r.Err != nil {
			record.Error = r.Err.Error()
			debug.FailedAudits++
		}
		debug.Audits = append(debug.Audits, record)
	}
}
