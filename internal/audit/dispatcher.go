package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pagewarden/pagewarden/internal/llm"
	"github.com/pagewarden/pagewarden/internal/model"
	"github.com/pagewarden/pagewarden/internal/worker"
)

// auditTemperature keeps auditor sampling low-variance. Ensemble redundancy
// handles the rest.
const auditTemperature = 0.3

// RawAuditResult is one auditor call's untrusted output, tagged with its
// call index for traceability only.
type RawAuditResult struct {
	AuditIndex int
	RawText    string
	TokensUsed int
	Err        error
}

// GetError implements worker.Result.
func (r RawAuditResult) GetError() error {
	return r.Err
}

// auditPayload is the envelope serialized for each auditor call.
type auditPayload struct {
	PrimaryTopic  string `json:"primary_topic"`
	GlobalContext string `json:"global_context"`
	ChunkText     string `json:"chunk_text"`
}

// Dispatcher fans one chunk document out to N independent auditor calls.
// This is deliberate redundant sampling to reduce single-call variance, not
// retry-on-failure: the calls share nothing and a second reconciling pass
// merges their findings.
type Dispatcher struct {
	provider llm.Provider
	limiter  *worker.Limiter
	cfg      model.AuditConfig
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher. The limiter is optional and keys by
// provider name when present.
func NewDispatcher(provider llm.Provider, limiter *worker.Limiter, cfg model.AuditConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		provider: provider,
		limiter:  limiter,
		cfg:      cfg,
		logger:   logger,
	}
}

// Dispatch runs the auditor ensemble over a chunk document and returns one
// result per call, ordered by call index. Partial failure is tolerated; an
// error is returned only when every call in the ensemble failed.
func (d *Dispatcher) Dispatch(ctx context.Context, doc *model.ChunkDocument, casinoMode bool) ([]RawAuditResult, error) {
	count := d.cfg.EnsembleSize
	if count < 1 {
		count = 1
	}

	prompt, err := d.buildPrompt(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize audit payload: %w", err)
	}
	system := llm.AuditorSystemPrompt(casinoMode)

	workers := d.cfg.MaxConcurrent
	if workers <= 0 || workers > count {
		workers = count
	}

	d.logger.Info("dispatching auditor ensemble",
		"ensemble_size", count,
		"max_concurrent", workers,
		"provider", d.provider.Name())

	pool := worker.NewPool(ctx, workers)
	pool.Start()
	for i := 0; i < count; i++ {
		pool.Submit(auditJob{
			dispatcher: d,
			index:      i,
			system:     system,
			prompt:     prompt,
		})
	}

	raw := pool.Wait()
	results := make([]RawAuditResult, 0, len(raw))
	failed := 0
	for _, r := range raw {
		res, ok := r.(RawAuditResult)
		if !ok {
			continue
		}
		if res.Err != nil {
			failed++
			d.logger.Warn("auditor call failed", "audit", res.AuditIndex, "err", res.Err)
		}
		results = append(results, res)
	}
	// Pool completion order is arbitrary; index order keeps debug output
	// stable.
	sort.Slice(results, func(i, j int) bool {
		return results[i].AuditIndex < results[j].AuditIndex
	})

	if failed == count {
		return results, fmt.Errorf("all %d auditor calls failed", count)
	}
	return results, nil
}

// buildPrompt serializes the document plus its page-global context into the
// call envelope. Every call gets the same payload; independence comes from
// sampling, not from input variation.
func (d *Dispatcher) buildPrompt(doc *model.ChunkDocument) (string, error) {
	chunkText, err := doc.MarshalJSONText()
	if err != nil {
		return "", err
	}

	globalContext := ""
	if backpack := doc.Backpack(); backpack != nil {
		globalContext = strings.Join(backpack.SmallChunks, "\n")
	}

	payload, err := json.Marshal(auditPayload{
		PrimaryTopic:  doc.PrimaryTopic(),
		GlobalContext: globalContext,
		ChunkText:     chunkText,
	})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// auditJob is one ensemble call executed on the dispatch pool.
type auditJob struct {
	dispatcher *Dispatcher
	index      int
	system     string
	prompt     string
}

// Execute implements worker.Job. The call is staggered by index, rate
// limited per provider, and bounded by the per-call timeout; a failure
// contributes nothing and never aborts sibling calls.
func (j auditJob) Execute(ctx context.Context) worker.Result {
	d := j.dispatcher

	if wait := time.Duration(j.index) * d.cfg.Stagger; wait > 0 {
		select {
		case <-ctx.Done():
			return RawAuditResult{AuditIndex: j.index, Err: ctx.Err()}
		case <-time.After(wait):
		}
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx, d.provider.Name()); err != nil {
			return RawAuditResult{AuditIndex: j.index, Err: err}
		}
	}

	callCtx := ctx
	if d.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.cfg.CallTimeout)
		defer cancel()
	}

	resp, err := d.provider.Complete(callCtx, llm.CompletionRequest{
		System:      j.system,
		Prompt:      j.prompt,
		Temperature: auditTemperature,
	})
	if err != nil {
		return RawAuditResult{AuditIndex: j.index, Err: err}
	}

	return RawAuditResult{
		AuditIndex: j.index,
		RawText:    resp.Text,
		TokensUsed: resp.TokensUsed,
	}
}
