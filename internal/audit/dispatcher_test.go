package audit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/pagewarden/pagewarden/internal/llm"
	"github.com/pagewarden/pagewarden/internal/model"
)

// fakeProvider is an in-memory Provider for exercising the orchestration
// layer without a network.
type fakeProvider struct {
	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int
	complete    func(call int, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	return f.complete(call, req)
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testDocument() *model.ChunkDocument {
	return &model.ChunkDocument{BigChunks: []model.BigChunk{
		{
			Index:       model.BackpackIndex,
			ContentName: "GLOBAL CONTEXT",
			SmallChunks: []string{"LICENSE_CTX: Licensed by the MGA."},
		},
		{
			Index:       1,
			ContentName: "Introduction",
			SmallChunks: []string{"H2: Introduction", "CONTENT: Guaranteed wins every day."},
		},
	}}
}

func TestDispatchEnsemble(t *testing.T) {
	provider := &fakeProvider{
		complete: func(call int, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			if !strings.Contains(req.Prompt, "chunk_text") {
				t.Errorf("payload missing chunk_text envelope: %s", req.Prompt)
			}
			if !strings.Contains(req.Prompt, "Licensed by the MGA") {
				t.Errorf("payload missing global context")
			}
			return &llm.CompletionResponse{Text: `{"violations": []}`}, nil
		},
	}

	cfg := model.AuditConfig{EnsembleSize: 4, MaxConcurrent: 2}
	d := NewDispatcher(provider, nil, cfg, nil)

	results, err := d.Dispatch(context.Background(), testDocument(), false)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i, r := range results {
		if r.AuditIndex != i {
			t.Errorf("results not ordered by index: %d at position %d", r.AuditIndex, i)
		}
		if r.Err != nil {
			t.Errorf("call %d failed: %v", i, r.Err)
		}
	}
	if provider.callCount() != 4 {
		t.Errorf("provider called %d times, want 4", provider.callCount())
	}
}

func TestDispatchConcurrencyCap(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{}, 8)

	provider := &fakeProvider{
		complete: func(call int, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			started <- struct{}{}
			<-gate
			return &llm.CompletionResponse{Text: `{"violations": []}`}, nil
		},
	}

	cfg := model.AuditConfig{EnsembleSize: 5, MaxConcurrent: 3}
	d := NewDispatcher(provider, nil, cfg, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := d.Dispatch(context.Background(), testDocument(), false); err != nil {
			t.Errorf("Dispatch: %v", err)
		}
	}()

	// Let the first wave start, then release everyone.
	<-started
	<-started
	<-started
	close(gate)
	<-done

	provider.mu.Lock()
	high := provider.maxInFlight
	provider.mu.Unlock()
	if high > 3 {
		t.Errorf("high-water mark %d exceeds cap 3", high)
	}
}

func TestDispatchPartialFailure(t *testing.T) {
	provider := &fakeProvider{
		complete: func(call int, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			if call < 2 {
				return nil, errors.New("deadline exceeded")
			}
			return &llm.CompletionResponse{Text: `{"violations": []}`}, nil
		},
	}

	cfg := model.AuditConfig{EnsembleSize: 5, MaxConcurrent: 1}
	d := NewDispatcher(provider, nil, cfg, nil)

	results, err := d.Dispatch(context.Background(), testDocument(), false)
	if err != nil {
		t.Fatalf("partial failure must not fail the batch: %v", err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed != 2 {
		t.Errorf("failed = %d, want 2", failed)
	}
	if len(results) != 5 {
		t.Errorf("got %d results, want 5", len(results))
	}
}

func TestDispatchAllFailed(t *testing.T) {
	provider := &fakeProvider{
		complete: func(call int, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, errors.New("rate limited")
		},
	}

	cfg := model.AuditConfig{EnsembleSize: 3, MaxConcurrent: 3}
	d := NewDispatcher(provider, nil, cfg, nil)

	_, err := d.Dispatch(context.Background(), testDocument(), false)
	if err == nil {
		t.Fatal("expected error when every ensemble call fails")
	}
}

func TestDispatchDefaultsEnsembleToOne(t *testing.T) {
	provider := &fakeProvider{
		complete: func(call int, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Text: `{"violations": []}`}, nil
		},
	}

	d := NewDispatcher(provider, nil, model.AuditConfig{}, nil)
	results, err := d.Dispatch(context.Background(), testDocument(), false)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}
