// Package service composes retrieval, generation, and citation gating
// into the question-answering core behind the API.
package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/bull/policy-assistant/internal/answer"
	"github.com/bull/policy-assistant/internal/citation"
	"github.com/bull/policy-assistant/internal/index"
	"github.com/bull/policy-assistant/internal/retriever"
)

// Outcome tags an Ask result so callers can tell "no evidence found"
// apart from "the model call failed"; both render as the sentinel to
// end users.
type Outcome int

const (
	// OutcomeAnswered means the answer is grounded in retrieved policy.
	OutcomeAnswered Outcome = iota
	// OutcomeNotFound means retrieval or the model found no evidence.
	OutcomeNotFound
	// OutcomeGenerationFailed means the model call itself failed.
	OutcomeGenerationFailed
)

// Answer is the result of one question.
type Answer struct {
	Outcome Outcome
	Text    string
	Sources []citation.Source
}

// Generator produces a grounded answer from retrieved chunks.
type Generator interface {
	Answer(ctx context.Context, question string, chunks []index.Chunk) (string, error)
}

// Assistant owns the live retrieval pipeline. Reindexing swaps the
// retriever through Reload under a lock rather than rebinding any
// globals, so in-flight questions keep a consistent view.
type Assistant struct {
	store     index.Store
	generator Generator
	gate      *citation.Gate
	logger    *slog.Logger

	mu   sync.RWMutex
	retr *retriever.Retriever
}

// NewAssistant creates the service over an initial retriever.
func NewAssistant(store index.Store, retr *retriever.Retriever, generator Generator, gate *citation.Gate, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		store:     store,
		generator: generator,
		gate:      gate,
		logger:    logger,
		retr:      retr,
	}
}

// Reload atomically publishes a new retriever. Called after a reindex
// has persisted successfully.
func (a *Assistant) Reload(retr *retriever.Retriever) {
	a.mu.Lock()
	a.retr = retr
	a.mu.Unlock()
	a.logger.Info("retrieval pipeline reloaded", "k", retr.K())
}

func (a *Assistant) retriever() *retriever.Retriever {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.retr
}

// Ask answers a question from indexed policy. It never returns an
// error: failures are folded into the outcome and the sentinel text so
// the serving layer always has something safe to render.
func (a *Assistant) Ask(ctx context.Context, question string) Answer {
	chunks, err := a.retriever().Retrieve(ctx, question)
	if err != nil {
		a.logger.Error("retrieval failed", "error", err)
		return Answer{Outcome: OutcomeGenerationFailed, Text: answer.Sentinel}
	}
	if len(chunks) == 0 {
		// Empty retrieval is a defined outcome, not an error; the
		// generator is never invoked without context.
		return Answer{Outcome: OutcomeNotFound, Text: answer.Sentinel}
	}

	text, err := a.generator.Answer(ctx, question, chunks)
	if err != nil {
		a.logger.Error("generation failed", "error", err)
		return Answer{Outcome: OutcomeGenerationFailed, Text: answer.Sentinel}
	}

	if strings.Contains(text, answer.Sentinel) {
		return Answer{Outcome: OutcomeNotFound, Text: answer.Sentinel}
	}

	sources := a.gate.FilterSources(question, text, chunks)
	return Answer{Outcome: OutcomeAnswered, Text: text, Sources: sources}
}

// ListDocuments reports the indexed source documents.
func (a *Assistant) ListDocuments(ctx context.Context) ([]index.DocumentInfo, error) {
	return a.store.Documents(ctx)
}

// Store exposes the underlying vector store for health checks.
func (a *Assistant) Store() index.Store {
	return a.store
}
