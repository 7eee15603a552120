package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Completer is the shared text completion contract between layers.
// One Complete call corresponds to one agent iteration (or one LLM-backed tool call).
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// CompletionRequest is a single prompt round-trip to the completion provider.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
}

// CompletionResult carries the completion text and token usage.
type CompletionResult struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// DocumentReader is the read-only document store contract the retrieval
// core depends on. Returned documents are immutable snapshots for the
// duration of one search call.
type DocumentReader interface {
	Query(ctx context.Context, filter Filter) ([]Document, error)
	Get(ctx context.Context, id string) (Document, error)
}
