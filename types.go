package lore

import (
	"context"
	"time"

	"github.com/lorehub/lore/internal/domain"
	searchuc "github.com/lorehub/lore/internal/usecase/search"
)

// Document is a portal document for the SDK surface.
type Document struct {
	ID       string
	Title    string
	Content  string
	Category string
	Metadata map[string]string
}

// SearchMode selects the fusion algorithm for a search call.
type SearchMode string

// Search mode constants.
const (
	// ModeRRF fuses the vector and keyword legs by reciprocal rank.
	ModeRRF SearchMode = "rrf"
	// ModeWeighted fuses min-max normalized scores by vector weight.
	ModeWeighted SearchMode = "weighted"
	// ModeRerank runs RRF fusion followed by a term-boost rerank pass.
	ModeRerank SearchMode = "rerank"
)

// SearchOptions tunes a single search call. Zero Limit and RRFK fall back
// to the client defaults; MinScore and VectorWeight are pointers because
// an explicit 0 is meaningful (no score floor, pure keyword weighting),
// so only nil means "use the default". Use Float to set them inline.
type SearchOptions struct {
	Mode         SearchMode // default ModeRRF
	Limit        int
	Category     string
	MinScore     *float64
	VectorWeight *float64
	RRFK         int
}

// Float wraps v for the optional SearchOptions fields.
func Float(v float64) *float64 { return searchuc.Float(v) }

// SearchResult is a single ranked search hit.
type SearchResult struct {
	Document     Document
	Score        float64
	VectorScore  float64
	KeywordScore float64
}

// Step is one agent transcript entry.
type Step struct {
	Thought     string
	Action      string
	ActionInput map[string]any
	Observation string
}

// Answer is the outcome of one agent run.
type Answer struct {
	RunID      string
	Text       string
	Outcome    string // "answer" or "max_iterations"
	Steps      []Step
	Iterations int
	Elapsed    time.Duration
}

// AskEvent is one streaming agent update: either a completed step or the
// terminal answer. Exactly one event carries a non-nil Answer, and it is
// the last one before the channel closes.
type AskEvent struct {
	Step   *Step
	Answer *Answer
	Err    error
}

// HealthStatus is the aggregated component health.
type HealthStatus struct {
	Status string            // "ok" or "degraded"
	Checks map[string]string // component name to "ok"/"error"
}

// Embedder converts text to a vector embedding. Supply one via
// WithEmbedder to replace the built-in provider.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Completer produces one model completion per call. Supply one via
// WithCompleter to replace the built-in provider.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// CompletionRequest is a single prompt round-trip.
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

func documentFromDomain(d domain.Document) Document {
	return Document{
		ID:       d.ID(),
		Title:    d.Title(),
		Content:  d.Content(),
		Category: d.Category(),
		Metadata: d.Metadata(),
	}
}

func resultFromUsecase(r searchuc.Result) SearchResult {
	return SearchResult{
		Document:     documentFromDomain(r.Doc),
		Score:        r.Score,
		VectorScore:  r.VectorScore,
		KeywordScore: r.KeywordScore,
	}
}

// embedderAdapter bridges the SDK Embedder contract to the internal one.
type embedderAdapter struct{ e Embedder }

func (a embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := a.e.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embedding,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// completerAdapter bridges the SDK Completer contract to the internal one.
type completerAdapter struct{ c Completer }

func (a completerAdapter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	res, err := a.c.Complete(ctx, CompletionRequest{
		SystemPrompt: req.SystemPrompt,
		UserPrompt:   req.UserPrompt,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	})
	if err != nil {
		return domain.CompletionResult{}, err
	}
	return domain.CompletionResult{
		Text:         res.Text,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}
