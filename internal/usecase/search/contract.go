package search

import (
	"context"

	"github.com/lorehub/lore/internal/domain"
)

// DocumentReader is the storage contract for search operations. Returned
// documents are treated as immutable snapshots for one search call.
type DocumentReader interface {
	Query(ctx context.Context, filter domain.Filter) ([]domain.Document, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
