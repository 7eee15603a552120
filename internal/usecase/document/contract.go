package document

import (
	"context"

	"github.com/lorehub/lore/internal/domain"
)

// Repository is the storage contract for document ingestion.
type Repository interface {
	Upsert(ctx context.Context, doc *domain.Document) error
	Get(ctx context.Context, id string) (domain.Document, error)
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, filter domain.Filter) ([]domain.Document, error)
}

// Embedder vectorizes document text at ingest time.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
