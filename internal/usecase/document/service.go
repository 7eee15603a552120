// Package document implements document ingestion: content is embedded
// once at write time so search never embeds stored documents.
package document

import (
	"context"
	"fmt"

	"github.com/lorehub/lore/internal/domain"
)

// Service coordinates document writes with embedding generation.
type Service struct {
	repo  Repository
	embed Embedder
}

// New creates a document service.
func New(repo Repository, embed Embedder) *Service {
	return &Service{repo: repo, embed: embed}
}

// Upsert validates, embeds, and stores a document. The embedding input is
// the title and content joined, matching what the search legs score.
func (s *Service) Upsert(
	ctx context.Context, id, title, content, category string, metadata map[string]string,
) (domain.Document, error) {
	doc, err := domain.NewDocument(id, title, content, category, metadata)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	emb, err := s.embed.Embed(ctx, title+" "+content)
	if err != nil {
		return domain.Document{}, fmt.Errorf("embed document %s: %w", id, err)
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)
	doc = doc.WithEmbedding(emb.Embedding)

	if err := s.repo.Upsert(ctx, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("store document %s: %w", id, err)
	}
	return doc, nil
}

// Get fetches one document by id.
func (s *Service) Get(ctx context.Context, id string) (domain.Document, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes one document by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// List returns all documents matching the filter.
func (s *Service) List(ctx context.Context, filter domain.Filter) ([]domain.Document, error) {
	return s.repo.Query(ctx, filter)
}
