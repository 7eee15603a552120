package document

import (
	"context"
	"errors"
	"testing"

	"github.com/lorehub/lore/internal/domain"
)

type mockRepo struct {
	stored map[string]domain.Document
	err    error
}

func newMockRepo() *mockRepo {
	return &mockRepo{stored: make(map[string]domain.Document)}
}

func (m *mockRepo) Upsert(_ context.Context, doc *domain.Document) error {
	if m.err != nil {
		return m.err
	}
	m.stored[doc.ID()] = *doc
	return nil
}

func (m *mockRepo) Get(_ context.Context, id string) (domain.Document, error) {
	doc, ok := m.stored[id]
	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	delete(m.stored, id)
	return nil
}

func (m *mockRepo) Query(_ context.Context, _ domain.Filter) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(m.stored))
	for _, d := range m.stored {
		out = append(out, d)
	}
	return out, nil
}

type mockEmbedder struct {
	gotText string
	err     error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.gotText = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 5}, nil
}

func TestUpsertEmbedsAndStores(t *testing.T) {
	repo := newMockRepo()
	embed := &mockEmbedder{}
	svc := New(repo, embed)

	doc, err := svc.Upsert(context.Background(), "d1", "title", "content", "docs", nil)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if embed.gotText != "title content" {
		t.Errorf("embedded text = %q", embed.gotText)
	}
	if len(doc.Embedding()) != 2 {
		t.Errorf("embedding length = %d, want 2", len(doc.Embedding()))
	}
	stored, ok := repo.stored["d1"]
	if !ok {
		t.Fatal("document not stored")
	}
	if stored.Embedding() == nil {
		t.Error("stored document has no embedding")
	}
}

func TestUpsertRecordsTokenUsage(t *testing.T) {
	svc := New(newMockRepo(), &mockEmbedder{})

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := svc.Upsert(ctx, "d1", "t", "c", "docs", nil); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if usage.TotalTokens != 5 || !usage.Used {
		t.Errorf("usage = %+v, want 5 tokens used", usage)
	}
}

func TestUpsertInvalidDocument(t *testing.T) {
	svc := New(newMockRepo(), &mockEmbedder{})

	_, err := svc.Upsert(context.Background(), "", "t", "c", "docs", nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Upsert() error = %v, want ErrInvalidInput", err)
	}
}

func TestUpsertEmbedderFailure(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, &mockEmbedder{err: domain.ErrEmbeddingProviderError})

	_, err := svc.Upsert(context.Background(), "d1", "t", "c", "docs", nil)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("Upsert() error = %v, want ErrEmbeddingProviderError", err)
	}
	if len(repo.stored) != 0 {
		t.Error("document must not be stored when embedding fails")
	}
}

func TestGetDelete(t *testing.T) {
	svc := New(newMockRepo(), &mockEmbedder{})

	if _, err := svc.Upsert(context.Background(), "d1", "t", "c", "docs", nil); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := svc.Get(context.Background(), "d1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := svc.Delete(context.Background(), "d1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(context.Background(), "d1"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrDocumentNotFound", err)
	}
}
