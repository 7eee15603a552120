package document

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"

	"github.com/lorehub/lore/internal/db"
	"github.com/lorehub/lore/internal/domain"
)

// fakeStore is an in-memory stand-in for the Redis store.
type fakeStore struct {
	json map[string][]byte
	sets map[string]map[string]struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		json: make(map[string][]byte),
		sets: make(map[string]map[string]struct{}),
	}
}

func (f *fakeStore) JSONSet(_ context.Context, key, _ string, data []byte) error {
	f.json[key] = data
	return nil
}

func (f *fakeStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	data, ok := f.json[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (f *fakeStore) JSONGetMulti(_ context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = f.json[k]
	}
	return out, nil
}

func (f *fakeStore) Del(_ context.Context, key string) error {
	delete(f.json, key)
	return nil
}

func (f *fakeStore) SAdd(_ context.Context, key string, members ...string) error {
	set, ok := f.sets[key]
	if !ok {
		set = make(map[string]struct{})
		f.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (f *fakeStore) SRem(_ context.Context, key string, members ...string) error {
	for _, m := range members {
		delete(f.sets[key], m)
	}
	return nil
}

func (f *fakeStore) SMembers(_ context.Context, key string) ([]string, error) {
	var out []string
	for m := range f.sets[key] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func mustDoc(t *testing.T, id, title, content, category string) domain.Document {
	t.Helper()
	doc, err := domain.NewDocument(id, title, content, category, nil)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return doc
}

func TestRepo_UpsertGet(t *testing.T) {
	repo := New(newFakeStore(), "lore:")
	ctx := context.Background()

	doc := mustDoc(t, "doc-1", "Redis Guide", "how to run redis", "docs")
	doc = doc.WithEmbedding([]float32{0.1, 0.2})

	if err := repo.Upsert(ctx, &doc); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title() != "Redis Guide" || got.Category() != "docs" {
		t.Errorf("got %q/%q, want Redis Guide/docs", got.Title(), got.Category())
	}
	if len(got.Embedding()) != 2 {
		t.Errorf("embedding not round-tripped: %v", got.Embedding())
	}
}

func TestRepo_GetMissing(t *testing.T) {
	repo := New(newFakeStore(), "lore:")

	_, err := repo.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestRepo_QueryByCategory(t *testing.T) {
	repo := New(newFakeStore(), "lore:")
	ctx := context.Background()

	for _, spec := range []struct{ id, cat string }{
		{"d1", "docs"}, {"d2", "news"}, {"d3", "docs"},
	} {
		doc := mustDoc(t, spec.id, "t", "content", spec.cat)
		if err := repo.Upsert(ctx, &doc); err != nil {
			t.Fatalf("Upsert %s: %v", spec.id, err)
		}
	}

	docs, err := repo.Query(ctx, domain.Filter{Category: "docs"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	for _, d := range docs {
		if d.Category() != "docs" {
			t.Errorf("doc %s category = %q", d.ID(), d.Category())
		}
	}

	all, err := repo.Query(ctx, domain.Filter{})
	if err != nil {
		t.Fatalf("Query all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d docs, want 3", len(all))
	}
}

func TestRepo_QuerySkipsStaleCategory(t *testing.T) {
	store := newFakeStore()
	repo := New(store, "lore:")
	ctx := context.Background()

	doc := mustDoc(t, "d1", "t", "content", "news")
	if err := repo.Upsert(ctx, &doc); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Re-categorize; the old membership in lore:cat:news goes stale.
	moved := mustDoc(t, "d1", "t", "content", "docs")
	if err := repo.Upsert(ctx, &moved); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	news, err := repo.Query(ctx, domain.Filter{Category: "news"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(news) != 0 {
		t.Errorf("stale membership served: %d docs in news", len(news))
	}
}

func TestRepo_Delete(t *testing.T) {
	repo := New(newFakeStore(), "lore:")
	ctx := context.Background()

	doc := mustDoc(t, "d1", "t", "content", "docs")
	if err := repo.Upsert(ctx, &doc); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Delete(ctx, "d1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := repo.Get(ctx, "d1"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("err = %v, want ErrDocumentNotFound", err)
	}
	docs, err := repo.Query(ctx, domain.Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("deleted doc still listed")
	}
}

func TestParseDoc_PathWrapped(t *testing.T) {
	// JSON.GET with "$" wraps the value in a one-element array.
	raw, _ := json.Marshal([]dto{{Title: "t", Content: "c", Category: "docs"}})

	doc, err := parseDoc("d1", raw)
	if err != nil {
		t.Fatalf("parseDoc: %v", err)
	}
	if doc.Title() != "t" || doc.Category() != "docs" {
		t.Errorf("parsed %q/%q", doc.Title(), doc.Category())
	}
}
