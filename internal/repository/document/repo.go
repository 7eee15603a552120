// Package document persists portal documents. Two backends implement the
// same surface: Redis (JSON values plus category membership sets) and
// SQLite (single documents table).
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lorehub/lore/internal/db"
	"github.com/lorehub/lore/internal/domain"
)

// store is the consumer interface for documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo is the Redis-backed document repository.
type Repo struct {
	store  store
	prefix string
}

// New creates a Redis document repository. prefix namespaces all keys.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Upsert creates or updates a document and maintains the category sets.
func (r *Repo) Upsert(ctx context.Context, doc *domain.Document) error {
	data, err := json.Marshal(toDTO(doc))
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	// A category change leaves the id in a stale set; Query re-checks the
	// category on hydration, so stale members are filtered, not served.
	if err := r.store.JSONSet(ctx, r.docKey(doc.ID()), "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", doc.ID(), err)
	}
	if err := r.store.SAdd(ctx, r.allKey(), doc.ID()); err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID(), err)
	}
	if c := doc.Category(); c != "" {
		if err := r.store.SAdd(ctx, r.catKey(c), doc.ID()); err != nil {
			return fmt.Errorf("index category %s: %w", c, err)
		}
	}
	return nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, id string) (domain.Document, error) {
	raw, err := r.store.JSONGet(ctx, r.docKey(id), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Document{}, domain.ErrDocumentNotFound
		}
		return domain.Document{}, fmt.Errorf("json.get %s: %w", id, err)
	}
	return parseDoc(id, raw)
}

// Delete removes a document and cleans up its set memberships.
func (r *Repo) Delete(ctx context.Context, id string) error {
	doc, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Del(ctx, r.docKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", id, err)
	}
	if err := r.store.SRem(ctx, r.allKey(), id); err != nil {
		return fmt.Errorf("unindex %s: %w", id, err)
	}
	if c := doc.Category(); c != "" {
		if err := r.store.SRem(ctx, r.catKey(c), id); err != nil {
			return fmt.Errorf("unindex category %s: %w", c, err)
		}
	}
	return nil
}

// Query returns all documents matching the filter, hydrated in one
// JSON.MGET round-trip. Results are immutable snapshots.
func (r *Repo) Query(ctx context.Context, filter domain.Filter) ([]domain.Document, error) {
	setKey := r.allKey()
	if filter.Category != "" {
		setKey = r.catKey(filter.Category)
	}

	ids, err := r.store.SMembers(ctx, setKey)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(id)
	}

	raws, err := r.store.JSONGetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("json.mget: %w", err)
	}

	docs := make([]domain.Document, 0, len(ids))
	for i, raw := range raws {
		if raw == nil {
			continue // deleted since the set was read
		}
		doc, err := parseDoc(ids[i], raw)
		if err != nil {
			return nil, err
		}
		if filter.Category != "" && doc.Category() != filter.Category {
			continue // stale category membership
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *Repo) docKey(id string) string { return r.prefix + "doc:" + id }
func (r *Repo) allKey() string          { return r.prefix + "docs" }
func (r *Repo) catKey(c string) string  { return r.prefix + "cat:" + c }
