package lore

import (
	"context"
	"time"

	"github.com/lorehub/lore/internal/domain"
)

// UpsertDocument validates, embeds, and stores a document. The stored
// form (including the computed embedding) replaces any previous revision
// with the same ID.
func (c *Client) UpsertDocument(ctx context.Context, doc Document) (out Document, err error) {
	defer func(start time.Time) { c.obs.observe("document_upsert", start, err) }(time.Now())

	stored, err := c.docSvc.Upsert(ctx, doc.ID, doc.Title, doc.Content, doc.Category, doc.Metadata)
	if err != nil {
		return Document{}, err
	}
	return documentFromDomain(stored), nil
}

// GetDocument fetches one document by ID.
func (c *Client) GetDocument(ctx context.Context, id string) (out Document, err error) {
	defer func(start time.Time) { c.obs.observe("document_get", start, err) }(time.Now())

	doc, err := c.docSvc.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}
	return documentFromDomain(doc), nil
}

// DeleteDocument removes a document by ID.
func (c *Client) DeleteDocument(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { c.obs.observe("document_delete", start, err) }(time.Now())

	return c.docSvc.Delete(ctx, id)
}

// ListDocuments returns all documents, optionally narrowed to a category.
func (c *Client) ListDocuments(ctx context.Context, category string) (out []Document, err error) {
	defer func(start time.Time) { c.obs.observe("document_list", start, err) }(time.Now())

	docs, err := c.docSvc.List(ctx, domain.Filter{Category: category})
	if err != nil {
		return nil, err
	}
	out = make([]Document, len(docs))
	for i, d := range docs {
		out[i] = documentFromDomain(d)
	}
	return out, nil
}
