package domain

import "fmt"

// MaxContentSize is the maximum document content size in bytes.
const MaxContentSize = 163840 // 160KB

// Document is an indexed portal document (immutable value object).
// The retrieval core only reads documents; the embedding is produced by the
// embedding provider and recomputed whenever the source text changes, never
// mutated in place.
type Document struct {
	id        string
	title     string
	content   string
	category  string
	embedding []float32
	metadata  map[string]string
}

// NewDocument validates and creates a Document.
func NewDocument(id, title, content, category string, metadata map[string]string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("document ID too long (max 256)")
	}
	if content == "" {
		return Document{}, fmt.Errorf("content is required")
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}

	return Document{
		id:       id,
		title:    title,
		content:  content,
		category: category,
		metadata: cloneStringMap(metadata),
	}, nil
}

// ReconstructDocument creates a Document without validation (storage hydration).
func ReconstructDocument(
	id, title, content, category string, embedding []float32, metadata map[string]string,
) Document {
	return Document{
		id: id, title: title, content: content,
		category: category, embedding: embedding, metadata: metadata,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Content returns the document text content.
func (d *Document) Content() string { return d.content }

// Category returns the portal category ("docs", "news", ...). Empty means uncategorized.
func (d *Document) Category() string { return d.category }

// Embedding returns the stored embedding vector. Nil when the document
// has not been vectorized yet.
func (d *Document) Embedding() []float32 { return d.embedding }

// Metadata returns the free-form metadata fields.
func (d *Document) Metadata() map[string]string { return d.metadata }

// WithEmbedding returns a copy of the document carrying the given vector.
func (d Document) WithEmbedding(embedding []float32) Document {
	d.embedding = embedding
	return d
}

// Filter narrows a document store query. Zero value matches everything.
type Filter struct {
	Category string
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
