package document

import (
	"encoding/json"
	"fmt"

	"github.com/lorehub/lore/internal/domain"
)

// dto is the stored JSON shape of a document.
type dto struct {
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Category  string            `json:"category,omitempty"`
	Embedding []float32         `json:"embedding,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func toDTO(doc *domain.Document) dto {
	return dto{
		Title:     doc.Title(),
		Content:   doc.Content(),
		Category:  doc.Category(),
		Embedding: doc.Embedding(),
		Metadata:  doc.Metadata(),
	}
}

// parseDoc hydrates a document from raw JSON. JSON.GET/JSON.MGET with the
// "$" path wrap the value in a one-element array.
func parseDoc(id string, raw []byte) (domain.Document, error) {
	var wrapped []dto
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if len(wrapped) == 0 {
			return domain.Document{}, fmt.Errorf("document %s: empty JSON path result", id)
		}
		return fromDTO(id, wrapped[0]), nil
	}

	var d dto
	if err := json.Unmarshal(raw, &d); err != nil {
		return domain.Document{}, fmt.Errorf("unmarshal document %s: %w", id, err)
	}
	return fromDTO(id, d), nil
}

func fromDTO(id string, d dto) domain.Document {
	return domain.ReconstructDocument(id, d.Title, d.Content, d.Category, d.Embedding, d.Metadata)
}
