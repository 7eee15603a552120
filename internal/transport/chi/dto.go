package chi

import (
	"github.com/lorehub/lore/internal/domain"
	"github.com/lorehub/lore/internal/usecase/agent"
	"github.com/lorehub/lore/internal/usecase/search"
)

// ErrorCode identifies an error class in API responses.
type ErrorCode string

const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeDocumentNotFound  ErrorCode = "document_not_found"
	CodeDimensionMismatch ErrorCode = "dimension_mismatch"
	CodeProviderError     ErrorCode = "provider_error"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /api/v1/search. MinScore and
// VectorWeight are pointers so an explicit 0 is distinguishable from an
// absent field, which falls back to the service default.
type SearchRequest struct {
	Query        string   `json:"query"`
	Limit        int      `json:"limit,omitempty"`
	Category     string   `json:"category,omitempty"`
	MinScore     *float64 `json:"min_score,omitempty"`
	VectorWeight *float64 `json:"vector_weight,omitempty"`
	// Mode selects the fusion strategy: "rrf" (default) or "weighted".
	Mode string `json:"mode,omitempty"`
}

// SearchResultItem is one ranked hit in a search response.
type SearchResultItem struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	Category     string            `json:"category,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Score        float64           `json:"score"`
	VectorScore  float64           `json:"vector_score,omitempty"`
	KeywordScore float64           `json:"keyword_score,omitempty"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Items []SearchResultItem `json:"items"`
	Total int                `json:"total"`
}

// AgentRunRequest is the body of POST /api/v1/agent/run and /agent/stream.
type AgentRunRequest struct {
	Query string `json:"query"`
}

// AgentRunResponse mirrors agent.Result.
type AgentRunResponse struct {
	RunID      string        `json:"run_id"`
	Answer     string        `json:"answer"`
	Outcome    agent.Outcome `json:"outcome"`
	Steps      []agent.Step  `json:"steps"`
	Iterations int           `json:"iterations"`
	ElapsedMS  int64         `json:"elapsed_ms"`
}

// UpsertDocumentRequest is the body of PUT /api/v1/documents/{id}.
type UpsertDocumentRequest struct {
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Category string            `json:"category,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DocumentResponse is the JSON shape of a stored document.
type DocumentResponse struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Category string            `json:"category,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DocumentListResponse is the body of GET /api/v1/documents.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Total int                `json:"total"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func searchResultToDTO(r search.Result) SearchResultItem {
	return SearchResultItem{
		ID:           r.Doc.ID(),
		Title:        r.Doc.Title(),
		Content:      r.Doc.Content(),
		Category:     r.Doc.Category(),
		Metadata:     r.Doc.Metadata(),
		Score:        r.Score,
		VectorScore:  r.VectorScore,
		KeywordScore: r.KeywordScore,
	}
}

func documentToDTO(doc domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:       doc.ID(),
		Title:    doc.Title(),
		Content:  doc.Content(),
		Category: doc.Category(),
		Metadata: doc.Metadata(),
	}
}

func agentResultToDTO(r agent.Result) AgentRunResponse {
	return AgentRunResponse{
		RunID:      r.RunID,
		Answer:     r.Answer,
		Outcome:    r.Outcome,
		Steps:      r.Steps,
		Iterations: r.Iterations,
		ElapsedMS:  r.Elapsed.Milliseconds(),
	}
}
