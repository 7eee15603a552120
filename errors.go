package lore

import "github.com/lorehub/lore/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound                = domain.ErrNotFound
	ErrDocumentNotFound        = domain.ErrDocumentNotFound
	ErrDimensionMismatch       = domain.ErrDimensionMismatch
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
	ErrCompletionProviderError = domain.ErrCompletionProviderError
	ErrUnknownTool             = domain.ErrUnknownTool
	ErrInvalidInput            = domain.ErrInvalidInput
)
