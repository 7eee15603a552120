package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDimensionMismatch signals vectors of different lengths in a similarity computation.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrUnknownTool signals an agent action naming an unregistered tool.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidExpression signals a calculator expression rejected before evaluation.
	ErrInvalidExpression = errors.New("invalid expression")
	// ErrDivisionByZero signals division or modulo by zero in the calculator.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidInput signals a malformed request or tool parameter.
	ErrInvalidInput = errors.New("invalid input")
)
