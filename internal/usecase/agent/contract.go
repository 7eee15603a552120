package agent

import (
	"context"

	"github.com/lorehub/lore/internal/domain"
)

// Completer is the completion provider contract for the reasoning loop.
// One Complete call is one loop iteration.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}
