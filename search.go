package lore

import (
	"context"
	"fmt"
	"time"

	searchuc "github.com/lorehub/lore/internal/usecase/search"
)

// Search runs a hybrid search over the indexed documents. The fusion
// algorithm is selected by opts.Mode; the default is ModeRRF.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (results []SearchResult, err error) {
	defer func(start time.Time) { c.obs.observe("search", start, err) }(time.Now())

	ucOpts := searchuc.Options{
		Limit:        opts.Limit,
		Category:     opts.Category,
		MinScore:     opts.MinScore,
		VectorWeight: opts.VectorWeight,
		RRFK:         opts.RRFK,
	}

	var hits []searchuc.Result
	switch opts.Mode {
	case "", ModeRRF:
		hits, err = c.searchSvc.Hybrid(ctx, query, ucOpts)
	case ModeWeighted:
		hits, err = c.searchSvc.Weighted(ctx, query, ucOpts)
	case ModeRerank:
		hits, err = c.searchSvc.WithRerank(ctx, query, ucOpts)
	default:
		return nil, fmt.Errorf("%w: unknown search mode %q", ErrInvalidInput, opts.Mode)
	}
	if err != nil {
		return nil, err
	}

	results = make([]SearchResult, len(hits))
	for i, h := range hits {
		results[i] = resultFromUsecase(h)
	}
	return results, nil
}
