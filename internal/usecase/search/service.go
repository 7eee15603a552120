// Package search implements the hybrid retrieval façade: vector and
// keyword legs run concurrently, their rankings are fused (RRF by default,
// weighted-sum as the scale-sensitive alternative), and an optional
// lexical re-ranking pass boosts exact matches.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lorehub/lore/internal/domain"
	"github.com/lorehub/lore/internal/domain/scoring"
)

// Result is a single ranked search hit. VectorScore and KeywordScore are
// the raw per-method scores (zero when the method did not rank the doc);
// Score is the fused score the result list is ordered by.
type Result struct {
	Doc          domain.Document
	Score        float64
	VectorScore  float64
	KeywordScore float64
}

// Options tunes a single search call. Zero Limit and RRFK fall back to
// the service defaults; MinScore and VectorWeight are pointers because 0
// is a meaningful override (pure keyword ordering, no score floor), so
// only nil means "use the default".
type Options struct {
	Limit        int
	Category     string
	MinScore     *float64
	VectorWeight *float64
	RRFK         int
}

// Float wraps v for the optional Options fields, letting callers pass an
// explicit 0 distinct from unset.
func Float(v float64) *float64 { return &v }

// Defaults holds the service-wide fallbacks for Options. VectorWeight is
// a pointer for the same reason as in Options: a configured 0 must not be
// mistaken for unset.
type Defaults struct {
	Limit        int
	MinScore     float64
	VectorWeight *float64
	RRFK         int
	RerankTopK   int
}

// Service orchestrates vector + keyword retrieval and fusion. It holds no
// per-query state: corpus statistics are recomputed from the candidate set
// on every call, so concurrent use needs no locking.
type Service struct {
	docs     DocumentReader
	embed    Embedder
	defaults Defaults
	cache    *QueryCache
}

// New creates a search service. cache may be nil (caching disabled).
func New(docs DocumentReader, embed Embedder, defaults Defaults, cache *QueryCache) *Service {
	if defaults.Limit <= 0 {
		defaults.Limit = 10
	}
	if defaults.VectorWeight == nil {
		defaults.VectorWeight = Float(0.7)
	}
	if defaults.RRFK <= 0 {
		defaults.RRFK = scoring.RRFK
	}
	if defaults.RerankTopK <= 0 {
		defaults.RerankTopK = 20
	}
	return &Service{docs: docs, embed: embed, defaults: defaults, cache: cache}
}

// leg is one retrieval method's output: a ranking plus the documents it saw.
type leg struct {
	ranks scoring.RankList
	docs  map[string]domain.Document
}

// Vector embeds the query once and ranks candidates by cosine similarity.
// Candidates without an embedding are skipped. A dimension mismatch is a
// hard error: it means documents from a different embedding space leaked
// into the collection.
func (s *Service) Vector(ctx context.Context, query string, opts Options) (map[string]Result, error) {
	l, err := s.vectorLeg(ctx, query, s.fill(opts))
	if err != nil {
		return nil, err
	}
	return legResults(l, func(r *Result, score float64) { r.VectorScore = score }), nil
}

// Keyword ranks candidates with the simplified BM25 scorer. The corpus
// average document length is computed from the query-time candidate set,
// not a hardcoded constant.
func (s *Service) Keyword(ctx context.Context, query string, opts Options) (map[string]Result, error) {
	l, err := s.keywordLeg(ctx, query, s.fill(opts))
	if err != nil {
		return nil, err
	}
	return legResults(l, func(r *Result, score float64) { r.KeywordScore = score }), nil
}

// Hybrid runs both legs concurrently (each overfetching 2*limit), fuses
// the rankings via RRF, filters by MinScore, and truncates to Limit.
// If either leg fails the whole call fails: partially ranked results can
// mislead consumers, so the default is fail-closed.
func (s *Service) Hybrid(ctx context.Context, query string, opts Options) ([]Result, error) {
	opts = s.fill(opts)

	if cached, ok := s.cache.get("hybrid", query, opts); ok {
		return cached, nil
	}

	vec, kw, err := s.bothLegs(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	fused := scoring.ReciprocalRankFusion([]scoring.RankList{vec.ranks, kw.ranks}, opts.RRFK)
	results := assemble(fused, vec, kw, opts)

	s.cache.put("hybrid", query, opts, results)
	return results, nil
}

// Weighted is the scale-sensitive alternative to Hybrid: min-max
// normalized scores blended as vectorWeight*v + (1-vectorWeight)*k.
func (s *Service) Weighted(ctx context.Context, query string, opts Options) ([]Result, error) {
	opts = s.fill(opts)

	if cached, ok := s.cache.get("weighted", query, opts); ok {
		return cached, nil
	}

	vec, kw, err := s.bothLegs(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	fused := scoring.WeightedFusion(vec.ranks, kw.ranks, *opts.VectorWeight)
	results := assemble(fused, vec, kw, opts)

	s.cache.put("weighted", query, opts, results)
	return results, nil
}

// Lexical re-ranking bonuses: a cheap exact-match tie-breaker, not a
// learned re-ranker (placeholder for a future cross-encoder).
const (
	titleMatchBonus   = 0.2
	contentMatchBonus = 0.1
)

// WithRerank widens the hybrid pool to RerankTopK, boosts literal
// case-insensitive matches, and re-truncates to the requested limit.
func (s *Service) WithRerank(ctx context.Context, query string, opts Options) ([]Result, error) {
	opts = s.fill(opts)

	pool := opts
	pool.Limit = s.defaults.RerankTopK
	pool.MinScore = Float(0) // filter after boosting

	results, err := s.Hybrid(ctx, query, pool)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	boosted := make([]Result, len(results))
	for i, r := range results {
		if strings.Contains(strings.ToLower(r.Doc.Title()), needle) {
			r.Score += titleMatchBonus
		} else if strings.Contains(strings.ToLower(r.Doc.Content()), needle) {
			r.Score += contentMatchBonus
		}
		boosted[i] = r
	}

	sortResults(boosted)
	boosted = truncate(boosted, opts.Limit)

	filtered := boosted[:0]
	for _, r := range boosted {
		if r.Score >= *opts.MinScore {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (s *Service) fill(opts Options) Options {
	if opts.Limit <= 0 {
		opts.Limit = s.defaults.Limit
	}
	if opts.VectorWeight == nil {
		opts.VectorWeight = s.defaults.VectorWeight
	}
	if opts.RRFK <= 0 {
		opts.RRFK = s.defaults.RRFK
	}
	if opts.MinScore == nil {
		opts.MinScore = Float(s.defaults.MinScore)
	}
	return opts
}

// bothLegs fans the two retrieval methods out concurrently and joins
// before fusing. Fusion is commutative, so leg completion order does not
// affect the result.
func (s *Service) bothLegs(ctx context.Context, query string, opts Options) (leg, leg, error) {
	overfetch := opts
	overfetch.Limit = 2 * opts.Limit

	var vec, kw leg
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vec, err = s.vectorLeg(gctx, query, overfetch)
		return err
	})
	g.Go(func() error {
		var err error
		kw, err = s.keywordLeg(gctx, query, overfetch)
		return err
	})
	if err := g.Wait(); err != nil {
		return leg{}, leg{}, err
	}
	return vec, kw, nil
}

func (s *Service) vectorLeg(ctx context.Context, query string, opts Options) (leg, error) {
	candidates, err := s.docs.Query(ctx, domain.Filter{Category: opts.Category})
	if err != nil {
		return leg{}, fmt.Errorf("query candidates: %w", err)
	}

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		return leg{}, fmt.Errorf("vectorize query: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(embResult.TotalTokens)

	ranks := make(scoring.RankList)
	docs := make(map[string]domain.Document)
	for i := range candidates {
		doc := candidates[i]
		if doc.Embedding() == nil {
			continue
		}
		score, err := scoring.Cosine(embResult.Embedding, doc.Embedding())
		if err != nil {
			return leg{}, fmt.Errorf("score %s: %w", doc.ID(), err)
		}
		ranks[doc.ID()] = score
		docs[doc.ID()] = doc
	}

	return topN(leg{ranks: ranks, docs: docs}, opts.Limit), nil
}

func (s *Service) keywordLeg(ctx context.Context, query string, opts Options) (leg, error) {
	candidates, err := s.docs.Query(ctx, domain.Filter{Category: opts.Category})
	if err != nil {
		return leg{}, fmt.Errorf("query candidates: %w", err)
	}
	if len(candidates) == 0 {
		return leg{ranks: scoring.RankList{}, docs: map[string]domain.Document{}}, nil
	}

	var totalLen int
	for i := range candidates {
		totalLen += len(candidates[i].Title()) + len(candidates[i].Content())
	}
	avgDocLen := float64(totalLen) / float64(len(candidates))

	ranks := make(scoring.RankList)
	docs := make(map[string]domain.Document)
	for i := range candidates {
		doc := candidates[i]
		text := doc.Title() + " " + doc.Content()
		score := scoring.KeywordScore(query, text, avgDocLen, scoring.DefaultK1, scoring.DefaultB)
		if score <= 0 {
			continue
		}
		ranks[doc.ID()] = score
		docs[doc.ID()] = doc
	}

	return topN(leg{ranks: ranks, docs: docs}, opts.Limit), nil
}

// topN keeps only the limit best-scoring entries of a leg.
func topN(l leg, limit int) leg {
	ids := scoring.TopIDs(l.ranks)
	if len(ids) <= limit {
		return l
	}
	for _, id := range ids[limit:] {
		delete(l.ranks, id)
		delete(l.docs, id)
	}
	return l
}

// assemble unions the documents of both legs (the vector copy wins on id
// collision), attaches fused and per-method scores, filters by MinScore,
// sorts fused-score-descending, and truncates to Limit. Every returned doc
// was retrieved by at least one method.
func assemble(fused scoring.RankList, vec, kw leg, opts Options) []Result {
	results := make([]Result, 0, len(fused))
	for id, score := range fused {
		if score < *opts.MinScore {
			continue
		}
		doc, ok := vec.docs[id]
		if !ok {
			if doc, ok = kw.docs[id]; !ok {
				continue
			}
		}
		results = append(results, Result{
			Doc:          doc,
			Score:        score,
			VectorScore:  vec.ranks[id],
			KeywordScore: kw.ranks[id],
		})
	}

	sortResults(results)
	return truncate(results, opts.Limit)
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Doc.ID() < results[j].Doc.ID()
	})
}

func truncate(results []Result, limit int) []Result {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}

func legResults(l leg, set func(*Result, float64)) map[string]Result {
	out := make(map[string]Result, len(l.ranks))
	for id, score := range l.ranks {
		r := Result{Doc: l.docs[id], Score: score}
		set(&r, score)
		out[id] = r
	}
	return out
}
