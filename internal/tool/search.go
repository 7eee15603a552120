package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/lorehub/lore/internal/usecase/search"
)

// Searcher is the slice of the search service the lookup tools need.
type Searcher interface {
	Hybrid(ctx context.Context, query string, opts search.Options) ([]search.Result, error)
}

const (
	searchToolLimit = 5
	snippetMaxLen   = 200
	categoryDocs    = "docs"
	categoryNews    = "news"
)

// SearchTool performs hybrid retrieval over one document category. The
// same implementation backs the documentation and news lookup tools.
type SearchTool struct {
	name        string
	description string
	category    string
	searcher    Searcher
}

// NewDocumentSearch creates the documentation lookup tool.
func NewDocumentSearch(s Searcher) *SearchTool {
	return &SearchTool{
		name:        "search_documents",
		description: "Searches the documentation portal for pages relevant to a query. Returns titles and snippets.",
		category:    categoryDocs,
		searcher:    s,
	}
}

// NewNewsSearch creates the news lookup tool.
func NewNewsSearch(s Searcher) *SearchTool {
	return &SearchTool{
		name:        "search_news",
		description: "Searches recent news articles relevant to a query. Returns titles and snippets.",
		category:    categoryNews,
		searcher:    s,
	}
}

func (t *SearchTool) Name() string        { return t.name }
func (t *SearchTool) Description() string { return t.description }

func (t *SearchTool) Schema() Schema {
	return Schema{
		Type: "object",
		Properties: map[string]Property{
			"query": {Type: "string", Description: "Search query text"},
			"limit": {Type: "integer", Description: "Maximum results to return (default 5)"},
		},
		Required: []string{"query"},
	}
}

// searchHit is the observation record shown back to the model.
type searchHit struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// searchParams is the validated parameter set for one lookup call.
type searchParams struct {
	Query string
	Limit int
}

func parseSearchParams(input Input) (searchParams, error) {
	p := searchParams{Limit: searchToolLimit}
	query, ok := stringParam(input, "query", "raw")
	if !ok {
		return searchParams{}, missingParam("query")
	}
	p.Query = query
	if limit, ok := intParam(input, "limit"); ok && limit > 0 {
		p.Limit = limit
	}
	return p, nil
}

func (t *SearchTool) Execute(ctx context.Context, input Input) (string, error) {
	p, err := parseSearchParams(input)
	if err != nil {
		return "", err
	}

	results, err := t.searcher.Hybrid(ctx, p.Query, search.Options{Limit: p.Limit, Category: t.category})
	if err != nil {
		return "", fmt.Errorf("search %s: %w", t.category, err)
	}
	if len(results) == 0 {
		return "No results found.", nil
	}

	hits := make([]searchHit, len(results))
	for i, r := range results {
		hits[i] = searchHit{
			ID:      r.Doc.ID(),
			Title:   r.Doc.Title(),
			Snippet: snippet(r.Doc.Content()),
			Score:   r.Score,
		}
	}
	payload, err := json.Marshal(hits)
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	return string(payload), nil
}

func snippet(content string) string {
	if len(content) <= snippetMaxLen {
		return content
	}
	// Back up to a rune boundary so the cut never splits a multi-byte
	// character.
	cut := snippetMaxLen
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}
