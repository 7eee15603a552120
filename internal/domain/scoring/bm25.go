package scoring

import "strings"

// Default BM25 parameters (standard values from the literature).
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// KeywordScore computes a simplified single-document BM25 relevance of text
// for query. Both strings are tokenized by whitespace, lower-cased. Each
// query term present in the document contributes
//
//	tf*(k1+1) / (tf + k1*(1-b+b*(docLen/avgDocLen)))
//
// and the sum is normalized by the query term count. Document length is
// measured in characters so that it matches the corpus average the caller
// computes over title+content.
//
// There is no corpus-wide IDF term: this is a deliberate simplification for
// small per-query corpora, kept weaker than full BM25 on purpose.
func KeywordScore(query, text string, avgDocLen, k1, b float64) float64 {
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return 0
	}

	docTerms := tokenize(text)
	if len(docTerms) == 0 {
		return 0
	}

	termFreq := make(map[string]int, len(docTerms))
	for _, t := range docTerms {
		termFreq[t]++
	}

	docLen := float64(len(text))
	if avgDocLen <= 0 {
		avgDocLen = docLen
	}
	lengthNorm := k1 * (1 - b + b*(docLen/avgDocLen))

	var score float64
	for _, term := range queryTerms {
		tf := float64(termFreq[term])
		if tf == 0 {
			continue
		}
		score += tf * (k1 + 1) / (tf + lengthNorm)
	}

	return score / float64(len(queryTerms))
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
