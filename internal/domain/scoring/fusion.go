package scoring

import "sort"

// RRFK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
// It dampens the influence of rank differences among top results.
const RRFK = 60

// minMaxEpsilon floors the min-max denominator so a constant ranking
// does not divide by zero.
const minMaxEpsilon = 1e-9

// RankList maps a document id to one retrieval method's score for it.
type RankList map[string]float64

// ReciprocalRankFusion merges ranked lists into one fused score per document.
// For each input list, ids are sorted score-descending into 0-based ranks
// (ties broken by id so fusion is deterministic), and each document
// accumulates 1/(k + rank + 1) across all lists. Rank position is
// scale-invariant, which is why RRF is preferred here over averaging the raw
// scores of incomparable methods. The result is commutative over the input
// list order.
func ReciprocalRankFusion(lists []RankList, k int) RankList {
	if k <= 0 {
		k = RRFK
	}

	fused := make(RankList)
	for _, list := range lists {
		for rank, id := range rankedIDs(list) {
			fused[id] += 1.0 / float64(k+rank+1)
		}
	}
	return fused
}

// WeightedFusion blends two rank lists by min-max normalizing each to [0,1]
// independently and computing vectorWeight*vNorm + (1-vectorWeight)*kNorm
// over the union of documents. A document absent from one list contributes 0
// for that method. Unlike RRF this is scale-sensitive but continuously
// tunable.
func WeightedFusion(vector, keyword RankList, vectorWeight float64) RankList {
	vNorm := minMaxNormalize(vector)
	kNorm := minMaxNormalize(keyword)

	fused := make(RankList, len(vNorm)+len(kNorm))
	for id, v := range vNorm {
		fused[id] = vectorWeight * v
	}
	for id, kv := range kNorm {
		fused[id] += (1 - vectorWeight) * kv
	}
	return fused
}

// TopIDs returns the ids of a rank list in score-descending order (ties by id).
func TopIDs(list RankList) []string {
	return rankedIDs(list)
}

func rankedIDs(list RankList) []string {
	ids := make([]string, 0, len(list))
	for id := range list {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		si, sj := list[ids[i]], list[ids[j]]
		if si != sj {
			return si > sj
		}
		return ids[i] < ids[j]
	})
	return ids
}

func minMaxNormalize(list RankList) RankList {
	if len(list) == 0 {
		return RankList{}
	}

	minScore, maxScore := 0.0, 0.0
	first := true
	for _, s := range list {
		if first {
			minScore, maxScore = s, s
			first = false
			continue
		}
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}

	span := maxScore - minScore
	if span < minMaxEpsilon {
		span = minMaxEpsilon
	}

	out := make(RankList, len(list))
	for id, s := range list {
		out[id] = (s - minScore) / span
	}
	return out
}
