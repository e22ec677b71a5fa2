package indexer

import "sort"

// legRanking is one leg's result list reduced to doc id -> 1-based rank.
type legRanking struct {
	name   string
	weight float64
	ranks  map[string]int
	hits   map[string]SearchHit
}

func rankLeg(name string, weight float64, hits []SearchHit) legRanking {
	ranks := make(map[string]int, len(hits))
	byID := make(map[string]SearchHit, len(hits))
	for i, h := range hits {
		ranks[h.Doc.ID] = i + 1
		byID[h.Doc.ID] = h
	}
	return legRanking{name: name, weight: weight, ranks: ranks, hits: byID}
}

// rrfSentinelRank is the large rank substituted for a doc absent from a
// leg, per spec.md §4.6's "or a large sentinel if absent".
const rrfSentinelRank = 1 << 30

// fuseRRF implements reciprocal rank fusion: score(d) = sum over legs of
// 1/(k + rank_leg(d)), using a sentinel rank for legs missing d entirely.
// Ties are broken by the first leg's rank, ascending (absent-from-first-leg
// sorts after present).
func fuseRRF(legs []legRanking, k, topK int) []SearchHit {
	if k <= 0 {
		k = 60
	}

	docs := unionDocs(legs)
	scored := make([]SearchHit, 0, len(docs))
	for id, doc := range docs {
		var score float64
		for _, leg := range legs {
			rank, ok := leg.ranks[id]
			if !ok {
				rank = rrfSentinelRank
			}
			score += 1.0 / float64(k+rank)
		}
		scored = append(scored, SearchHit{Doc: doc, Score: score})
	}

	firstLegRank := func(id string) int {
		if len(legs) == 0 {
			return rrfSentinelRank
		}
		if r, ok := legs[0].ranks[id]; ok {
			return r
		}
		return rrfSentinelRank
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return firstLegRank(scored[i].Doc.ID) < firstLegRank(scored[j].Doc.ID)
	})

	return truncate(scored, topK)
}

// fuseWeighted implements score(d) = sum over legs of w_leg * normalized
// score, where a leg's scores are min-max normalized to [0, 1] before
// weighting. A doc absent from a leg contributes zero for that leg.
func fuseWeighted(legs []legRanking, topK int) []SearchHit {
	normalized := make([]map[string]float64, len(legs))
	for i, leg := range legs {
		normalized[i] = normalizeScores(leg.hits)
	}

	docs := unionDocs(legs)
	scored := make([]SearchHit, 0, len(docs))
	for id, doc := range docs {
		var score float64
		for i, leg := range legs {
			score += leg.weight * normalized[i][id]
		}
		scored = append(scored, SearchHit{Doc: doc, Score: score})
	}

	firstLegRank := func(id string) int {
		if len(legs) == 0 {
			return rrfSentinelRank
		}
		if r, ok := legs[0].ranks[id]; ok {
			return r
		}
		return rrfSentinelRank
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return firstLegRank(scored[i].Doc.ID) < firstLegRank(scored[j].Doc.ID)
	})

	return truncate(scored, topK)
}

func normalizeScores(hits map[string]SearchHit) map[string]float64 {
	out := make(map[string]float64, len(hits))
	if len(hits) == 0 {
		return out
	}

	min, max := hits[firstKey(hits)].Score, hits[firstKey(hits)].Score
	for _, h := range hits {
		if h.Score < min {
			min = h.Score
		}
		if h.Score > max {
			max = h.Score
		}
	}

	spread := max - min
	for id, h := range hits {
		if spread == 0 {
			out[id] = 1
			continue
		}
		out[id] = (h.Score - min) / spread
	}
	return out
}

func firstKey(hits map[string]SearchHit) string {
	for id := range hits {
		return id
	}
	return ""
}

func unionDocs(legs []legRanking) map[string]VectorDocument {
	docs := map[string]VectorDocument{}
	for _, leg := range legs {
		for id, hit := range leg.hits {
			docs[id] = hit.Doc
		}
	}
	return docs
}

func truncate(hits []SearchHit, topK int) []SearchHit {
	if topK > 0 && len(hits) > topK {
		return hits[:topK]
	}
	return hits
}

// LegHits is one leg's already-ranked hit list, exported so VectorStore
// backends living outside this package (internal/vectorstore) can drive
// Fuse without reimplementing RRF/weighted fusion themselves.
type LegHits struct {
	Name   string
	Weight float64
	Hits   []SearchHit
}

// Fuse combines per-leg hit lists into one ranked result list per
// HybridOptions.Strategy, the same fusion spec.md §4.6 requires of any
// VectorStore.HybridSearch implementation.
func Fuse(legs []LegHits, strategy FusionStrategy, rrfK, topK int) []SearchHit {
	rankings := make([]legRanking, len(legs))
	for i, l := range legs {
		rankings[i] = rankLeg(l.Name, l.Weight, l.Hits)
	}
	if strategy == FusionWeighted {
		return fuseWeighted(rankings, topK)
	}
	return fuseRRF(rankings, rrfK, topK)
}
