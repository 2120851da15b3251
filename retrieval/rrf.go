package retrieval

import (
	"sort"

	"github.com/brunobiangulo/graphrag/store"
)

const rrfK = 60 // standard reciprocal-rank-fusion constant

// fuseWeighted combines independently-ranked result sets with weighted
// Reciprocal Rank Fusion: score = sum(weight_i / (k + rank_i)). Grounded
// on the three-way RRF fusion this module's ingestion lineage used for
// {vector, fts, graph}; generalized here to the hybrid retriever's
// {vector, entity, keyword} pre-rerank weights of 0.5/0.3/0.2 (§4.9).
func fuseWeighted(vec, ent, kw []store.RetrievalResult, weightVec, weightEnt, weightKw float64, maxResults int) []store.RetrievalResult {
	type fusedEntry struct {
		result store.RetrievalResult
		score  float64
	}
	fused := make(map[int64]*fusedEntry)

	add := func(results []store.RetrievalResult, weight float64) {
		for rank, r := range results {
			entry, ok := fused[r.ChunkID]
			if !ok {
				entry = &fusedEntry{result: r}
				fused[r.ChunkID] = entry
			}
			entry.score += weight / float64(rrfK+rank+1)
		}
	}
	add(vec, weightVec)
	add(ent, weightEnt)
	add(kw, weightKw)

	entries := make([]*fusedEntry, 0, len(fused))
	for _, e := range fused {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].score > entries[j].score })
	if maxResults > 0 && len(entries) > maxResults {
		entries = entries[:maxResults]
	}

	out := make([]store.RetrievalResult, len(entries))
	for i, e := range entries {
		out[i] = e.result
		out[i].Score = clip01(e.score)
		out[i].SourceTag = "hybrid"
	}
	return out
}

// mergeByChunkID unions two already-scored result sets, keeping the
// higher score on overlap, sorted descending and truncated to maxResults.
func mergeByChunkID(a, b []store.RetrievalResult, maxResults int) []store.RetrievalResult {
	byID := make(map[int64]store.RetrievalResult, len(a)+len(b))
	for _, r := range a {
		byID[r.ChunkID] = r
	}
	for _, r := range b {
		if existing, ok := byID[r.ChunkID]; !ok || r.Score > existing.Score {
			byID[r.ChunkID] = r
		}
	}

	out := make([]store.RetrievalResult, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}
