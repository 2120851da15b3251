package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/brunobiangulo/graphrag/entity"
	"github.com/brunobiangulo/graphrag/store"
)

// matchQueryEntities extracts PRODUCT/TERM entities from a query with the
// same extractor ingestion uses and resolves them against existing graph
// entities (§4.9: "same extractor as ingestion, PRODUCT/TERM only").
func matchQueryEntities(ctx context.Context, s *store.Store, ex *entity.Extractor, query string) ([]*store.Entity, error) {
	candidates := ex.Extract(query)

	var normalized []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if c.Type != entity.TypeProduct && c.Type != entity.TypeTerm {
			continue
		}
		if seen[c.Normalized] {
			continue
		}
		seen[c.Normalized] = true
		normalized = append(normalized, c.Normalized)
	}
	if len(normalized) == 0 {
		return nil, nil
	}
	return s.GetEntitiesByNormalized(ctx, normalized)
}

// EntityRetriever fetches chunks containing any query-matched entity and
// scores each by the normalized sum of CONTAINS_ENTITY confidence across
// matched entities present in that chunk (§4.9).
func EntityRetriever(ctx context.Context, s *store.Store, ex *entity.Extractor, query string, budget int, filter *store.Filter) ([]store.RetrievalResult, error) {
	matched, err := matchQueryEntities(ctx, s, ex, query)
	if err != nil {
		return nil, fmt.Errorf("entity retriever: %w", err)
	}
	if len(matched) == 0 {
		return nil, nil
	}
	return scoreByEntityConfidence(ctx, s, matched, budget, filter)
}

// scoreByEntityConfidence fetches chunks containing any of the given
// entities and scores each by the normalized sum of CONTAINS_ENTITY
// confidence across all matched entities present in that chunk. Shared by
// the entity retriever and the community-aware retriever's two phases.
func scoreByEntityConfidence(ctx context.Context, s *store.Store, entities []*store.Entity, budget int, filter *store.Filter) ([]store.RetrievalResult, error) {
	if len(entities) == 0 {
		return nil, nil
	}

	entityIDs := make([]int64, len(entities))
	for i, e := range entities {
		entityIDs[i] = e.ID
	}

	links, err := s.ChunksForEntities(ctx, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("chunks for entities: %w", err)
	}
	confidences, err := s.EntityConfidenceForChunks(ctx, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("entity confidence for chunks: %w", err)
	}

	chunkScore := make(map[int64]float64)
	var chunkIDs []int64
	seenChunk := make(map[int64]bool)
	for _, eid := range entityIDs {
		for _, cid := range links[eid] {
			chunkScore[cid] += confidences[[2]int64{eid, cid}]
			if !seenChunk[cid] {
				seenChunk[cid] = true
				chunkIDs = append(chunkIDs, cid)
			}
		}
	}
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	joined, err := s.RetrievalResultsByChunkIDs(ctx, chunkIDs, filter)
	if err != nil {
		return nil, fmt.Errorf("resolving entity-matched chunks: %w", err)
	}

	maxScore := 0.0
	for _, sc := range chunkScore {
		if sc > maxScore {
			maxScore = sc
		}
	}

	var results []store.RetrievalResult
	for cid, rawScore := range chunkScore {
		r, ok := joined[cid]
		if !ok {
			continue // excluded by the division/category/product filter
		}
		norm := rawScore
		if maxScore > 0 {
			norm = rawScore / maxScore
		}
		r.Score = clip01(norm)
		r.SourceTag = "entity"
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if budget > 0 && len(results) > budget {
		results = results[:budget]
	}
	return results, nil
}
