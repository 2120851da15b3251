package retrieval

import (
	"context"
	"fmt"

	"github.com/brunobiangulo/graphrag/entity"
	"github.com/brunobiangulo/graphrag/store"
)

// communityFloorScore is the phase-1 sufficiency threshold: a candidate
// below this score doesn't count toward "enough results to skip phase 2"
// (§4.9).
const communityFloorScore = 0.3

// CommunityRetriever runs the two-phase community-aware strategy. Phase 1
// identifies candidate communities as the union of communities of query
// entities and scores chunks reachable from those communities' members.
// If phase 1 yields fewer than top_k candidates above communityFloorScore,
// phase 2 expands to chunks reachable from bridge entities connecting
// those communities (§4.9).
func CommunityRetriever(ctx context.Context, s *store.Store, ex *entity.Extractor, query string, topK int, filter *store.Filter) ([]store.RetrievalResult, error) {
	matched, err := matchQueryEntities(ctx, s, ex, query)
	if err != nil {
		return nil, fmt.Errorf("community retriever: %w", err)
	}
	if len(matched) == 0 {
		return nil, nil
	}

	var communityIDs []int64
	seen := make(map[int64]bool)
	for _, e := range matched {
		if e.CommunityID == nil || seen[*e.CommunityID] {
			continue
		}
		seen[*e.CommunityID] = true
		communityIDs = append(communityIDs, *e.CommunityID)
	}
	if len(communityIDs) == 0 {
		// No resolved community membership: degrade to the plain
		// entity-confidence scoring over the matched entities.
		return scoreByEntityConfidence(ctx, s, matched, 2*topK, filter)
	}

	members, err := s.EntitiesByCommunity(ctx, communityIDs)
	if err != nil {
		return nil, fmt.Errorf("community retriever: resolving members: %w", err)
	}

	phase1, err := scoreByEntityConfidence(ctx, s, members, 2*topK, filter)
	if err != nil {
		return nil, err
	}

	above := 0
	for _, r := range phase1 {
		if r.Score >= communityFloorScore {
			above++
		}
	}
	if above >= topK {
		return phase1, nil
	}

	var bridges []*store.Entity
	for _, e := range members {
		if e.IsBridge {
			bridges = append(bridges, e)
		}
	}
	if len(bridges) == 0 {
		return phase1, nil
	}

	phase2, err := scoreByEntityConfidence(ctx, s, bridges, 2*topK, filter)
	if err != nil {
		// Phase 2 is best-effort widening; degrade to phase 1 on failure.
		return phase1, nil
	}

	return mergeByChunkID(phase1, phase2, 2*topK), nil
}
