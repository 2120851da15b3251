package community

import "github.com/brunobiangulo/graphrag/store"

// pairKey canonically orders two entity ids so (a,b) and (b,a) collapse to
// the same map key.
type pairKey struct{ a, b int64 }

func newPairKey(x, y int64) pairKey {
	if x < y {
		return pairKey{a: x, b: y}
	}
	return pairKey{a: y, b: x}
}

// coOccurrenceEdges counts, for every pair of entities sharing at least one
// chunk, how many distinct chunks they co-occur in, then keeps only pairs
// with strength >= minStrength (§4.7 Step 1 sparsification — pairs below
// the threshold are intentionally omitted). chunkEntities maps chunk id to
// the entity ids linked to it (the shape store.AllEntityChunkLinks
// returns).
func coOccurrenceEdges(chunkEntities map[int64][]int64, minStrength int) []*store.Relationship {
	counts := make(map[pairKey]int)
	for _, entities := range chunkEntities {
		for i := 0; i < len(entities); i++ {
			for j := i + 1; j < len(entities); j++ {
				if entities[i] == entities[j] {
					continue
				}
				counts[newPairKey(entities[i], entities[j])]++
			}
		}
	}

	var rels []*store.Relationship
	for pk, strength := range counts {
		if strength < minStrength {
			continue
		}
		rels = append(rels, &store.Relationship{
			EntityAID: pk.a,
			EntityBID: pk.b,
			Strength:  strength,
		})
	}
	return rels
}
