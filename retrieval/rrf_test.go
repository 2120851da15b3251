package retrieval

import (
	"testing"

	"github.com/brunobiangulo/graphrag/store"
)

func TestFuseWeightedPrefersMultiSourceAgreement(t *testing.T) {
	vec := []store.RetrievalResult{{ChunkID: 1}, {ChunkID: 2}}
	ent := []store.RetrievalResult{{ChunkID: 2}, {ChunkID: 3}}
	kw := []store.RetrievalResult{{ChunkID: 1}}

	fused := fuseWeighted(vec, ent, kw, weightVector, weightEntity, weightKeyword, 10)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused candidates, got %d", len(fused))
	}
	// Chunk 2 appears in vector rank 1 and entity rank 0; chunk 1 appears
	// in vector rank 0 and keyword rank 0. Both beat chunk 3 (entity only).
	if fused[len(fused)-1].ChunkID != 3 {
		t.Fatalf("expected chunk 3 (single-source) ranked last, got %+v", fused)
	}
	for _, r := range fused {
		if r.SourceTag != "hybrid" {
			t.Fatalf("expected hybrid source tag, got %q", r.SourceTag)
		}
		if r.Score < 0 || r.Score > 1 {
			t.Fatalf("expected score in [0,1], got %f", r.Score)
		}
	}
}

func TestFuseWeightedRespectsMaxResults(t *testing.T) {
	vec := []store.RetrievalResult{{ChunkID: 1}, {ChunkID: 2}, {ChunkID: 3}}
	fused := fuseWeighted(vec, nil, nil, 1, 1, 1, 2)
	if len(fused) != 2 {
		t.Fatalf("expected truncation to 2 results, got %d", len(fused))
	}
}

func TestMergeByChunkIDKeepsHigherScore(t *testing.T) {
	a := []store.RetrievalResult{{ChunkID: 1, Score: 0.4}, {ChunkID: 2, Score: 0.9}}
	b := []store.RetrievalResult{{ChunkID: 1, Score: 0.7}, {ChunkID: 3, Score: 0.2}}

	merged := mergeByChunkID(a, b, 10)
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged results, got %d", len(merged))
	}
	for _, r := range merged {
		if r.ChunkID == 1 && r.Score != 0.7 {
			t.Fatalf("expected chunk 1 to keep the higher score 0.7, got %f", r.Score)
		}
	}
	if merged[0].ChunkID != 2 {
		t.Fatalf("expected chunk 2 (highest score) first, got %+v", merged[0])
	}
}

func TestMergeByChunkIDRespectsMaxResults(t *testing.T) {
	a := []store.RetrievalResult{{ChunkID: 1, Score: 0.9}, {ChunkID: 2, Score: 0.8}}
	b := []store.RetrievalResult{{ChunkID: 3, Score: 0.7}}
	merged := mergeByChunkID(a, b, 2)
	if len(merged) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(merged))
	}
}
