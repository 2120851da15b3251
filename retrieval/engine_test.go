//go:build cgo

package retrieval

import (
	"context"
	"testing"

	"github.com/brunobiangulo/graphrag/entity"
	"github.com/brunobiangulo/graphrag/query"
	"github.com/brunobiangulo/graphrag/store"
)

func TestEngineRetrieveFusesHybridFanOut(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, []*store.Chunk{
		{ChunkIndex: 0, PageNum: 12, Text: "An FX Forward is a contract to exchange currencies at a predetermined rate.", ChunkType: "definition", ContentHash: "a"},
		{ChunkIndex: 1, PageNum: 13, Text: "Account opening requires two forms of identification.", ChunkType: "content", ContentHash: "b"},
	})
	chunks, err := s.GetChunksByDocument(ctx, 1)
	if err != nil || len(chunks) != 2 {
		t.Fatalf("expected 2 seeded chunks, err=%v", err)
	}
	seedFXForwardEntity(t, s, chunks[0].ID, 0.9)

	vec := []float32{1, 0, 0, 0}
	if err := s.InsertEmbedding(ctx, chunks[0].ID, vec); err != nil {
		t.Fatalf("InsertEmbedding: %v", err)
	}
	if err := s.InsertEmbedding(ctx, chunks[1].ID, []float32{0, 1, 0, 0}); err != nil {
		t.Fatalf("InsertEmbedding: %v", err)
	}

	ex := entity.New()
	enc := fixedEncoder{vec: vec}
	engine := New(s, enc, ex)

	plan := query.Build("What is an FX Forward?", "", query.DefaultOptions())
	results, err := engine.Retrieve(ctx, plan)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one fused result")
	}
	if results[0].ChunkID != chunks[0].ID {
		t.Fatalf("expected the FX Forward chunk ranked first, got chunk %d", results[0].ChunkID)
	}
}

func TestEngineRetrieveRespectsStrategyHint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, []*store.Chunk{
		{ChunkIndex: 0, PageNum: 1, Text: "refund policy covers thirty days", ChunkType: "content", ContentHash: "a"},
	})

	ex := entity.New()
	enc := fixedEncoder{vec: []float32{1, 0, 0, 0}}
	engine := New(s, enc, ex)

	plan := query.Build("refund policy", "keyword", query.DefaultOptions())
	if len(plan.Retrievers) != 1 || plan.Retrievers[0] != query.RetrieverKeyword {
		t.Fatalf("expected plan pinned to keyword, got %+v", plan.Retrievers)
	}

	results, err := engine.Retrieve(ctx, plan)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	for _, r := range results {
		if r.SourceTag != "keyword" {
			t.Fatalf("expected all results tagged keyword under a pinned plan, got %q", r.SourceTag)
		}
	}
}
