//go:build cgo

package retrieval

import (
	"context"
	"testing"

	"github.com/brunobiangulo/graphrag/entity"
	"github.com/brunobiangulo/graphrag/store"
)

func seedFXForwardEntity(t *testing.T, s *store.Store, chunkID int64, confidence float64) int64 {
	t.Helper()
	ctx := context.Background()
	entityID, err := s.UpsertEntity(ctx, "FX Forward", "fx_forward", entity.TypeProduct)
	if err != nil {
		t.Fatalf("UpsertEntity: %v", err)
	}
	if err := s.LinkContainsEntity(ctx, entityID, chunkID, confidence); err != nil {
		t.Fatalf("LinkContainsEntity: %v", err)
	}
	return entityID
}

func TestEntityRetrieverScoresByConfidence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, []*store.Chunk{
		{ChunkIndex: 0, PageNum: 12, Text: "An FX Forward is a contract to exchange currencies at a predetermined rate.", ChunkType: "definition", ContentHash: "a"},
	})
	chunks, err := s.GetChunksByDocument(ctx, 1)
	if err != nil || len(chunks) == 0 {
		t.Fatalf("expected seeded chunk, err=%v", err)
	}
	seedFXForwardEntity(t, s, chunks[0].ID, 0.9)

	ex := entity.New()
	results, err := EntityRetriever(ctx, s, ex, "What is an FX Forward?", 10, nil)
	if err != nil {
		t.Fatalf("EntityRetriever: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 entity-matched chunk, got %d", len(results))
	}
	if results[0].SourceTag != "entity" {
		t.Fatalf("expected source_tag entity, got %q", results[0].SourceTag)
	}
	if results[0].Score != 1.0 {
		t.Fatalf("expected normalized score 1.0 for the sole matched chunk, got %f", results[0].Score)
	}
}

func TestEntityRetrieverNoMatchReturnsNil(t *testing.T) {
	s := newTestStore(t)
	ex := entity.New()
	results, err := EntityRetriever(context.Background(), s, ex, "tell me about the weather", 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Fatalf("expected nil results when no entities match, got %+v", results)
	}
}
