//go:build cgo

package retrieval

import (
	"context"
	"testing"

	"github.com/brunobiangulo/graphrag/entity"
	"github.com/brunobiangulo/graphrag/store"
)

func TestCommunityRetrieverPhase1SatisfiesFromQueryEntityAlone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, []*store.Chunk{
		{ChunkIndex: 0, PageNum: 12, Text: "An FX Forward is a contract to exchange currencies.", ChunkType: "definition", ContentHash: "a"},
	})
	chunks, err := s.GetChunksByDocument(ctx, 1)
	if err != nil || len(chunks) == 0 {
		t.Fatalf("expected seeded chunk, err=%v", err)
	}

	entityID := seedFXForwardEntity(t, s, chunks[0].ID, 0.9)
	communityID, err := s.InsertCommunity(ctx, 1)
	if err != nil {
		t.Fatalf("InsertCommunity: %v", err)
	}
	if err := s.UpdateEntityMetrics(ctx, &store.Entity{ID: entityID, CommunityID: &communityID}); err != nil {
		t.Fatalf("UpdateEntityMetrics: %v", err)
	}

	ex := entity.New()
	results, err := CommunityRetriever(ctx, s, ex, "What is an FX Forward?", 1, nil)
	if err != nil {
		t.Fatalf("CommunityRetriever: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result from the single-entity community, got %d", len(results))
	}
}

func TestCommunityRetrieverExpandsViaBridgeWhenSparse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, []*store.Chunk{
		{ChunkIndex: 0, PageNum: 12, Text: "An FX Forward is a contract to exchange currencies.", ChunkType: "definition", ContentHash: "a"},
		{ChunkIndex: 1, PageNum: 13, Text: "Settlement occurs through the central clearing counterparty.", ChunkType: "content", ContentHash: "b"},
	})
	chunks, err := s.GetChunksByDocument(ctx, 1)
	if err != nil || len(chunks) != 2 {
		t.Fatalf("expected 2 seeded chunks, err=%v", err)
	}

	fxID := seedFXForwardEntity(t, s, chunks[0].ID, 0.2) // below the 0.3 floor alone
	bridgeID, err := s.UpsertEntity(ctx, "Clearing Counterparty", "clearing_counterparty", entity.TypeOrg)
	if err != nil {
		t.Fatalf("UpsertEntity: %v", err)
	}
	if err := s.LinkContainsEntity(ctx, bridgeID, chunks[1].ID, 0.95); err != nil {
		t.Fatalf("LinkContainsEntity: %v", err)
	}

	communityID, err := s.InsertCommunity(ctx, 2)
	if err != nil {
		t.Fatalf("InsertCommunity: %v", err)
	}
	if err := s.UpdateEntityMetrics(ctx, &store.Entity{ID: fxID, CommunityID: &communityID}); err != nil {
		t.Fatalf("UpdateEntityMetrics fx: %v", err)
	}
	if err := s.UpdateEntityMetrics(ctx, &store.Entity{ID: bridgeID, CommunityID: &communityID, IsBridge: true}); err != nil {
		t.Fatalf("UpdateEntityMetrics bridge: %v", err)
	}

	ex := entity.New()
	results, err := CommunityRetriever(ctx, s, ex, "What is an FX Forward?", 5, nil)
	if err != nil {
		t.Fatalf("CommunityRetriever: %v", err)
	}
	found := false
	for _, r := range results {
		if r.ChunkID == chunks[1].ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected phase 2 to pull in the bridge-linked chunk, got %+v", results)
	}
}

func TestCommunityRetrieverNoMatchReturnsNil(t *testing.T) {
	s := newTestStore(t)
	ex := entity.New()
	results, err := CommunityRetriever(context.Background(), s, ex, "tell me about the weather", 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Fatalf("expected nil results when no entities match, got %+v", results)
	}
}
