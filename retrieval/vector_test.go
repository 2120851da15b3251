//go:build cgo

package retrieval

import (
	"context"
	"testing"

	"github.com/brunobiangulo/graphrag/store"
)

// fixedEncoder is a deterministic embed.Encoder test double that always
// returns the same vector, regardless of input text.
type fixedEncoder struct {
	vec []float32
}

func (f fixedEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

func (f fixedEncoder) Dim() int { return len(f.vec) }

func TestVectorRetrieverReturnsNearestChunk(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedDocument(t, s, []*store.Chunk{
		{ChunkIndex: 0, PageNum: 1, Text: "fx forward contracts", ChunkType: "content", ContentHash: "a"},
	})
	_ = ids

	chunks, err := s.GetChunksByDocument(ctx, 1)
	if err != nil {
		t.Fatalf("GetChunksByDocument: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	vec := []float32{1, 0, 0, 0}
	if err := s.InsertEmbedding(ctx, chunks[0].ID, vec); err != nil {
		t.Fatalf("InsertEmbedding: %v", err)
	}

	enc := fixedEncoder{vec: vec}
	results, err := VectorRetriever(ctx, s, enc, "what is an fx forward", 5, nil)
	if err != nil {
		t.Fatalf("VectorRetriever: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].SourceTag != "vector" {
		t.Fatalf("expected source_tag vector, got %q", results[0].SourceTag)
	}
	if results[0].Score < 0.99 {
		t.Fatalf("expected near-identical vectors to score near 1.0, got %f", results[0].Score)
	}
}

type erroringEncoder struct{}

func (erroringEncoder) Encode(context.Context, []string) ([][]float32, error) {
	return nil, context.DeadlineExceeded
}
func (erroringEncoder) Dim() int { return 4 }

func TestVectorRetrieverPropagatesEmbeddingError(t *testing.T) {
	s := newTestStore(t)
	_, err := VectorRetriever(context.Background(), s, erroringEncoder{}, "query", 5, nil)
	if err == nil {
		t.Fatal("expected error when embedding fails")
	}
}
