package rerank

import (
	"context"
	"errors"
	"testing"

	"github.com/brunobiangulo/graphrag/query"
	"github.com/brunobiangulo/graphrag/store"
)

type fakeScorer struct {
	scores []float64
	err    error
}

func (f fakeScorer) Score(_ context.Context, _ string, texts []string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

func TestRerankCombinesWeightedFactors(t *testing.T) {
	candidates := []store.RetrievalResult{
		{ChunkID: 1, Text: "an fx forward is defined as a contract", ChunkType: "definition", Score: 0.4, SemanticDensity: 0.5, PageNumber: 3},
		{ChunkID: 2, Text: "settlement happens through a clearing house", ChunkType: "content", Score: 0.9, SemanticDensity: 0.5, PageNumber: 1},
	}
	scorer := fakeScorer{scores: []float64{0.9, 0.1}}

	out, err := Rerank(context.Background(), scorer, "what is an fx forward", candidates, []string{"fx", "forward"}, query.ClassDefinition, DefaultWeights())
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if out[0].ChunkID != 1 {
		t.Fatalf("expected chunk 1 (high cross-encoder + definition match) ranked first, got %+v", out[0])
	}
}

func TestRerankTieBreaksBySemanticDensityThenPageNum(t *testing.T) {
	candidates := []store.RetrievalResult{
		{ChunkID: 1, Text: "alpha", Score: 0.5, SemanticDensity: 0.2, PageNumber: 5},
		{ChunkID: 2, Text: "beta", Score: 0.5, SemanticDensity: 0.9, PageNumber: 9},
	}
	scorer := fakeScorer{scores: []float64{0.0, 0.0}}

	out, err := Rerank(context.Background(), scorer, "query", candidates, nil, query.ClassGeneral, DefaultWeights())
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if out[0].ChunkID != 2 {
		t.Fatalf("expected higher semantic_density to win the tie, got %+v", out[0])
	}
}

func TestRerankDegradesOnCancellation(t *testing.T) {
	candidates := []store.RetrievalResult{
		{ChunkID: 1, Score: 0.3},
		{ChunkID: 2, Score: 0.8},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scorer := fakeScorer{err: errors.New("request canceled")}

	out, err := Rerank(ctx, scorer, "query", candidates, nil, query.ClassGeneral, DefaultWeights())
	if err != nil {
		t.Fatalf("expected graceful degradation, got error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected non-empty degraded result, got %+v", out)
	}
	if out[0].ChunkID != 2 {
		t.Fatalf("expected pre-rerank order (higher retriever score first), got %+v", out[0])
	}
}

func TestRerankEmptyCandidatesReturnsNil(t *testing.T) {
	out, err := Rerank(context.Background(), fakeScorer{}, "query", nil, nil, query.ClassGeneral, DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil for empty candidates, got %+v", out)
	}
}

func TestLexicalScorerOverlap(t *testing.T) {
	s := NewLexicalScorer()
	scores, err := s.Score(context.Background(), "fx forward contract", []string{"an fx forward is a contract", "unrelated text entirely"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if scores[0] <= scores[1] {
		t.Fatalf("expected overlapping text to score higher, got %+v", scores)
	}
}
