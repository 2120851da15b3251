package embed

import (
	"context"
	"math"
	"testing"
)

func TestLocalEncoderIsDeterministic(t *testing.T) {
	e := NewLocalEncoder(0)
	ctx := context.Background()
	a, err := e.Encode(ctx, []string{"foreign exchange forward rate lock"})
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}
	b, err := e.Encode(ctx, []string{"foreign exchange forward rate lock"})
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("expected deterministic output, diverged at %d: %f vs %f", i, a[0][i], b[0][i])
		}
	}
}

func TestLocalEncoderOutputIsBatchIndependent(t *testing.T) {
	e := NewLocalEncoder(0)
	ctx := context.Background()

	alone, err := e.Encode(ctx, []string{"quarterly risk report"})
	if err != nil {
		t.Fatalf("encoding alone: %v", err)
	}
	batched, err := e.Encode(ctx, []string{"unrelated text here", "quarterly risk report"})
	if err != nil {
		t.Fatalf("encoding batched: %v", err)
	}
	for i := range alone[0] {
		if alone[0][i] != batched[1][i] {
			t.Fatalf("expected batch-independent output, diverged at %d", i)
		}
	}
}

func TestLocalEncoderProducesUnitVectors(t *testing.T) {
	e := NewLocalEncoder(8)
	ctx := context.Background()
	vecs, err := e.Encode(ctx, []string{"some text with several distinct words"})
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}
	var sumSq float64
	for _, x := range vecs[0] {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if math.Abs(norm-1.0) > 1e-3 {
		t.Fatalf("expected unit norm, got %f", norm)
	}
}

func TestLocalEncoderDimMatchesConfigured(t *testing.T) {
	e := NewLocalEncoder(16)
	vecs, err := e.Encode(context.Background(), []string{"x"})
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}
	if len(vecs[0]) != 16 {
		t.Fatalf("expected dim 16, got %d", len(vecs[0]))
	}
	if e.Dim() != 16 {
		t.Fatalf("expected Dim() 16, got %d", e.Dim())
	}
}
