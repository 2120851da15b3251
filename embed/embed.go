// Package embed implements the embedder (C3): a deterministic function
// from a batch of chunk texts to a batch of fixed-dimension, L2-normalized
// vectors (§4.3).
package embed

import (
	"context"
	"math"
)

// Dim is the reference embedding dimension (§4.3).
const Dim = 384

// Encoder turns texts into L2-normalized vectors of dimension Dim. Output
// vectors must be independent of batch composition: encoding texts one at
// a time or all together produces the same result for each text.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Dim() int
}

// normalize scales v to unit L2 norm in place. A zero vector is left
// unchanged (cosine similarity against it is conventionally zero).
func normalize(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range v {
		v[i] /= norm
	}
}
