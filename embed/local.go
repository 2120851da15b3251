package embed

import (
	"context"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// LocalEncoder is a deterministic, dependency-free-at-runtime fallback for
// environments without an embedding endpoint: it projects word unigrams and
// bigrams into a fixed-dimension vector via the hashing trick, then
// L2-normalizes. It is not semantically competitive with a trained model,
// but it is stable, offline, and satisfies the encode(texts) -> vectors
// contract so retrieval keeps working when ModelUnavailable would
// otherwise be fatal.
type LocalEncoder struct {
	dim int
}

// NewLocalEncoder returns a LocalEncoder projecting into dim dimensions
// (Dim if zero).
func NewLocalEncoder(dim int) *LocalEncoder {
	if dim == 0 {
		dim = Dim
	}
	return &LocalEncoder{dim: dim}
}

func (e *LocalEncoder) Dim() int { return e.dim }

func (e *LocalEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		out[i] = e.encodeOne(t)
	}
	return out, nil
}

func (e *LocalEncoder) encodeOne(text string) []float32 {
	v := make([]float32, e.dim)
	words := strings.Fields(strings.ToLower(text))
	for _, w := range words {
		e.hashInto(v, w, 1.0)
	}
	for i := 0; i+1 < len(words); i++ {
		bigram := words[i] + "_" + words[i+1]
		e.hashInto(v, bigram, 0.5)
	}
	normalize(v)
	return v
}

func (e *LocalEncoder) hashInto(v []float32, token string, weight float32) {
	h := xxhash.Sum64String(token)
	idx := int(h % uint64(e.dim))
	sign := float32(1)
	if (h>>1)&1 == 1 {
		sign = -1
	}
	v[idx] += sign * weight
}
