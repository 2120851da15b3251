// Package rerank implements the C10 reranker: a pluggable cross-encoder
// scorer plus the multi-factor fusion formula that combines it with
// retriever, keyword, and query-type signals (§4.10).
package rerank

import "context"

// Scorer computes a cross-encoder relevance score in [0,1] for a query
// against each of a batch of candidate texts, in the same order.
type Scorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}
