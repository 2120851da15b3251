package retrieval

import (
	"context"
	"fmt"

	"github.com/brunobiangulo/graphrag/embed"
	"github.com/brunobiangulo/graphrag/store"
)

// VectorRetriever embeds the query and runs an ANN search over 2*top_k
// candidates. store.VectorSearchChunks already scores by cosine similarity
// clipped to [0,1] (§4.9).
func VectorRetriever(ctx context.Context, s *store.Store, enc embed.Encoder, query string, topK int, filter *store.Filter) ([]store.RetrievalResult, error) {
	vecs, err := enc.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("vector retriever: embedding query: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("vector retriever: empty query embedding")
	}

	results, err := s.VectorSearchChunks(ctx, vecs[0], 2*topK, filter)
	if err != nil {
		return nil, fmt.Errorf("vector retriever: %w", err)
	}
	return results, nil
}
