package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brunobiangulo/graphrag/embed"
	"github.com/brunobiangulo/graphrag/entity"
	"github.com/brunobiangulo/graphrag/query"
	"github.com/brunobiangulo/graphrag/store"
)

// Pre-rerank fusion weights for the hybrid retriever (§4.9).
const (
	weightVector  = 0.5
	weightEntity  = 0.3
	weightKeyword = 0.2
)

// Engine runs a query.Plan's named retrievers and fuses their candidates.
type Engine struct {
	store     *store.Store
	encoder   embed.Encoder
	extractor *entity.Extractor
}

// New creates a retrieval Engine.
func New(s *store.Store, enc embed.Encoder, ex *entity.Extractor) *Engine {
	return &Engine{store: s, encoder: enc, extractor: ex}
}

// namedResult carries one retriever's outcome back across its channel.
type namedResult struct {
	tag     query.Retriever
	results []store.RetrievalResult
	err     error
}

// Retrieve runs every retriever a plan names concurrently (matching each
// retriever's own I/O-bound shape: store calls and, for vector search, an
// embedding call) and fuses their candidates. A single failing retriever
// degrades to an empty result set rather than failing the whole query;
// Retrieve only errors when every retriever fails.
func (e *Engine) Retrieve(ctx context.Context, plan *query.Plan) ([]store.RetrievalResult, error) {
	filter := &store.Filter{Division: plan.DivisionFilter, Category: plan.CategoryFilter, Product: plan.ProductFilter}

	if len(plan.Retrievers) == 1 {
		results, err := e.runOne(ctx, plan, plan.Retrievers[0], filter)
		if err != nil {
			return nil, fmt.Errorf("retrieval: %w", err)
		}
		return results, nil
	}

	chans := make([]chan namedResult, 0, len(plan.Retrievers))
	for _, r := range plan.Retrievers {
		ch := make(chan namedResult, 1)
		chans = append(chans, ch)
		go func(r query.Retriever, ch chan namedResult) {
			results, err := e.runOne(ctx, plan, r, filter)
			ch <- namedResult{tag: r, results: results, err: err}
		}(r, ch)
	}

	var vec, ent, kw, community []store.RetrievalResult
	succeeded := 0
	for _, ch := range chans {
		n := <-ch
		if n.err != nil {
			slog.Warn("retrieval: retriever failed", "retriever", n.tag, "error", n.err)
			continue
		}
		succeeded++
		switch n.tag {
		case query.RetrieverVector:
			vec = n.results
		case query.RetrieverEntity:
			ent = n.results
		case query.RetrieverKeyword:
			kw = n.results
		case query.RetrieverCommunity:
			community = n.results
		}
	}
	if succeeded == 0 {
		return nil, fmt.Errorf("retrieval: all retrievers failed")
	}

	fused := fuseWeighted(vec, ent, kw, weightVector, weightEntity, weightKeyword, plan.Budget)
	return mergeByChunkID(fused, community, plan.Budget), nil
}

func (e *Engine) runOne(ctx context.Context, plan *query.Plan, r query.Retriever, filter *store.Filter) ([]store.RetrievalResult, error) {
	switch r {
	case query.RetrieverKeyword:
		return KeywordRetriever(ctx, e.store, plan.Keywords, plan.Budget, filter)
	case query.RetrieverVector:
		return VectorRetriever(ctx, e.store, e.encoder, plan.Query, plan.TopK, filter)
	case query.RetrieverEntity:
		return EntityRetriever(ctx, e.store, e.extractor, plan.Query, plan.Budget, filter)
	case query.RetrieverCommunity:
		return CommunityRetriever(ctx, e.store, e.extractor, plan.Query, plan.TopK, filter)
	default:
		return nil, fmt.Errorf("unknown retriever %q", r)
	}
}
