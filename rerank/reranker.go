package rerank

import (
	"context"
	"sort"
	"strings"

	"github.com/brunobiangulo/graphrag/query"
	"github.com/brunobiangulo/graphrag/store"
)

// Weights are the coefficients of the §4.10 final_score formula.
type Weights struct {
	CrossEncoder float64
	Retriever    float64
	Keyword      float64
	QueryType    float64
}

// DefaultWeights returns the §4.10 reference coefficients.
func DefaultWeights() Weights {
	return Weights{CrossEncoder: 0.5, Retriever: 0.3, Keyword: 0.1, QueryType: 0.1}
}

// zero reports whether w was never set, so Rerank can fall back to
// DefaultWeights() instead of scoring every candidate to 0.
func (w Weights) zero() bool {
	return w == Weights{}
}

// classChunkType maps a query classification to the chunk_type it favors
// for the query_type_match term (§4.10). Classes with no direct chunk_type
// correspondent (fee, limit, requirement, process, general) never earn
// the bonus — "content" is the catch-all chunk_type, not a class signal.
var classChunkType = map[query.Class]string{
	query.ClassDefinition: "definition",
}

// Rerank scores a candidate set with the cross-encoder and combines it
// with the pre-rerank retriever score, keyword overlap, and query-type
// match per §4.10's weighted formula:
//
//	final_score = 0.5*cross_encoder + 0.3*retriever_score + 0.1*keyword_match + 0.1*query_type_match
//
// Ties are broken by higher semantic_density, then lower page_num. If ctx
// is canceled while the cross-encoder is scoring, Rerank degrades to the
// pre-rerank ordering instead of returning nothing (§4.10 cancellation
// rule: never return an empty list when non-empty candidates exist).
func Rerank(ctx context.Context, scorer Scorer, q string, candidates []store.RetrievalResult, keywords []string, class query.Class, weights Weights) ([]store.RetrievalResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if weights.zero() {
		weights = DefaultWeights()
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	crossScores, err := scorer.Score(ctx, q, texts)
	if err != nil {
		if ctx.Err() != nil {
			return degradeToPreRerankOrder(candidates), nil
		}
		return nil, err
	}

	wantType := classChunkType[class]
	keywordSet := setOf(keywords)

	out := make([]store.RetrievalResult, len(candidates))
	for i, c := range candidates {
		keywordMatch := jaccard(keywordSet, tokenSet(c.Text))
		queryTypeMatch := 0.0
		if wantType != "" && c.ChunkType == wantType {
			queryTypeMatch = 1.0
		}

		final := weights.CrossEncoder*clip01(crossScores[i]) +
			weights.Retriever*clip01(c.Score) +
			weights.Keyword*keywordMatch +
			weights.QueryType*queryTypeMatch

		out[i] = c
		out[i].Score = clip01(final)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].SemanticDensity != out[j].SemanticDensity {
			return out[i].SemanticDensity > out[j].SemanticDensity
		}
		return out[i].PageNumber < out[j].PageNumber
	})
	return out, nil
}

func degradeToPreRerankOrder(candidates []store.RetrievalResult) []store.RetrievalResult {
	out := make([]store.RetrievalResult, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func setOf(words []string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[strings.ToLower(w)] = true
	}
	return out
}
