package rerank

import (
	"context"
	"strings"
)

// LexicalScorer is a deterministic cross-encoder fallback: it scores a
// query against a text by token-overlap (Jaccard similarity over
// lowercased word sets), so reranking degrades gracefully to something
// stronger than retriever-score-only when no cross-encoder model is
// configured.
type LexicalScorer struct{}

// NewLexicalScorer creates a LexicalScorer.
func NewLexicalScorer() *LexicalScorer { return &LexicalScorer{} }

func (LexicalScorer) Score(_ context.Context, query string, texts []string) ([]float64, error) {
	queryTokens := tokenSet(query)
	scores := make([]float64, len(texts))
	for i, text := range texts {
		scores[i] = jaccard(queryTokens, tokenSet(text))
	}
	return scores, nil
}

func tokenSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?\"'()[]{}")
		if w != "" {
			out[w] = true
		}
	}
	return out
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return clip01(float64(intersection) / float64(union))
}

func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
