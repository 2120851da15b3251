package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/brunobiangulo/graphrag/store"
)

// buildFTSQuery turns the planner's extracted keywords into an FTS5 OR
// query, quoting each term so a keyword can never be read as FTS5 syntax.
func buildFTSQuery(keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = `"` + strings.ReplaceAll(k, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

// KeywordRetriever ORs the planner's extracted keywords against the
// full-text index. score = (matched keywords / total keywords), with a
// small bonus when two or more keywords appear near each other in the
// chunk text (§4.9).
func KeywordRetriever(ctx context.Context, s *store.Store, keywords []string, budget int, filter *store.Filter) ([]store.RetrievalResult, error) {
	ftsQuery := buildFTSQuery(keywords)
	if ftsQuery == "" {
		return nil, nil
	}

	results, err := s.KeywordSearchChunks(ctx, ftsQuery, budget, filter)
	if err != nil {
		return nil, fmt.Errorf("keyword retriever: %w", err)
	}

	total := float64(len(keywords))
	for i := range results {
		lower := strings.ToLower(results[i].Text)
		matched := 0
		for _, k := range keywords {
			if strings.Contains(lower, strings.ToLower(k)) {
				matched++
			}
		}
		score := float64(matched) / total
		if phraseAdjacent(lower, keywords) {
			score += 0.05
		}
		results[i].Score = clip01(score)
		results[i].SourceTag = "keyword"
	}
	return results, nil
}
