// Package citation assembles final ranked chunks into citation records
// (C11). It reads no prose and synthesizes no answer text: every field on
// a Citation is copied or derived directly from a store.RetrievalResult.
package citation

import "github.com/brunobiangulo/graphrag/store"

// Citation is the §4.11 output shape for one ranked chunk. Hierarchy is
// populated only when Assemble is called in hierarchical mode.
type Citation struct {
	DocumentID   int64    `json:"document_id"`
	DocumentName string   `json:"document_name"`
	PageNum      int      `json:"page_num"`
	ChunkID      int64    `json:"chunk_id"`
	Text         string   `json:"text"`
	FinalScore   float64  `json:"final_score"`
	SourceTags   []string `json:"source_tags"`
	Hierarchy    string   `json:"hierarchy,omitempty"`
	Snippet      string   `json:"snippet,omitempty"`
}

// Assemble converts ranked results into citations in order. When
// hierarchical is true each citation's Hierarchy field is set to
// "division > category > product > document" (§4.11), with empty segments
// dropped rather than rendered as bare separators. keywords, when
// non-empty, populates Snippet with the one or two sentences of Text most
// relevant to those keywords, for display without forcing a reader through the full
// chunk.
func Assemble(results []store.RetrievalResult, keywords []string, hierarchical bool) []Citation {
	if len(results) == 0 {
		return nil
	}
	out := make([]Citation, len(results))
	for i, r := range results {
		c := Citation{
			DocumentID:   r.DocumentID,
			DocumentName: r.Filename,
			PageNum:      r.PageNumber,
			ChunkID:      r.ChunkID,
			Text:         r.Text,
			FinalScore:   r.Score,
			SourceTags:   sourceTags(r),
			Snippet:      extractSnippet(r.Text, keywords),
		}
		if hierarchical {
			c.Hierarchy = hierarchyPath(r)
		}
		out[i] = c
	}
	return out
}

// sourceTags returns a result's source tag as a one-element list, or nil
// when it is empty. A hybrid result carries a single "hybrid" tag rather than
// the individual retrievers that fed it, since fusion collapses per-source
// scores into one before rerank; everything else carries its one tag.
func sourceTags(r store.RetrievalResult) []string {
	if r.SourceTag == "" {
		return nil
	}
	return []string{r.SourceTag}
}

func hierarchyPath(r store.RetrievalResult) string {
	segments := make([]string, 0, 4)
	for _, s := range []string{r.Division, r.Category, r.Product, r.Filename} {
		if s != "" {
			segments = append(segments, s)
		}
	}
	path := ""
	for i, s := range segments {
		if i > 0 {
			path += " > "
		}
		path += s
	}
	return path
}
