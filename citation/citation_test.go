package citation

import (
	"strings"
	"testing"

	"github.com/brunobiangulo/graphrag/store"
)

func TestAssembleCopiesFields(t *testing.T) {
	results := []store.RetrievalResult{
		{DocumentID: 1, ChunkID: 7, Filename: "policy.pdf", PageNumber: 3, Text: "fx forwards settle T+2", Score: 0.82, SourceTag: "vector"},
	}
	out := Assemble(results, nil, false)
	if len(out) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(out))
	}
	c := out[0]
	if c.DocumentID != 1 || c.ChunkID != 7 || c.DocumentName != "policy.pdf" || c.PageNum != 3 || c.FinalScore != 0.82 {
		t.Fatalf("unexpected citation: %+v", c)
	}
	if len(c.SourceTags) != 1 || c.SourceTags[0] != "vector" {
		t.Fatalf("expected source_tags [vector], got %+v", c.SourceTags)
	}
	if c.Hierarchy != "" {
		t.Fatalf("expected empty hierarchy outside hierarchical mode, got %q", c.Hierarchy)
	}
}

func TestAssembleHierarchicalPath(t *testing.T) {
	results := []store.RetrievalResult{
		{DocumentID: 1, ChunkID: 2, Filename: "rates.pdf", Division: "Treasury", Category: "FX", Product: "Forward"},
	}
	out := Assemble(results, nil, true)
	want := "Treasury > FX > Forward > rates.pdf"
	if out[0].Hierarchy != want {
		t.Fatalf("expected hierarchy %q, got %q", want, out[0].Hierarchy)
	}
}

func TestAssembleHierarchicalDropsEmptySegments(t *testing.T) {
	results := []store.RetrievalResult{
		{DocumentID: 1, ChunkID: 2, Filename: "rates.pdf", Category: "FX"},
	}
	out := Assemble(results, nil, true)
	want := "FX > rates.pdf"
	if out[0].Hierarchy != want {
		t.Fatalf("expected hierarchy %q, got %q", want, out[0].Hierarchy)
	}
}

func TestAssembleEmptyReturnsNil(t *testing.T) {
	if out := Assemble(nil, nil, false); out != nil {
		t.Fatalf("expected nil, got %+v", out)
	}
}

func TestAssembleSnippetHighlightsRelevantSentence(t *testing.T) {
	results := []store.RetrievalResult{
		{ChunkID: 1, Text: "This section covers general onboarding. An fx forward settles on a future date at a pre-agreed rate. It is unrelated to spot trades."},
	}
	out := Assemble(results, []string{"fx", "forward", "settles"}, false)
	if !strings.Contains(out[0].Snippet, "fx forward settles") {
		t.Fatalf("expected snippet to contain the keyword-matching sentence, got %q", out[0].Snippet)
	}
}

func TestAssembleSnippetEmptyWithoutKeywords(t *testing.T) {
	results := []store.RetrievalResult{
		{ChunkID: 1, Text: "An fx forward settles on a future date."},
	}
	out := Assemble(results, nil, false)
	if out[0].Snippet != "" {
		t.Fatalf("expected empty snippet with no keywords, got %q", out[0].Snippet)
	}
}

func TestAssemblePreservesOrder(t *testing.T) {
	results := []store.RetrievalResult{
		{ChunkID: 1, Score: 0.9},
		{ChunkID: 2, Score: 0.5},
	}
	out := Assemble(results, nil, false)
	if out[0].ChunkID != 1 || out[1].ChunkID != 2 {
		t.Fatalf("expected input order preserved, got %+v", out)
	}
}
