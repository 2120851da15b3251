//go:build cgo

package retrieval

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/brunobiangulo/graphrag/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.New(dbPath, 4)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedDocument(t *testing.T, s *store.Store, chunks []*store.Chunk) int64 {
	t.Helper()
	ctx := context.Background()
	docID, err := s.UpsertDocument(ctx, &store.Document{
		Path:        t.Name(),
		Filename:    "sample.pdf",
		TotalPages:  10,
		Category:    "retail",
		ContentHash: "hash",
		ParseMethod: "native",
		Status:      "pending",
	})
	if err != nil {
		t.Fatalf("upserting document: %v", err)
	}
	if _, err := s.InsertChunks(ctx, docID, chunks); err != nil {
		t.Fatalf("inserting chunks: %v", err)
	}
	return docID
}

func TestKeywordRetrieverScoresByMatchFraction(t *testing.T) {
	s := newTestStore(t)
	seedDocument(t, s, []*store.Chunk{
		{ChunkIndex: 0, PageNum: 1, Text: "the early withdrawal fee is waived after five years", ChunkType: "content", ContentHash: "a"},
		{ChunkIndex: 1, PageNum: 2, Text: "account opening requires two forms of identification", ChunkType: "content", ContentHash: "b"},
	})

	results, err := KeywordRetriever(context.Background(), s, []string{"withdrawal", "fee"}, 10, nil)
	if err != nil {
		t.Fatalf("KeywordRetriever: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one keyword match")
	}
	if results[0].SourceTag != "keyword" {
		t.Fatalf("expected source_tag keyword, got %q", results[0].SourceTag)
	}
	if results[0].Score <= 0 || results[0].Score > 1 {
		t.Fatalf("expected score in (0,1], got %f", results[0].Score)
	}
}

func TestKeywordRetrieverEmptyKeywordsReturnsNil(t *testing.T) {
	s := newTestStore(t)
	results, err := KeywordRetriever(context.Background(), s, nil, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Fatalf("expected nil results for empty keyword list, got %+v", results)
	}
}

func TestBuildFTSQueryQuotesTerms(t *testing.T) {
	q := buildFTSQuery([]string{"fee", "10000"})
	if q != `"fee" OR "10000"` {
		t.Fatalf("unexpected fts query: %q", q)
	}
}
