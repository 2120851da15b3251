//go:build cgo

package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath, 4) // dim=4 for test vectors
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew(t *testing.T) {
	s := newTestStore(t)
	if s.EmbeddingDim() != 4 {
		t.Fatalf("expected embedding dim 4, got %d", s.EmbeddingDim())
	}
	if s.DB() == nil {
		t.Fatal("expected non-nil *sql.DB")
	}
}

func TestNewCreatesParentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub", "dir")
	dbPath := filepath.Join(dir, "test.db")
	s, err := New(dbPath, 4)
	if err != nil {
		t.Fatalf("creating store in nested dir: %v", err)
	}
	s.Close()
}

func sampleDoc(path string) *Document {
	return &Document{
		Path:        path,
		Filename:    "test.pdf",
		TotalPages:  10,
		Category:    "general",
		ContentHash: "abc123",
		ParseMethod: "native",
		Status:      "pending",
	}
}

func TestUpsertAndGetDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := sampleDoc("/tmp/test.pdf")
	id, err := s.UpsertDocument(ctx, doc)
	if err != nil {
		t.Fatalf("upserting document: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero document id")
	}

	got, err := s.GetDocument(ctx, id)
	if err != nil {
		t.Fatalf("getting document by id: %v", err)
	}
	if got.Path != doc.Path || got.Status != "pending" {
		t.Fatalf("unexpected document: %+v", got)
	}

	// Re-upsert same path updates in place, does not duplicate.
	doc.Status = "ingested"
	id2, err := s.UpsertDocument(ctx, doc)
	if err != nil {
		t.Fatalf("re-upserting document: %v", err)
	}
	if id2 != id {
		t.Fatalf("expected same id on re-upsert, got %d vs %d", id2, id)
	}

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("listing documents: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document after re-upsert, got %d", len(docs))
	}
	if docs[0].Status != "ingested" {
		t.Fatalf("expected status updated to ingested, got %s", docs[0].Status)
	}
}

func TestDeleteDocumentCascadeLeavesNoResidue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docID, err := s.UpsertDocument(ctx, sampleDoc("/tmp/rollback.pdf"))
	if err != nil {
		t.Fatalf("upserting document: %v", err)
	}

	ids, err := s.InsertChunks(ctx, docID, []*Chunk{
		{ChunkIndex: 0, Text: "first chunk", PageNum: 1, ChunkType: "content", ContentHash: "h0"},
		{ChunkIndex: 1, Text: "second chunk", PageNum: 1, ChunkType: "content", ContentHash: "h1"},
	})
	if err != nil {
		t.Fatalf("inserting chunks: %v", err)
	}
	if err := s.InsertEmbedding(ctx, ids[0], []float32{1, 0, 0, 0}); err != nil {
		t.Fatalf("inserting embedding: %v", err)
	}

	entID, err := s.UpsertEntity(ctx, "FX Forward", "fx_forward", "PRODUCT")
	if err != nil {
		t.Fatalf("upserting entity: %v", err)
	}
	if err := s.LinkContainsEntity(ctx, entID, ids[0], 0.9); err != nil {
		t.Fatalf("linking entity: %v", err)
	}

	if err := s.DeleteDocumentCascade(ctx, docID); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}

	if _, err := s.GetDocument(ctx, docID); err == nil {
		t.Fatal("expected document to be gone after cascade delete")
	}
	chunks, err := s.GetChunksByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("getting chunks: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks after cascade delete, got %d", len(chunks))
	}

	entities, err := s.AllEntities(ctx)
	if err != nil {
		t.Fatalf("listing entities: %v", err)
	}
	if len(entities) != 1 || entities[0].Occurrences != 0 {
		t.Fatalf("expected entity to persist with occurrences decremented to 0, got %+v", entities)
	}
}

func TestInsertChunksWiresNextChunkChain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docID, _ := s.UpsertDocument(ctx, sampleDoc("/tmp/chain.pdf"))
	ids, err := s.InsertChunks(ctx, docID, []*Chunk{
		{ChunkIndex: 0, Text: "a", PageNum: 1, ChunkType: "content", ContentHash: "h0"},
		{ChunkIndex: 1, Text: "b", PageNum: 1, ChunkType: "content", ContentHash: "h1"},
		{ChunkIndex: 2, Text: "c", PageNum: 2, ChunkType: "content", ContentHash: "h2"},
	})
	if err != nil {
		t.Fatalf("inserting chunks: %v", err)
	}

	chunks, err := s.GetChunksByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("getting chunks: %v", err)
	}
	for i := 0; i < len(chunks)-1; i++ {
		if chunks[i].NextChunkID == nil || *chunks[i].NextChunkID != ids[i+1] {
			t.Fatalf("chunk %d: expected next_chunk_id %d, got %v", i, ids[i+1], chunks[i].NextChunkID)
		}
	}
	if chunks[len(chunks)-1].NextChunkID != nil {
		t.Fatal("expected last chunk to have nil next_chunk_id")
	}
}

func TestUpsertEntityIncrementsOccurrences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	aliases := []string{"FX Forward", "Foreign Exchange Forward", "Currency Forward Contract"}
	var id int64
	for _, surface := range aliases {
		var err error
		id, err = s.UpsertEntity(ctx, surface, "fx_forward", "PRODUCT")
		if err != nil {
			t.Fatalf("upserting entity %q: %v", surface, err)
		}
	}

	entities, err := s.AllEntities(ctx)
	if err != nil {
		t.Fatalf("listing entities: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected exactly one entity node for canonical fx_forward, got %d", len(entities))
	}
	if entities[0].ID != id || entities[0].Occurrences != 3 {
		t.Fatalf("expected occurrences=3, got %+v", entities[0])
	}
}

func TestVectorSearchOrdersByCosineSimilarity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docID, _ := s.UpsertDocument(ctx, sampleDoc("/tmp/vec.pdf"))
	ids, err := s.InsertChunks(ctx, docID, []*Chunk{
		{ChunkIndex: 0, Text: "close match", PageNum: 1, ChunkType: "content", ContentHash: "h0"},
		{ChunkIndex: 1, Text: "far match", PageNum: 1, ChunkType: "content", ContentHash: "h1"},
	})
	if err != nil {
		t.Fatalf("inserting chunks: %v", err)
	}
	if err := s.InsertEmbedding(ctx, ids[0], []float32{1, 0, 0, 0}); err != nil {
		t.Fatalf("inserting embedding 0: %v", err)
	}
	if err := s.InsertEmbedding(ctx, ids[1], []float32{0, 1, 0, 0}); err != nil {
		t.Fatalf("inserting embedding 1: %v", err)
	}

	results, err := s.VectorSearchChunks(ctx, []float32{1, 0, 0, 0}, 2, nil)
	if err != nil {
		t.Fatalf("vector search: %v", err)
	}
	if len(results) != 2 || results[0].ChunkID != ids[0] {
		t.Fatalf("expected closest chunk first, got %+v", results)
	}
}

func TestInsertEmbeddingRejectsWrongDimension(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	docID, _ := s.UpsertDocument(ctx, sampleDoc("/tmp/dim.pdf"))
	ids, _ := s.InsertChunks(ctx, docID, []*Chunk{{ChunkIndex: 0, Text: "x", PageNum: 1, ChunkType: "content", ContentHash: "h0"}})

	if err := s.InsertEmbedding(ctx, ids[0], []float32{1, 2, 3}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestSchemaSummaryCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	docID, _ := s.UpsertDocument(ctx, sampleDoc("/tmp/schema.pdf"))
	if _, err := s.InsertChunks(ctx, docID, []*Chunk{{ChunkIndex: 0, Text: "x", PageNum: 1, ChunkType: "content", ContentHash: "h0"}}); err != nil {
		t.Fatalf("inserting chunk: %v", err)
	}

	summary, err := s.SchemaSummary(ctx)
	if err != nil {
		t.Fatalf("schema summary: %v", err)
	}
	if summary.NodeCounts["Document"] != 1 || summary.NodeCounts["Chunk"] != 1 {
		t.Fatalf("unexpected node counts: %+v", summary.NodeCounts)
	}
	if summary.RelationshipCounts["HAS_CHUNK"] != 1 {
		t.Fatalf("unexpected relationship counts: %+v", summary.RelationshipCounts)
	}
}
