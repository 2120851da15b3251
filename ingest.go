package graphrag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/brunobiangulo/graphrag/entity"
	"github.com/brunobiangulo/graphrag/parser"
	"github.com/brunobiangulo/graphrag/store"
)

// maxRetries and retryBackoff implement the §4.6/§4.3 retry policy: the
// embed phase retries at most 3 times with exponential backoff (1s, 2s,
// 4s); extract, entity extraction and write do not retry.
const maxRetries = 3

func retryBackoff(attempt int) time.Duration {
	return (1 << attempt) * time.Second
}

// orchestrator runs the C6 ingestion DAG for one document at a time:
// Extract -> Chunk -> (Embed || ExtractEntities) -> Write -> Validate ->
// MarkValidated. Documents are processed across a bounded worker pool
// (§4.6); a failure at any phase, after retries are exhausted, rolls the
// document back via DeleteDocumentCascade and reports a KindError.
type orchestrator struct {
	e     *engine
	slots chan struct{}
}

func newOrchestrator(e *engine) *orchestrator {
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > 8 {
			workers = 8
		}
		if workers < 1 {
			workers = 1
		}
	}
	return &orchestrator{e: e, slots: make(chan struct{}, workers)}
}

// IngestAll runs Ingest over every path, bounded by the worker pool, and
// returns one UpdateResult per path in input order.
func (o *orchestrator) ingestAll(ctx context.Context, paths []string, opts *ingestOptions) []UpdateResult {
	results := make([]UpdateResult, len(paths))
	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			docID, err := o.ingestOne(ctx, p, opts)
			results[i] = UpdateResult{DocumentID: docID, Path: p, Changed: err == nil, Error: err}
		}(i, p)
	}
	wg.Wait()
	return results
}

// UpdateResult reports the outcome of a single document's ingest/update.
type UpdateResult struct {
	DocumentID int64  `json:"document_id"`
	Path       string `json:"path"`
	Changed    bool   `json:"changed"`
	Error      error  `json:"error,omitempty"`
}

func (o *orchestrator) ingestOne(ctx context.Context, path string, opts *ingestOptions) (int64, error) {
	o.slots <- struct{}{}
	defer func() { <-o.slots }()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("graphrag: resolving path: %w", err)
	}
	hash, err := fileHash(absPath)
	if err != nil {
		return 0, fmt.Errorf("graphrag: hashing file: %w", err)
	}

	if !opts.forceReparse {
		if existing, err := o.e.store.GetDocumentByPath(ctx, absPath); err == nil && existing.ContentHash == hash {
			return existing.ID, nil
		}
	}

	filename := filepath.Base(absPath)
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(absPath), "."))

	docID, err := o.e.store.UpsertDocument(ctx, &store.Document{
		Path:        absPath,
		Filename:    filename,
		ContentHash: hash,
		ParseMethod: "pending",
		Status:      "pending",
		Division:    opts.division,
		Category:    opts.category,
		Product:     opts.product,
	})
	if err != nil {
		return 0, fmt.Errorf("graphrag: upserting document: %w", err)
	}

	parsed, err := o.extract(ctx, docID, format, absPath)
	if err != nil {
		return o.rollback(ctx, docID, "extract", err)
	}

	chunks, err := o.e.chunker.Chunk(parsed.Pages)
	if err != nil {
		return o.rollback(ctx, docID, "chunk", NewKindError(KindInvariantViolation, "chunk", docID, err))
	}
	if len(chunks) == 0 {
		return o.rollback(ctx, docID, "chunk", NewKindError(KindEmptyDocument, "chunk", docID, fmt.Errorf("no chunks produced")))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var embeddings [][]float32
	var candidates [][]entity.Candidate
	var embedErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		embeddings, embedErr = o.embed(ctx, docID, texts)
	}()
	go func() {
		defer wg.Done()
		candidates = o.extractEntities(texts)
	}()
	wg.Wait()
	if embedErr != nil {
		return o.rollback(ctx, docID, "embed", embedErr)
	}

	if err := o.write(ctx, docID, chunks, embeddings, candidates); err != nil {
		return o.rollback(ctx, docID, "write", err)
	}

	if err := o.validate(docID, parsed.TotalPages, chunks); err != nil {
		return o.rollback(ctx, docID, "validate", err)
	}

	if err := o.e.store.UpdateDocumentChunkCount(ctx, docID, len(chunks)); err != nil {
		return o.rollback(ctx, docID, "validate", err)
	}
	if err := o.e.store.UpdateDocumentStatus(ctx, docID, "validated"); err != nil {
		return o.rollback(ctx, docID, "validate", err)
	}

	o.e.markGraphDirty()
	slog.Info("ingest: document validated", "file", filename, "doc_id", docID, "chunks", len(chunks))
	return docID, nil
}

func (o *orchestrator) rollback(ctx context.Context, docID int64, phase string, cause error) (int64, error) {
	if err := o.e.store.DeleteDocumentCascade(ctx, docID); err != nil {
		slog.Error("ingest: rollback failed", "doc_id", docID, "phase", phase, "error", err)
	}
	ke, ok := AsKindError(cause)
	if !ok {
		ke = NewKindError(KindInvariantViolation, phase, docID, cause)
	}
	slog.Warn("ingest: rolled back", "doc_id", docID, "phase", ke.Phase, "kind", ke.Kind)
	return 0, ke
}

// extract runs the parser under the configured extract-phase timeout. Per
// §4.1 the parser never retries internally; the orchestrator does not
// retry extraction either, since a corrupt/unreadable stream will not
// change between attempts.
func (o *orchestrator) extract(ctx context.Context, docID int64, format, path string) (*parser.ParseResult, error) {
	timeout := phaseTimeout(o.e.cfg.IngestPhaseTimeouts.ExtractMS, 600*time.Second)
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p, err := o.e.parsers.Get(format)
	if err != nil {
		return nil, NewKindError(KindUnreadable, "extract", docID, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format))
	}
	parsed, err := p.Parse(cctx, path)
	if err != nil {
		if cctx.Err() != nil {
			return nil, NewKindError(KindTimeoutExceeded, "extract", docID, err)
		}
		return nil, NewKindError(KindUnreadable, "extract", docID, err)
	}
	return parsed, nil
}

// embed batches chunk texts through the encoder under the embed-phase
// timeout, retrying the whole batch on failure per the §4.3 backoff.
func (o *orchestrator) embed(ctx context.Context, docID int64, texts []string) ([][]float32, error) {
	timeout := phaseTimeout(o.e.cfg.IngestPhaseTimeouts.EmbedMS, 300*time.Second)
	var out [][]float32
	err := withRetry(ctx, timeout, func(cctx context.Context) error {
		vecs, err := o.e.encoder.Encode(cctx, texts)
		if err != nil {
			return err
		}
		out = vecs
		return nil
	})
	if err != nil {
		return nil, NewKindError(KindModelUnavailable, "embed", docID, err)
	}
	return out, nil
}

// extractEntities runs the entity extractor per chunk. It is a pure, local
// computation (no model call), so it does not retry or time out.
func (o *orchestrator) extractEntities(texts []string) [][]entity.Candidate {
	out := make([][]entity.Candidate, len(texts))
	for i, t := range texts {
		out[i] = o.e.extractor.Extract(t)
	}
	return out
}

// write persists chunks, embeddings, and entity links inside the transactional
// guarantee of §4.5: a document's full write is atomic from the store's
// perspective (InsertChunks runs in one transaction); embeddings and entity
// links are written immediately after so a failure here still rolls back
// cleanly via DeleteDocumentCascade.
func (o *orchestrator) write(ctx context.Context, docID int64, chunks []*store.Chunk, embeddings [][]float32, candidates [][]entity.Candidate) error {
	timeout := phaseTimeout(o.e.cfg.IngestPhaseTimeouts.WriteMS, 60*time.Second)
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chunkIDs, err := o.e.store.InsertChunks(cctx, docID, chunks)
	if err != nil {
		return NewKindError(KindStoreUnavailable, "write", docID, err)
	}

	for i, vec := range embeddings {
		if err := o.e.store.InsertEmbedding(cctx, chunkIDs[i], vec); err != nil {
			return NewKindError(KindStoreUnavailable, "write", docID, err)
		}
	}

	for i, cands := range candidates {
		for _, c := range cands {
			entityID, err := o.e.store.UpsertEntity(cctx, c.Surface, c.Normalized, c.Type)
			if err != nil {
				return NewKindError(KindStoreUnavailable, "write", docID, err)
			}
			if err := o.e.store.LinkContainsEntity(cctx, entityID, chunkIDs[i], c.Confidence); err != nil {
				return NewKindError(KindStoreUnavailable, "write", docID, err)
			}
		}
	}
	return nil
}

// validate checks the four §4.6 completeness criteria.
func (o *orchestrator) validate(docID int64, totalPages int, chunks []*store.Chunk) error {
	v := o.e.cfg.Validation

	if len(chunks) < 1 {
		return NewKindError(KindValidationFailed, "validate", docID, fmt.Errorf("chunk_count is 0"))
	}
	if totalPages > 0 && float64(len(chunks))/float64(totalPages) < ratioOrDefault(v.MinChunkPageRatio) {
		return NewKindError(KindValidationFailed, "validate", docID, fmt.Errorf("chunk_count/total_pages below threshold"))
	}

	covered := make(map[int]bool, totalPages)
	var totalChars int
	for _, c := range chunks {
		covered[c.PageNum] = true
		totalChars += len(c.Text)
	}
	for page := 1; page <= totalPages; page++ {
		if !covered[page] {
			return NewKindError(KindValidationFailed, "validate", docID, fmt.Errorf("page %d not covered by any chunk", page))
		}
	}

	if totalPages > 0 {
		meanCharsPerPage := float64(totalChars) / float64(totalPages)
		if meanCharsPerPage < charsOrDefault(v.MinCharsPerPage) {
			return NewKindError(KindValidationFailed, "validate", docID, fmt.Errorf("mean chars per page below threshold"))
		}
	}
	return nil
}

func ratioOrDefault(v float64) float64 {
	if v == 0 {
		return 0.2
	}
	return v
}

func charsOrDefault(v float64) float64 {
	if v == 0 {
		return 50
	}
	return v
}

func phaseTimeout(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// withRetry runs fn up to maxRetries+1 times with exponential backoff
// between attempts, giving each attempt its own deadline derived from
// timeout. It stops early if ctx is done.
func withRetry(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		err := fn(cctx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt < maxRetries {
			select {
			case <-time.After(retryBackoff(attempt)):
			case <-ctx.Done():
				return lastErr
			}
		}
	}
	return lastErr
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
