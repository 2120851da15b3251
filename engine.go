package graphrag

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/brunobiangulo/graphrag/citation"
	"github.com/brunobiangulo/graphrag/chunk"
	"github.com/brunobiangulo/graphrag/community"
	"github.com/brunobiangulo/graphrag/embed"
	"github.com/brunobiangulo/graphrag/entity"
	"github.com/brunobiangulo/graphrag/parser"
	"github.com/brunobiangulo/graphrag/query"
	"github.com/brunobiangulo/graphrag/rerank"
	"github.com/brunobiangulo/graphrag/retrieval"
	"github.com/brunobiangulo/graphrag/store"
)

// Engine is the main entry point: it ingests documents into the property
// graph and serves ranked, cited chunks for a natural-language question.
// It never synthesizes prose answers.
type Engine interface {
	// Ingest parses, chunks, embeds, extracts entities for, and writes a
	// document. Returns the document id. Skips re-ingestion if the file's
	// content hash is unchanged from the stored document.
	Ingest(ctx context.Context, path string, opts ...IngestOption) (int64, error)

	// IngestAll runs Ingest over every path concurrently, bounded by the
	// orchestrator's worker pool (§4.6), and reports one result per path.
	IngestAll(ctx context.Context, paths []string, opts ...IngestOption) []UpdateResult

	// Search runs a question through the query planner, retrievers, and
	// reranker and returns the cited, ranked candidates (§4.8-4.11).
	Search(ctx context.Context, q string, opts ...SearchOption) (*SearchResponse, error)

	// Update re-checks a document by content hash and re-ingests if changed.
	Update(ctx context.Context, path string) (bool, error)

	// Delete removes a document and all its graph state.
	Delete(ctx context.Context, documentID int64) error

	// ListDocuments returns every ingested document.
	ListDocuments(ctx context.Context) ([]*store.Document, error)

	// Store returns the underlying graph store for diagnostic and schema access.
	Store() *store.Store

	// Export serializes every document and its chunks to the §6 backup format.
	Export(ctx context.Context) ([]byte, error)

	// RebuildCommunities runs the community builder immediately (§4.7's
	// explicit-trigger path), instead of waiting for ingestion quiescence.
	RebuildCommunities(ctx context.Context) error

	// Close shuts down the engine and its store.
	Close() error
}

// SearchResponse is the §4.11 citation list plus the envelope the external
// search interface reports alongside it.
type SearchResponse struct {
	Citations                 []citation.Citation `json:"citations"`
	TotalCandidatesConsidered int                 `json:"total_candidates_considered"`
	ElapsedMS                 int64               `json:"elapsed_ms"`
	StrategyActuallyUsed      string              `json:"strategy_actually_used"`
}

// IngestOption configures a single Ingest call.
type IngestOption func(*ingestOptions)

type ingestOptions struct {
	forceReparse bool
	division     string
	category     string
	product      string
}

// WithForceReparse re-ingests even if the content hash is unchanged.
func WithForceReparse() IngestOption {
	return func(o *ingestOptions) { o.forceReparse = true }
}

// WithHierarchy attaches the division/category/product overlay to the
// ingested document (§4.8, §4.11). Independent of community detection.
func WithHierarchy(division, category, product string) IngestOption {
	return func(o *ingestOptions) {
		o.division = division
		o.category = category
		o.product = product
	}
}

// SearchOption configures a single Search call.
type SearchOption func(*searchOptions)

type searchOptions struct {
	opts         query.Options
	strategyHint string
	hierarchical bool
	deadlineMS   int
}

// WithTopK sets the number of citations returned.
func WithTopK(n int) SearchOption {
	return func(o *searchOptions) { o.opts.TopK = n }
}

// WithStrategy pins the query to a single named retriever
// ("keyword"|"vector"|"entity"|"community") instead of the default hybrid
// fan-out.
func WithStrategy(name string) SearchOption {
	return func(o *searchOptions) { o.strategyHint = name }
}

// WithoutRerank disables the cross-encoder reranking stage.
func WithoutRerank() SearchOption {
	return func(o *searchOptions) { o.opts.UseRerank = false }
}

// WithFilter narrows results to the given hierarchical overlay fields; an
// empty string leaves that dimension unfiltered.
func WithFilter(division, category, product string) SearchOption {
	return func(o *searchOptions) {
		o.opts.DivisionFilter = division
		o.opts.CategoryFilter = category
		o.opts.ProductFilter = product
	}
}

// WithHierarchicalCitations includes the division/category/product/document
// path on every returned citation (§4.11).
func WithHierarchicalCitations() SearchOption {
	return func(o *searchOptions) { o.hierarchical = true }
}

// WithDeadline overrides the per-query deadline (§5), in milliseconds,
// instead of falling back to cfg.QueryDeadlineMS. A deadline of 0 makes
// Search return immediately with an empty citation list and
// StrategyActuallyUsed "deadline".
func WithDeadline(ms int) SearchOption {
	return func(o *searchOptions) { o.deadlineMS = ms }
}

// engine is the concrete Engine implementation.
type engine struct {
	cfg       Config
	store     *store.Store
	parsers   *parser.Registry
	chunker   *chunk.Chunker
	extractor *entity.Extractor
	encoder   embed.Encoder
	scorer    rerank.Scorer
	retriever *retrieval.Engine
	community *community.Builder
	orch      *orchestrator

	communityMu        sync.Mutex
	communityDirty     bool
	communityLastWrite time.Time
	stopCommunityLoop  chan struct{}
}

// New opens the store and wires every component per cfg.
func New(cfg Config) (Engine, error) {
	if cfg.EmbeddingDim == 0 {
		cfg.EmbeddingDim = embed.Dim
	}

	s, err := store.New(cfg.resolveDBPath(), cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("graphrag: opening store: %w", err)
	}

	reg := parser.NewRegistry()
	reg.Register("pdf", parser.NewPDFParser(parser.NewTesseractOCR(cfg.OCR.Binary), cfg.OCR.DPI))

	chunker := chunk.New(chunk.Config{
		Target:    cfg.ChunkTargetTokens,
		Overlap:   cfg.ChunkOverlapTokens,
		MaxTokens: cfg.ChunkMaxTokens,
	})

	var encoder embed.Encoder
	if cfg.Embedding.BaseURL != "" {
		encoder = embed.NewHTTPEncoder(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.EmbeddingDim)
	} else {
		encoder = embed.NewLocalEncoder(cfg.EmbeddingDim)
	}

	var scorer rerank.Scorer
	if cfg.Reranker.BaseURL != "" {
		scorer = rerank.NewHTTPScorer(cfg.Reranker.BaseURL, cfg.Reranker.Model)
	} else {
		scorer = rerank.NewLexicalScorer()
	}

	ex := entity.New()
	retriever := retrieval.New(s, encoder, ex)
	builder := community.New(s, community.Config{
		Resolution:              cfg.LouvainResolution,
		MinCooccurrenceStrength: cfg.CooccurrenceMinStrength,
	})

	e := &engine{
		cfg:       cfg,
		store:     s,
		parsers:   reg,
		chunker:   chunker,
		extractor: ex,
		encoder:   encoder,
		scorer:    scorer,
		retriever: retriever,
		community: builder,
	}
	e.orch = newOrchestrator(e)
	e.stopCommunityLoop = make(chan struct{})
	go e.communityDwellLoop()
	return e, nil
}

// communityDwellLoop watches for ingestion quiescence and rebuilds
// communities automatically once the configured dwell has elapsed since
// the last document write (§4.7). It is a no-op until the first ingest
// marks the graph dirty.
func (e *engine) communityDwellLoop() {
	dwell := time.Duration(e.cfg.CommunityDwellSeconds) * time.Second
	if dwell <= 0 {
		dwell = 60 * time.Second
	}
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopCommunityLoop:
			return
		case <-ticker.C:
			e.communityMu.Lock()
			ready := e.communityDirty && time.Since(e.communityLastWrite) >= dwell
			e.communityMu.Unlock()
			if !ready {
				continue
			}
			if err := e.community.Rebuild(context.Background()); err != nil {
				slog.Warn("community: dwell rebuild failed", "error", err)
				continue
			}
			e.communityMu.Lock()
			e.communityDirty = false
			e.communityMu.Unlock()
		}
	}
}

// markGraphDirty records that a document write occurred, resetting the
// dwell window the community builder waits out before rebuilding.
func (e *engine) markGraphDirty() {
	e.communityMu.Lock()
	e.communityDirty = true
	e.communityLastWrite = time.Now()
	e.communityMu.Unlock()
}

// RebuildCommunities runs the community builder immediately.
func (e *engine) RebuildCommunities(ctx context.Context) error {
	if err := e.community.Rebuild(ctx); err != nil {
		return err
	}
	e.communityMu.Lock()
	e.communityDirty = false
	e.communityMu.Unlock()
	return nil
}

// Search implements C8->C9->C10->C11. Each call carries a deadline (§5,
// default cfg.QueryDeadlineMS, overridable with WithDeadline): a deadline of
// 0 short-circuits to an empty result, and a deadline exceeded mid-query
// degrades to whatever partial candidates the retrievers gathered before it
// fired rather than failing the request.
func (e *engine) Search(ctx context.Context, q string, opts ...SearchOption) (*SearchResponse, error) {
	start := time.Now()

	so := &searchOptions{opts: query.DefaultOptions(), deadlineMS: e.cfg.QueryDeadlineMS}
	for _, o := range opts {
		o(so)
	}

	if so.deadlineMS == 0 {
		return &SearchResponse{
			ElapsedMS:            time.Since(start).Milliseconds(),
			StrategyActuallyUsed: "deadline",
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(so.deadlineMS)*time.Millisecond)
	defer cancel()

	plan := query.Build(q, so.strategyHint, so.opts)

	candidates, err := e.retriever.Retrieve(ctx, plan)
	deadlineExceeded := ctx.Err() != nil
	if err != nil {
		if !deadlineExceeded {
			return nil, fmt.Errorf("graphrag: search: %w", err)
		}
		candidates = nil
	}
	totalConsidered := len(candidates)

	if plan.UseRerank && len(candidates) > 0 {
		weights := rerank.Weights{
			CrossEncoder: e.cfg.RerankWeights.CrossEncoder,
			Retriever:    e.cfg.RerankWeights.Retriever,
			Keyword:      e.cfg.RerankWeights.Keyword,
			QueryType:    e.cfg.RerankWeights.QueryType,
		}
		candidates, err = rerank.Rerank(ctx, e.scorer, plan.Query, candidates, plan.Keywords, plan.Class, weights)
		if err != nil {
			if ctx.Err() == nil {
				return nil, fmt.Errorf("graphrag: rerank: %w", err)
			}
			candidates = nil
		}
		deadlineExceeded = deadlineExceeded || ctx.Err() != nil
	}
	if len(candidates) > plan.TopK {
		candidates = candidates[:plan.TopK]
	}

	strategy := "hybrid"
	if len(plan.Retrievers) == 1 {
		strategy = string(plan.Retrievers[0])
	}
	if deadlineExceeded {
		strategy = "deadline"
	}

	return &SearchResponse{
		Citations:                 citation.Assemble(candidates, plan.Keywords, so.hierarchical),
		TotalCandidatesConsidered: totalConsidered,
		ElapsedMS:                 time.Since(start).Milliseconds(),
		StrategyActuallyUsed:      strategy,
	}, nil
}

// Ingest runs the C6 orchestrator DAG for a single document path.
func (e *engine) Ingest(ctx context.Context, path string, opts ...IngestOption) (int64, error) {
	io := &ingestOptions{}
	for _, o := range opts {
		o(io)
	}
	return e.orch.ingestOne(ctx, path, io)
}

// IngestAll runs Ingest over every path concurrently through the bounded
// worker pool.
func (e *engine) IngestAll(ctx context.Context, paths []string, opts ...IngestOption) []UpdateResult {
	io := &ingestOptions{}
	for _, o := range opts {
		o(io)
	}
	return e.orch.ingestAll(ctx, paths, io)
}

// Update re-checks a document's content hash and re-ingests on change.
func (e *engine) Update(ctx context.Context, path string) (bool, error) {
	doc, err := e.store.GetDocumentByPath(ctx, path)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
	}
	hash, err := fileHash(path)
	if err != nil {
		return false, fmt.Errorf("hashing file: %w", err)
	}
	if hash == doc.ContentHash {
		return false, nil
	}
	if _, err := e.Ingest(ctx, path, WithForceReparse()); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a document and its graph state.
func (e *engine) Delete(ctx context.Context, documentID int64) error {
	return e.store.DeleteDocumentCascade(ctx, documentID)
}

// ListDocuments returns every ingested document.
func (e *engine) ListDocuments(ctx context.Context) ([]*store.Document, error) {
	return e.store.ListDocuments(ctx)
}

// Store exposes the underlying graph store.
func (e *engine) Store() *store.Store { return e.store }

// Close stops the community dwell loop and shuts down the store.
func (e *engine) Close() error {
	close(e.stopCommunityLoop)
	return e.store.Close()
}

// exportDocument is the §6 persisted-state JSON shape for one document.
type exportDocument struct {
	Document *store.Document `json:"document"`
	Chunks   []*store.Chunk  `json:"chunks"`
}

// Export serializes every document and its chunks to the §6 JSON format.
func (e *engine) Export(ctx context.Context) ([]byte, error) {
	docs, err := e.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]exportDocument, 0, len(docs))
	for _, d := range docs {
		chunks, err := e.store.GetChunksByDocument(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, exportDocument{Document: d, Chunks: chunks})
	}
	return json.Marshal(out)
}
