package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/brunobiangulo/graphrag"
	"github.com/brunobiangulo/graphrag/store"
)

type handler struct {
	engine graphrag.Engine
}

func newHandler(e graphrag.Engine) *handler {
	return &handler{engine: e}
}

// POST /ingest
// Accepts multipart file upload or JSON with file path.
func (h *handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	// Try multipart upload first
	if err := r.ParseMultipartForm(100 << 20); err == nil { // 100MB max
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()

			// Sanitise filename to prevent path traversal.
			safeName := filepath.Base(header.Filename)

			tmpDir := os.TempDir()
			tmpPath := filepath.Join(tmpDir, safeName)
			dst, err := os.Create(tmpPath)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to process file")
				slog.Error("creating temp file", "error", err)
				return
			}
			if _, err := io.Copy(dst, file); err != nil {
				dst.Close()
				writeError(w, http.StatusInternalServerError, "failed to save file")
				slog.Error("saving uploaded file", "error", err)
				return
			}
			dst.Close()
			defer os.Remove(tmpPath)

			docID, err := h.engine.Ingest(ctx, tmpPath, ingestOptionsFromForm(r)...)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "ingestion failed")
				slog.Error("ingest error", "error", err)
				return
			}

			writeJSON(w, http.StatusOK, map[string]interface{}{
				"document_id": docID,
				"filename":    safeName,
			})
			return
		}
	}

	// Try JSON body with path
	var req struct {
		Path     string `json:"path"`
		Force    bool   `json:"force,omitempty"`
		Division string `json:"division,omitempty"`
		Category string `json:"category,omitempty"`
		Product  string `json:"product,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: expected multipart file or JSON with 'path'")
		return
	}

	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	// Validate that path is a real file (prevents directory traversal probing).
	absPath, err := filepath.Abs(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusBadRequest, "path must be an existing file")
		return
	}

	var opts []graphrag.IngestOption
	if req.Force {
		opts = append(opts, graphrag.WithForceReparse())
	}
	if req.Division != "" || req.Category != "" || req.Product != "" {
		opts = append(opts, graphrag.WithHierarchy(req.Division, req.Category, req.Product))
	}

	docID, err := h.engine.Ingest(ctx, absPath, opts...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		slog.Error("ingest error", "path", absPath, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": docID,
		"path":        absPath,
	})
}

func ingestOptionsFromForm(r *http.Request) []graphrag.IngestOption {
	var opts []graphrag.IngestOption
	if r.FormValue("force") != "" {
		opts = append(opts, graphrag.WithForceReparse())
	}
	division, category, product := r.FormValue("division"), r.FormValue("category"), r.FormValue("product")
	if division != "" || category != "" || product != "" {
		opts = append(opts, graphrag.WithHierarchy(division, category, product))
	}
	return opts
}

// POST /search
func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		Query          string `json:"query"`
		TopK           int    `json:"top_k,omitempty"`
		UseVector      *bool  `json:"use_vector,omitempty"`
		UseRerank      *bool  `json:"use_rerank,omitempty"`
		Strategy       string `json:"strategy,omitempty"`
		DivisionFilter string `json:"division_filter,omitempty"`
		CategoryFilter string `json:"category_filter,omitempty"`
		ProductFilter  string `json:"product_filter,omitempty"`
		Hierarchical   bool   `json:"hierarchical,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	// Bound parameters.
	if req.TopK < 0 || req.TopK > 100 {
		req.TopK = 0 // use default
	}

	var opts []graphrag.SearchOption
	if req.TopK > 0 {
		opts = append(opts, graphrag.WithTopK(req.TopK))
	}
	if req.Strategy != "" {
		opts = append(opts, graphrag.WithStrategy(req.Strategy))
	}
	if req.UseRerank != nil && !*req.UseRerank {
		opts = append(opts, graphrag.WithoutRerank())
	}
	if req.DivisionFilter != "" || req.CategoryFilter != "" || req.ProductFilter != "" {
		opts = append(opts, graphrag.WithFilter(req.DivisionFilter, req.CategoryFilter, req.ProductFilter))
	}
	if req.Hierarchical {
		opts = append(opts, graphrag.WithHierarchicalCitations())
	}

	resp, err := h.engine.Search(ctx, req.Query, opts...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		slog.Error("search error", "query", req.Query, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /update
func (h *handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	changed, err := h.engine.Update(ctx, req.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "update failed")
		slog.Error("update error", "path", req.Path, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"path":    req.Path,
		"changed": changed,
	})
}

// POST /update-all re-checks every ingested document's content hash and
// re-ingests the ones that changed. It runs one Update per document
// concurrently with no concurrency limit of its own; Update calls that
// re-ingest still pass through the orchestrator's worker pool.
func (h *handler) handleUpdateAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	docs, err := h.engine.ListDocuments(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "update-all failed")
		slog.Error("update-all: listing documents", "error", err)
		return
	}

	type result struct {
		Path    string `json:"path"`
		Changed bool   `json:"changed"`
		Error   string `json:"error,omitempty"`
	}
	results := make([]result, len(docs))
	var wg sync.WaitGroup
	for i, d := range docs {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			changed, err := h.engine.Update(ctx, path)
			results[i] = result{Path: path, Changed: changed}
			if err != nil {
				results[i].Error = err.Error()
			}
		}(i, d.Path)
	}
	wg.Wait()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// DELETE /documents/{id}
func (h *handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := h.engine.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		slog.Error("delete error", "document_id", id, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /documents
func (h *handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.engine.ListDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		slog.Error("list documents error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
	})
}

// GET /schema reports node/relationship counts and indexes, for inspecting
// the property graph's current shape without a query client.
func (h *handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.Store().SchemaSummary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to summarize schema")
		slog.Error("schema error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// graphResponse is the raw pass-through shape for POST /graph: every
// entity, its relationships, and the communities they fall into. No
// ranking or citation assembly happens here.
type graphResponse struct {
	Entities      []*store.Entity       `json:"entities"`
	Relationships []*store.Relationship `json:"relationships"`
	Communities   []*store.Community    `json:"communities"`
}

// POST /graph is the raw graph pass-through (§6): it bypasses retrieval
// and reranking entirely and exposes the property graph directly, for
// callers building their own visualization or analysis on top of it.
func (h *handler) handleGraph(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := h.engine.Store()

	entities, err := st.AllEntities(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load entities")
		slog.Error("graph error", "error", err)
		return
	}
	relationships, err := st.AllRelationships(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load relationships")
		slog.Error("graph error", "error", err)
		return
	}
	communities, err := st.GetCommunities(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load communities")
		slog.Error("graph error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, graphResponse{
		Entities:      entities,
		Relationships: relationships,
		Communities:   communities,
	})
}

// GET /export streams the §6 persisted-state JSON backup: every document
// and its chunks.
func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.engine.Export(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		slog.Error("export error", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="graphrag-export.json"`)
	w.Write(data)
}

// POST /communities/rebuild triggers the community builder immediately
// instead of waiting for ingestion quiescence (§4.7's explicit-trigger path).
func (h *handler) handleRebuildCommunities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	if err := h.engine.RebuildCommunities(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "community rebuild failed")
		slog.Error("community rebuild error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf("%s", msg)})
}
