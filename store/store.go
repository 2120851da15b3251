// Package store implements the graph store (C5): typed node/edge
// persistence over SQLite, with sqlite-vec for approximate nearest-neighbor
// vector search and FTS5 for lexical search.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// Document represents a row in the documents table.
type Document struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	TotalPages  int    `json:"total_pages"`
	Category    string `json:"category"`
	Division    string `json:"division"`
	Product     string `json:"product"`
	ChunkCount  int    `json:"chunk_count"`
	ContentHash string `json:"content_hash"`
	ParseMethod string `json:"parse_method"`
	Status      string `json:"status"`
	Metadata    string `json:"metadata,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Chunk represents a row in the chunks table.
type Chunk struct {
	ID              int64   `json:"id"`
	DocumentID      int64   `json:"document_id"`
	ChunkIndex      int     `json:"chunk_index"`
	NextChunkID     *int64  `json:"next_chunk_id,omitempty"`
	Text            string  `json:"text"`
	PageNum         int     `json:"page_num"`
	ChunkType       string  `json:"chunk_type"`
	HasDefinitions  bool    `json:"has_definitions"`
	HasExamples     bool    `json:"has_examples"`
	SemanticDensity float64 `json:"semantic_density"`
	ContentHash     string  `json:"content_hash"`
	Embedding       []float32 `json:"-"`
}

// Entity represents a row in the entities table.
type Entity struct {
	ID                    int64   `json:"id"`
	Text                  string  `json:"text"`
	Normalized            string  `json:"normalized"`
	Type                  string  `json:"type"`
	FirstSeen             string  `json:"first_seen"`
	Occurrences           int     `json:"occurrences"`
	CommunityID           *int64  `json:"community_id,omitempty"`
	DegreeCentrality      float64 `json:"degree_centrality"`
	BetweennessCentrality float64 `json:"betweenness_centrality"`
	IsBridge              bool    `json:"is_bridge"`
	ConnectedCommunities  int     `json:"connected_communities"`
}

// Relationship represents a RELATED_TO edge between two entities.
type Relationship struct {
	ID         int64 `json:"id"`
	EntityAID  int64 `json:"entity_a_id"`
	EntityBID  int64 `json:"entity_b_id"`
	Strength   int   `json:"strength"`
}

// Community represents a row in the communities table.
type Community struct {
	ID   int64 `json:"id"`
	Size int   `json:"size"`
}

// RetrievalResult holds a chunk with its retrieval score and document info,
// the shape every retriever in package retrieval normalizes its output to.
type RetrievalResult struct {
	ChunkID         int64   `json:"chunk_id"`
	DocumentID      int64   `json:"document_id"`
	Text            string  `json:"text"`
	ChunkType       string  `json:"chunk_type"`
	PageNumber      int     `json:"page_number"`
	Filename        string  `json:"filename"`
	Category        string  `json:"category"`
	Division        string  `json:"division"`
	Product         string  `json:"product"`
	SemanticDensity float64 `json:"semantic_density"`
	Score           float64 `json:"score"`
	SourceTag       string  `json:"source_tag"`
}

// SchemaSummary answers the §6 schema endpoint.
type SchemaSummary struct {
	NodeCounts         map[string]int64 `json:"node_counts"`
	RelationshipCounts map[string]int64 `json:"relationship_counts"`
	Indexes            []string         `json:"indexes"`
}

// Filter narrows a search by the hierarchical division/category/product
// overlay (§4.8: filters are ANDed with retriever predicates, independent
// of the community-detection overlay).
type Filter struct {
	Division string
	Category string
	Product  string
}

// Store wraps the SQLite database for all graph persistence.
type Store struct {
	db           *sql.DB
	embeddingDim int
}

// New opens (or creates) a SQLite database at the given path and
// initializes the schema including sqlite-vec and FTS5 virtual tables.
func New(dbPath string, embeddingDim int) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL(embeddingDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, embeddingDim: embeddingDim}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EmbeddingDim returns the fixed vector dimension D this store was opened with.
func (s *Store) EmbeddingDim() int { return s.embeddingDim }

// DB exposes the underlying *sql.DB for the rare caller (export/import,
// diagnostics) that needs a raw connection.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func repeatPlaceholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = "?"
	}
	return strings.Join(ph, ",")
}

// serializeFloat32 encodes a vector the way sqlite-vec's vec0 expects:
// little-endian packed float32 bytes.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// FileHash computes the content hash used for idempotent re-ingestion.
func FileHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ---------------------------------------------------------------------
// Document operations
// ---------------------------------------------------------------------

// UpsertDocument inserts or updates a document keyed on its unique path.
func (s *Store) UpsertDocument(ctx context.Context, d *Document) (int64, error) {
	meta := d.Metadata
	if meta == "" {
		meta = "{}"
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, filename, total_pages, category, division, product, content_hash, parse_method, status, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			filename=excluded.filename, total_pages=excluded.total_pages,
			category=excluded.category, division=excluded.division, product=excluded.product,
			content_hash=excluded.content_hash,
			parse_method=excluded.parse_method, status=excluded.status,
			metadata=excluded.metadata, updated_at=CURRENT_TIMESTAMP
	`, d.Path, d.Filename, d.TotalPages, d.Category, d.Division, d.Product, d.ContentHash, d.ParseMethod, d.Status, meta)
	if err != nil {
		return 0, fmt.Errorf("upserting document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		row := s.db.QueryRowContext(ctx, "SELECT id FROM documents WHERE path = ?", d.Path)
		if scanErr := row.Scan(&id); scanErr != nil {
			return 0, fmt.Errorf("resolving document id: %w", scanErr)
		}
	}
	return id, nil
}

func scanDocument(row interface{ Scan(...any) error }) (*Document, error) {
	var d Document
	var meta sql.NullString
	if err := row.Scan(&d.ID, &d.Path, &d.Filename, &d.TotalPages, &d.Category, &d.Division, &d.Product,
		&d.ChunkCount, &d.ContentHash, &d.ParseMethod, &d.Status, &meta, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Metadata = meta.String
	return &d, nil
}

const documentColumns = `id, path, filename, total_pages, category, division, product, chunk_count, content_hash, parse_method, status, metadata, created_at, updated_at`

// GetDocumentByPath returns a document by its unique path, or ErrDocumentNotFound-compatible sql.ErrNoRows.
func (s *Store) GetDocumentByPath(ctx context.Context, path string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE path = ?`, path)
	return scanDocument(row)
}

// GetDocument returns a document by id.
func (s *Store) GetDocument(ctx context.Context, id int64) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// ListDocuments returns all documents ordered by id.
func (s *Store) ListDocuments(ctx context.Context) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// UpdateDocumentStatus transitions a document's status (pending -> ingested -> validated, or -> failed).
func (s *Store) UpdateDocumentStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE documents SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	return err
}

// UpdateDocumentChunkCount sets the chunk_count invariant field after a
// successful write, so chunk_count == count(HAS_CHUNK out-edges) holds.
func (s *Store) UpdateDocumentChunkCount(ctx context.Context, id int64, count int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE documents SET chunk_count = ? WHERE id = ?`, count, id)
	return err
}

// DeleteDocumentCascade removes a document and every Chunk, HAS_CHUNK, and
// NEXT_CHUNK trace for it, restoring a state indistinguishable from "never
// ingested" (§4.5, §7 rollback, §8 invariant 8). Entity nodes are kept but
// their per-chunk CONTAINS_ENTITY links for this document's chunks are
// removed via ON DELETE CASCADE and occurrences are decremented.
func (s *Store) DeleteDocumentCascade(ctx context.Context, documentID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT e.id, COUNT(*) FROM entity_chunks ec
			JOIN entities e ON e.id = ec.entity_id
			JOIN chunks c ON c.id = ec.chunk_id
			WHERE c.document_id = ?
			GROUP BY e.id`, documentID)
		if err != nil {
			return fmt.Errorf("collecting entity decrements: %w", err)
		}
		type decr struct {
			id    int64
			count int
		}
		var decrements []decr
		for rows.Next() {
			var dd decr
			if err := rows.Scan(&dd.id, &dd.count); err != nil {
				rows.Close()
				return err
			}
			decrements = append(decrements, dd)
		}
		rows.Close()

		for _, dd := range decrements {
			if _, err := tx.ExecContext(ctx,
				`UPDATE entities SET occurrences = MAX(0, occurrences - ?) WHERE id = ?`, dd.count, dd.id); err != nil {
				return fmt.Errorf("decrementing entity occurrences: %w", err)
			}
		}

		var chunkIDs []int64
		cRows, err := tx.QueryContext(ctx, `SELECT id FROM chunks WHERE document_id = ?`, documentID)
		if err != nil {
			return err
		}
		for cRows.Next() {
			var id int64
			if err := cRows.Scan(&id); err != nil {
				cRows.Close()
				return err
			}
			chunkIDs = append(chunkIDs, id)
		}
		cRows.Close()

		if len(chunkIDs) > 0 {
			args := make([]any, len(chunkIDs))
			for i, id := range chunkIDs {
				args[i] = id
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM vec_chunks WHERE chunk_id IN (`+repeatPlaceholders(len(args))+`)`, args...); err != nil {
				return fmt.Errorf("deleting vectors: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
			return fmt.Errorf("deleting chunks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID); err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}
		return nil
	})
}

// ---------------------------------------------------------------------
// Chunk + embedding operations
// ---------------------------------------------------------------------

// InsertChunks writes chunks for a document in chunk_index order inside one
// transaction, wiring the NEXT_CHUNK chain as it goes, and returns the
// assigned ids in the same order (§4.6 ordering guarantee).
func (s *Store) InsertChunks(ctx context.Context, documentID int64, chunks []*Chunk) ([]int64, error) {
	ids := make([]int64, len(chunks))
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for i, c := range chunks {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO chunks (document_id, chunk_index, text, page_num, chunk_type, has_definitions, has_examples, semantic_density, content_hash)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, documentID, c.ChunkIndex, c.Text, c.PageNum, c.ChunkType, boolToInt(c.HasDefinitions), boolToInt(c.HasExamples), c.SemanticDensity, c.ContentHash)
			if err != nil {
				return fmt.Errorf("inserting chunk %d: %w", i, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids[i] = id
		}
		for i := 0; i < len(ids)-1; i++ {
			if _, err := tx.ExecContext(ctx, `UPDATE chunks SET next_chunk_id = ? WHERE id = ?`, ids[i+1], ids[i]); err != nil {
				return fmt.Errorf("linking next_chunk: %w", err)
			}
		}
		return nil
	})
	return ids, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// InsertEmbedding stores a chunk's embedding vector in the ANN index.
// The caller is responsible for ensuring len(vec) == embeddingDim and that
// the vector is L2-normalized (§4.3 contract; enforced by package embed).
func (s *Store) InsertEmbedding(ctx context.Context, chunkID int64, vec []float32) error {
	if len(vec) != s.embeddingDim {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), s.embeddingDim)
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)`, chunkID, serializeFloat32(vec))
	return err
}

// applyFilter ANDs the hierarchical division/category/product predicates
// onto a query's WHERE clause (§4.8: filters are ANDed with retriever
// predicates; independent of the community overlay).
func applyFilter(query string, args []any, filter *Filter) (string, []any) {
	if filter == nil {
		return query, args
	}
	if filter.Division != "" {
		query += ` AND d.division = ?`
		args = append(args, filter.Division)
	}
	if filter.Category != "" {
		query += ` AND d.category = ?`
		args = append(args, filter.Category)
	}
	if filter.Product != "" {
		query += ` AND d.product = ?`
		args = append(args, filter.Product)
	}
	return query, args
}

// VectorSearchChunks runs an ANN cosine search and returns the top N results
// with score = 1 - distance, clipped to [0,1].
func (s *Store) VectorSearchChunks(ctx context.Context, queryVec []float32, topN int, filter *Filter) ([]RetrievalResult, error) {
	if len(queryVec) != s.embeddingDim {
		return nil, fmt.Errorf("query embedding dimension mismatch: got %d, want %d", len(queryVec), s.embeddingDim)
	}

	query := `
		SELECT c.id, c.document_id, c.text, c.chunk_type, c.page_num, c.semantic_density, d.filename, d.category, d.division, d.product, v.distance
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_id
		JOIN documents d ON d.id = c.document_id
		WHERE v.embedding MATCH ? AND k = ?`
	args := []any{serializeFloat32(queryVec), topN}
	query, args = applyFilter(query, args, filter)
	query += ` ORDER BY v.distance`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var results []RetrievalResult
	for rows.Next() {
		var r RetrievalResult
		var distance float64
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Text, &r.ChunkType, &r.PageNumber, &r.SemanticDensity, &r.Filename, &r.Category, &r.Division, &r.Product, &distance); err != nil {
			return nil, err
		}
		r.Score = clip01(1 - distance)
		r.SourceTag = "vector"
		results = append(results, r)
	}
	return results, rows.Err()
}

// KeywordSearchChunks runs a BM25 full-text search and returns results with
// score normalized to a positive [0,1]-ish range (BM25 rank is negative;
// we flip sign and squash).
func (s *Store) KeywordSearchChunks(ctx context.Context, ftsQuery string, topN int, filter *Filter) ([]RetrievalResult, error) {
	if strings.TrimSpace(ftsQuery) == "" {
		return nil, nil
	}
	query := `
		SELECT c.id, c.document_id, c.text, c.chunk_type, c.page_num, c.semantic_density, d.filename, d.category, d.division, d.product, bm25(chunks_fts) as rank
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.rowid
		JOIN documents d ON d.id = c.document_id
		WHERE chunks_fts MATCH ?`
	args := []any{ftsQuery}
	query, args = applyFilter(query, args, filter)
	query += ` ORDER BY rank LIMIT ?`
	args = append(args, topN)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var results []RetrievalResult
	for rows.Next() {
		var r RetrievalResult
		var rank float64
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Text, &r.ChunkType, &r.PageNumber, &r.SemanticDensity, &r.Filename, &r.Category, &r.Division, &r.Product, &rank); err != nil {
			return nil, err
		}
		r.Score = clip01(1 / (1 + math.Exp(rank)))
		r.SourceTag = "keyword"
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetChunksByDocument returns a document's chunks in chunk_index order.
func (s *Store) GetChunksByDocument(ctx context.Context, documentID int64) ([]*Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, next_chunk_id, text, page_num, chunk_type, has_definitions, has_examples, semantic_density, content_hash
		FROM chunks WHERE document_id = ? ORDER BY chunk_index`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Chunk
	for rows.Next() {
		var c Chunk
		var next sql.NullInt64
		var hasDef, hasEx int
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &next, &c.Text, &c.PageNum, &c.ChunkType, &hasDef, &hasEx, &c.SemanticDensity, &c.ContentHash); err != nil {
			return nil, err
		}
		if next.Valid {
			v := next.Int64
			c.NextChunkID = &v
		}
		c.HasDefinitions = hasDef != 0
		c.HasExamples = hasEx != 0
		out = append(out, &c)
	}
	return out, rows.Err()
}

// RetrievalResultsByChunkIDs joins chunks to their document and returns the
// RetrievalResult shape (sans score/source_tag, which the caller fills in)
// keyed by chunk id, for retrievers that start from a chunk-id set rather
// than an ANN or FTS query (entity and community-aware retrievers). Results
// outside the filter are omitted entirely rather than zero-valued.
func (s *Store) RetrievalResultsByChunkIDs(ctx context.Context, chunkIDs []int64, filter *Filter) (map[int64]RetrievalResult, error) {
	out := make(map[int64]RetrievalResult)
	if len(chunkIDs) == 0 {
		return out, nil
	}
	const batchSize = 200
	for start := 0; start < len(chunkIDs); start += batchSize {
		end := start + batchSize
		if end > len(chunkIDs) {
			end = len(chunkIDs)
		}
		batch := chunkIDs[start:end]
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		query := `
			SELECT c.id, c.document_id, c.text, c.chunk_type, c.page_num, c.semantic_density, d.filename, d.category, d.division, d.product
			FROM chunks c
			JOIN documents d ON d.id = c.document_id
			WHERE c.id IN (` + repeatPlaceholders(len(args)) + `)`
		query, args = applyFilter(query, args, filter)

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("retrieval results by chunk ids: %w", err)
		}
		for rows.Next() {
			var r RetrievalResult
			if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Text, &r.ChunkType, &r.PageNumber, &r.SemanticDensity, &r.Filename, &r.Category, &r.Division, &r.Product); err != nil {
				rows.Close()
				return nil, err
			}
			out[r.ChunkID] = r
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetChunkByID fetches a single chunk by id.
func (s *Store) GetChunkByID(ctx context.Context, id int64) (*Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, chunk_index, next_chunk_id, text, page_num, chunk_type, has_definitions, has_examples, semantic_density, content_hash
		FROM chunks WHERE id = ?`, id)
	var c Chunk
	var next sql.NullInt64
	var hasDef, hasEx int
	if err := row.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &next, &c.Text, &c.PageNum, &c.ChunkType, &hasDef, &hasEx, &c.SemanticDensity, &c.ContentHash); err != nil {
		return nil, err
	}
	if next.Valid {
		v := next.Int64
		c.NextChunkID = &v
	}
	c.HasDefinitions = hasDef != 0
	c.HasExamples = hasEx != 0
	return &c, nil
}

// ---------------------------------------------------------------------
// Entity operations
// ---------------------------------------------------------------------

// UpsertEntity inserts or updates an entity keyed on (normalized, type),
// incrementing occurrences on conflict. Idempotent per §4.5.
func (s *Store) UpsertEntity(ctx context.Context, text, normalized, entityType string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (text, normalized, entity_type, occurrences)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(normalized, entity_type) DO UPDATE SET
			occurrences = occurrences + 1
	`, text, normalized, entityType)
	if err != nil {
		return 0, fmt.Errorf("upserting entity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		row := s.db.QueryRowContext(ctx, `SELECT id FROM entities WHERE normalized = ? AND entity_type = ?`, normalized, entityType)
		if scanErr := row.Scan(&id); scanErr != nil {
			return 0, fmt.Errorf("resolving entity id: %w", scanErr)
		}
	}
	return id, nil
}

// LinkContainsEntity records a CONTAINS_ENTITY edge with confidence.
func (s *Store) LinkContainsEntity(ctx context.Context, entityID, chunkID int64, confidence float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_chunks (entity_id, chunk_id, confidence) VALUES (?, ?, ?)
		ON CONFLICT(entity_id, chunk_id) DO UPDATE SET confidence = MAX(confidence, excluded.confidence)
	`, entityID, chunkID, confidence)
	return err
}

// GetEntitiesByNormalized fetches entities by normalized surface form.
func (s *Store) GetEntitiesByNormalized(ctx context.Context, normalized []string) ([]*Entity, error) {
	if len(normalized) == 0 {
		return nil, nil
	}
	args := make([]any, len(normalized))
	for i, n := range normalized {
		args[i] = n
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE normalized IN (`+repeatPlaceholders(len(args))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows)
}

const entityColumns = `id, text, normalized, entity_type, first_seen, occurrences, community_id, degree_centrality, betweenness_centrality, is_bridge, connected_communities`

func scanEntities(rows *sql.Rows) ([]*Entity, error) {
	var out []*Entity
	for rows.Next() {
		e, err := scanEntityRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntityRow(row interface{ Scan(...any) error }) (*Entity, error) {
	var e Entity
	var community sql.NullInt64
	var isBridge int
	if err := row.Scan(&e.ID, &e.Text, &e.Normalized, &e.Type, &e.FirstSeen, &e.Occurrences, &community,
		&e.DegreeCentrality, &e.BetweennessCentrality, &isBridge, &e.ConnectedCommunities); err != nil {
		return nil, err
	}
	if community.Valid {
		v := community.Int64
		e.CommunityID = &v
	}
	e.IsBridge = isBridge != 0
	return &e, nil
}

// ChunksForEntities returns the distinct chunk ids containing any of the
// given entities, batching IN-clauses to avoid oversized queries.
func (s *Store) ChunksForEntities(ctx context.Context, entityIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64)
	const batchSize = 200
	for start := 0; start < len(entityIDs); start += batchSize {
		end := start + batchSize
		if end > len(entityIDs) {
			end = len(entityIDs)
		}
		batch := entityIDs[start:end]
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		rows, err := s.db.QueryContext(ctx,
			`SELECT entity_id, chunk_id FROM entity_chunks WHERE entity_id IN (`+repeatPlaceholders(len(args))+`)`, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var eid, cid int64
			if err := rows.Scan(&eid, &cid); err != nil {
				rows.Close()
				return nil, err
			}
			out[eid] = append(out[eid], cid)
		}
		rows.Close()
	}
	return out, nil
}

// EntityConfidenceForChunks returns CONTAINS_ENTITY confidence keyed by
// (entity_id, chunk_id), for entity-retriever scoring.
func (s *Store) EntityConfidenceForChunks(ctx context.Context, entityIDs []int64) (map[[2]int64]float64, error) {
	out := make(map[[2]int64]float64)
	if len(entityIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(entityIDs))
	for i, id := range entityIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, chunk_id, confidence FROM entity_chunks WHERE entity_id IN (`+repeatPlaceholders(len(args))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var eid, cid int64
		var conf float64
		if err := rows.Scan(&eid, &cid, &conf); err != nil {
			return nil, err
		}
		out[[2]int64{eid, cid}] = conf
	}
	return out, rows.Err()
}

// AllEntities returns every entity node, for the community builder.
func (s *Store) AllEntities(ctx context.Context) ([]*Entity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entityColumns+` FROM entities`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows)
}

// AllEntityChunkLinks returns the full CONTAINS_ENTITY edge set, used by the
// community builder to compute co-occurrence strengths.
func (s *Store) AllEntityChunkLinks(ctx context.Context) (map[int64][]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chunk_id, entity_id FROM entity_chunks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64][]int64)
	for rows.Next() {
		var chunkID, entityID int64
		if err := rows.Scan(&chunkID, &entityID); err != nil {
			return nil, err
		}
		out[chunkID] = append(out[chunkID], entityID)
	}
	return out, rows.Err()
}

// AllRelationships returns every RELATED_TO edge.
func (s *Store) AllRelationships(ctx context.Context) ([]*Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, entity_a_id, entity_b_id, strength FROM relationships`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Relationship
	for rows.Next() {
		var r Relationship
		if err := rows.Scan(&r.ID, &r.EntityAID, &r.EntityBID, &r.Strength); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// ReplaceRelationships atomically clears and rewrites the RELATED_TO edge
// set from the community builder's co-occurrence pass.
func (s *Store) ReplaceRelationships(ctx context.Context, rels []*Relationship) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM relationships`); err != nil {
			return err
		}
		for _, r := range rels {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO relationships (entity_a_id, entity_b_id, strength) VALUES (?, ?, ?)`,
				r.EntityAID, r.EntityBID, r.Strength); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateEntityMetrics writes back the §4.7 Step 3 per-entity metrics.
func (s *Store) UpdateEntityMetrics(ctx context.Context, e *Entity) error {
	var community any
	if e.CommunityID != nil {
		community = *e.CommunityID
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE entities SET community_id = ?, degree_centrality = ?, betweenness_centrality = ?, is_bridge = ?, connected_communities = ?
		WHERE id = ?`,
		community, e.DegreeCentrality, e.BetweennessCentrality, boolToInt(e.IsBridge), e.ConnectedCommunities, e.ID)
	return err
}

// ---------------------------------------------------------------------
// Community operations
// ---------------------------------------------------------------------

// ClearCommunities wipes the communities table ahead of a rebuild. Entity
// community_id assignments are overwritten by the subsequent UpdateEntityMetrics calls.
func (s *Store) ClearCommunities(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM communities`)
	return err
}

// InsertCommunity creates a community row and returns its id.
func (s *Store) InsertCommunity(ctx context.Context, size int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO communities (size) VALUES (?)`, size)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetCommunities returns every community.
func (s *Store) GetCommunities(ctx context.Context) ([]*Community, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, size FROM communities ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Community
	for rows.Next() {
		var c Community
		if err := rows.Scan(&c.ID, &c.Size); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// EntitiesByCommunity returns entities belonging to the given community ids.
func (s *Store) EntitiesByCommunity(ctx context.Context, communityIDs []int64) ([]*Entity, error) {
	if len(communityIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(communityIDs))
	for i, id := range communityIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE community_id IN (`+repeatPlaceholders(len(args))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows)
}

// ---------------------------------------------------------------------
// Query log + schema
// ---------------------------------------------------------------------

// LogQuery appends a query-audit record.
func (s *Store) LogQuery(ctx context.Context, query, strategy string, topK, resultCount int, elapsedMS int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_log (query, strategy, top_k, result_count, elapsed_ms) VALUES (?, ?, ?, ?, ?)
	`, query, strategy, topK, resultCount, elapsedMS)
	return err
}

// SchemaSummary returns counts by label and relationship type, for the §6
// schema endpoint.
func (s *Store) SchemaSummary(ctx context.Context) (*SchemaSummary, error) {
	summary := &SchemaSummary{
		NodeCounts:         map[string]int64{},
		RelationshipCounts: map[string]int64{},
		Indexes: []string{
			"documents.path (unique)", "entities.(normalized,entity_type) (unique)",
			"chunks_fts (full-text)", "vec_chunks (ann cosine)",
			"entities.community_id", "entities.is_bridge", "chunks.page_num",
		},
	}
	labels := map[string]string{
		"Document":  "documents",
		"Chunk":     "chunks",
		"Entity":    "entities",
		"Community": "communities",
	}
	for label, table := range labels {
		var count int64
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count); err != nil {
			return nil, err
		}
		summary.NodeCounts[label] = count
	}
	rels := map[string]string{
		"HAS_CHUNK":       `SELECT COUNT(*) FROM chunks`,
		"NEXT_CHUNK":      `SELECT COUNT(*) FROM chunks WHERE next_chunk_id IS NOT NULL`,
		"CONTAINS_ENTITY": `SELECT COUNT(*) FROM entity_chunks`,
		"RELATED_TO":      `SELECT COUNT(*) FROM relationships`,
	}
	for name, q := range rels {
		var count int64
		if err := s.db.QueryRowContext(ctx, q).Scan(&count); err != nil {
			return nil, err
		}
		summary.RelationshipCounts[name] = count
	}
	return summary, nil
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
