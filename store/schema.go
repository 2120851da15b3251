package store

import "fmt"

// schemaSQL returns the DDL for all tables. embeddingDim controls the
// vec0 virtual table dimension (the global constant D of §4.3).
func schemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
-- Document registry with hash-based change detection.
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY,
    path TEXT NOT NULL UNIQUE,
    filename TEXT NOT NULL,
    total_pages INTEGER NOT NULL DEFAULT 0,
    category TEXT NOT NULL DEFAULT '',
    division TEXT NOT NULL DEFAULT '',
    product TEXT NOT NULL DEFAULT '',
    chunk_count INTEGER NOT NULL DEFAULT 0,
    content_hash TEXT NOT NULL,
    parse_method TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending',
    metadata JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Chunks, one HAS_CHUNK in-edge each (document_id), NEXT_CHUNK expressed
-- as a self-referencing pointer forming a per-document linear chain.
CREATE TABLE IF NOT EXISTS chunks (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    chunk_index INTEGER NOT NULL,
    next_chunk_id INTEGER REFERENCES chunks(id),
    text TEXT NOT NULL,
    page_num INTEGER NOT NULL,
    chunk_type TEXT NOT NULL DEFAULT 'content',
    has_definitions INTEGER NOT NULL DEFAULT 0,
    has_examples INTEGER NOT NULL DEFAULT 0,
    semantic_density REAL NOT NULL DEFAULT 0,
    content_hash TEXT NOT NULL
);

-- Vector embeddings via sqlite-vec (cosine ANN index).
CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
    chunk_id INTEGER PRIMARY KEY,
    embedding float[%d] distance_metric=cosine
);

-- Full-text index over Chunk.text.
CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
    text,
    content='chunks',
    content_rowid='id',
    tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
    INSERT INTO chunks_fts(rowid, text) VALUES (new.id, new.text);
END;
CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
    INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES ('delete', old.id, old.text);
END;
CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
    INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES ('delete', old.id, old.text);
    INSERT INTO chunks_fts(rowid, text) VALUES (new.id, new.text);
END;

-- Entities: (normalized, type) is unique.
CREATE TABLE IF NOT EXISTS entities (
    id INTEGER PRIMARY KEY,
    text TEXT NOT NULL,
    normalized TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
    occurrences INTEGER NOT NULL DEFAULT 1,
    community_id INTEGER,
    degree_centrality REAL NOT NULL DEFAULT 0,
    betweenness_centrality REAL NOT NULL DEFAULT 0,
    is_bridge INTEGER NOT NULL DEFAULT 0,
    connected_communities INTEGER NOT NULL DEFAULT 0,
    UNIQUE(normalized, entity_type)
);

-- CONTAINS_ENTITY(Chunk -> Entity), many-to-many with confidence.
CREATE TABLE IF NOT EXISTS entity_chunks (
    entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    chunk_id INTEGER NOT NULL REFERENCES chunks(id) ON DELETE CASCADE,
    confidence REAL NOT NULL DEFAULT 1.0,
    PRIMARY KEY (entity_id, chunk_id)
);

-- RELATED_TO(Entity -- Entity), undirected, created only at strength>=2.
CREATE TABLE IF NOT EXISTS relationships (
    id INTEGER PRIMARY KEY,
    entity_a_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    entity_b_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    strength INTEGER NOT NULL DEFAULT 2,
    UNIQUE(entity_a_id, entity_b_id)
);

-- Communities produced by the Louvain pass.
CREATE TABLE IF NOT EXISTS communities (
    id INTEGER PRIMARY KEY,
    size INTEGER NOT NULL DEFAULT 0
);

-- Query audit log (no answer text: the core returns citations, not prose).
CREATE TABLE IF NOT EXISTS query_log (
    id INTEGER PRIMARY KEY,
    query TEXT NOT NULL,
    strategy TEXT,
    top_k INTEGER,
    result_count INTEGER,
    elapsed_ms INTEGER,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes.
CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
CREATE INDEX IF NOT EXISTS idx_chunks_page ON chunks(page_num);
CREATE INDEX IF NOT EXISTS idx_chunks_type ON chunks(chunk_type);
CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(entity_type);
CREATE INDEX IF NOT EXISTS idx_entities_community ON entities(community_id);
CREATE INDEX IF NOT EXISTS idx_entities_bridge ON entities(is_bridge);
CREATE INDEX IF NOT EXISTS idx_relationships_a ON relationships(entity_a_id);
CREATE INDEX IF NOT EXISTS idx_relationships_b ON relationships(entity_b_id);
CREATE INDEX IF NOT EXISTS idx_entity_chunks_chunk ON entity_chunks(chunk_id);
CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);
CREATE INDEX IF NOT EXISTS idx_documents_division ON documents(division);
`, embeddingDim)
}
