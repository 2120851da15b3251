package graphrag

import (
	"os"
	"path/filepath"
)

// Config holds all configuration for the graphrag engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.graphrag/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath
	// is not explicitly set. Options: "home" (default) uses ~/.graphrag/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// Embedding and reranker model endpoints. Both are optional; when a
	// BaseURL is empty the corresponding local deterministic fallback
	// (embed.LocalEncoder / rerank.LexicalScorer) is used instead.
	Embedding EndpointConfig `json:"embedding" yaml:"embedding"`
	Reranker  EndpointConfig `json:"reranker" yaml:"reranker"`

	// OCR controls the extractor's fallback path (§4.1).
	OCR OCRConfig `json:"ocr" yaml:"ocr"`

	// Workers bounds the ingestion orchestrator's document-level worker
	// pool. 0 means min(NumCPU, 8).
	Workers int `json:"workers" yaml:"workers"`

	// Chunking (§4.2).
	ChunkTargetTokens int `json:"chunk_target_tokens" yaml:"chunk_target_tokens"`
	ChunkOverlapTokens int `json:"chunk_overlap_tokens" yaml:"chunk_overlap_tokens"`
	ChunkMaxTokens    int `json:"chunk_max_tokens" yaml:"chunk_max_tokens"`

	// EmbeddingDim is the fixed global vector dimension D (§4.3).
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`

	// CooccurrenceMinStrength is the minimum co-occurrence count for a
	// RELATED_TO edge to be created (§4.7 Step 1).
	CooccurrenceMinStrength int `json:"cooccurrence_min_strength" yaml:"cooccurrence_min_strength"`

	// LouvainResolution is ρ, clamped to [0.5, 2.0] (§4.7 Step 2).
	LouvainResolution float64 `json:"louvain_resolution" yaml:"louvain_resolution"`

	// RerankWeights are the four weights of §4.10's final_score formula.
	RerankWeights RerankWeights `json:"rerank_weights" yaml:"rerank_weights"`

	// QueryDeadlineMS is the default per-query deadline (§5).
	QueryDeadlineMS int `json:"query_deadline_ms" yaml:"query_deadline_ms"`

	// IngestPhaseTimeouts are the per-phase wall-clock caps (§5).
	IngestPhaseTimeouts PhaseTimeouts `json:"ingest_phase_timeouts_ms" yaml:"ingest_phase_timeouts_ms"`

	// Validation thresholds (§4.6).
	Validation ValidationConfig `json:"validation" yaml:"validation"`

	// CommunityDwellSeconds is how long ingestion must be quiescent
	// before the community builder runs automatically (§4.7).
	CommunityDwellSeconds int `json:"community_dwell_seconds" yaml:"community_dwell_seconds"`
}

// EndpointConfig configures a single HTTP-backed model endpoint.
type EndpointConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	Model   string `json:"model" yaml:"model"`
	APIKey  string `json:"api_key" yaml:"api_key"`
}

// OCRConfig configures the OCR fallback path.
type OCRConfig struct {
	// Binary is the path to the OCR executable (default "tesseract").
	Binary string `json:"binary" yaml:"binary"`
	DPI    int    `json:"dpi" yaml:"dpi"`
}

// RerankWeights are the coefficients of the §4.10 final_score formula.
// They must sum to 1.0 for final_score to stay within [0,1].
type RerankWeights struct {
	CrossEncoder float64 `json:"cross_encoder" yaml:"cross_encoder"`
	Retriever    float64 `json:"retriever" yaml:"retriever"`
	Keyword      float64 `json:"keyword" yaml:"keyword"`
	QueryType    float64 `json:"query_type" yaml:"query_type"`
}

// PhaseTimeouts bounds each ingestion DAG phase, in milliseconds.
type PhaseTimeouts struct {
	ExtractMS  int `json:"extract" yaml:"extract"`
	EmbedMS    int `json:"embed" yaml:"embed"`
	EntitiesMS int `json:"entities" yaml:"entities"`
	WriteMS    int `json:"write" yaml:"write"`
}

// ValidationConfig holds the §4.6 validation thresholds.
type ValidationConfig struct {
	MinChunkPageRatio float64 `json:"min_chunk_page_ratio" yaml:"min_chunk_page_ratio"`
	MinCharsPerPage   float64 `json:"min_chars_per_page" yaml:"min_chars_per_page"`
}

// DefaultConfig returns a Config with the reference defaults from the
// component contracts. Database is stored in ~/.graphrag/graphrag.db.
func DefaultConfig() Config {
	return Config{
		DBName:     "graphrag",
		StorageDir: "home",
		OCR: OCRConfig{
			Binary: "tesseract",
			DPI:    300,
		},
		ChunkTargetTokens:       512,
		ChunkOverlapTokens:      128,
		ChunkMaxTokens:          1024,
		EmbeddingDim:            384,
		CooccurrenceMinStrength: 2,
		LouvainResolution:       1.0,
		RerankWeights: RerankWeights{
			CrossEncoder: 0.5,
			Retriever:    0.3,
			Keyword:      0.1,
			QueryType:    0.1,
		},
		QueryDeadlineMS: 10000,
		IngestPhaseTimeouts: PhaseTimeouts{
			ExtractMS:  600000,
			EmbedMS:    300000,
			EntitiesMS: 120000,
			WriteMS:    60000,
		},
		Validation: ValidationConfig{
			MinChunkPageRatio: 0.2,
			MinCharsPerPage:   50,
		},
		CommunityDwellSeconds: 60,
	}
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "graphrag"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		dir := filepath.Join(home, ".graphrag")
		return filepath.Join(dir, name+".db")
	}
}
