package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPScorer calls a locally-served cross-encoder reranker over its
// native /rerank endpoint, the shape TEI- and llama.cpp-server-compatible
// rerankers expose (same request/response style as the embedder's
// Ollama client: POST JSON, decode JSON, client-supplied timeout).
type HTTPScorer struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

// NewHTTPScorer creates an HTTPScorer with a 30s default client timeout.
func NewHTTPScorer(baseURL, model string) *HTTPScorer {
	return &HTTPScorer{
		BaseURL: baseURL,
		Model:   model,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Scores []float64 `json:"scores"`
}

// Score posts the query and candidate texts to the reranker's /rerank
// endpoint and returns one score per text, in the same order.
func (s *HTTPScorer) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{Model: s.Model, Query: query, Documents: texts})
	if err != nil {
		return nil, err
	}

	url := s.BaseURL + "/rerank"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading rerank response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank error %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed rerankResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decoding rerank response: %w", err)
	}
	if len(parsed.Scores) != len(texts) {
		return nil, fmt.Errorf("rerank score count mismatch: got %d, want %d", len(parsed.Scores), len(texts))
	}
	for i, sc := range parsed.Scores {
		parsed.Scores[i] = clip01(sc)
	}
	return parsed.Scores, nil
}
