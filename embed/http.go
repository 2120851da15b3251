package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPEncoder calls an Ollama-compatible /api/embed endpoint. It is the
// production encoder; LocalEncoder is its offline fallback.
type HTTPEncoder struct {
	BaseURL string
	Model   string
	Client  *http.Client
	dim     int
}

// NewHTTPEncoder builds an HTTPEncoder against baseURL (defaulting to
// Ollama's local address) for the given model and output dimension.
func NewHTTPEncoder(baseURL, model string, dim int) *HTTPEncoder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if dim == 0 {
		dim = Dim
	}
	return &HTTPEncoder{
		BaseURL: baseURL,
		Model:   model,
		Client:  &http.Client{Timeout: 60 * time.Second},
		dim:     dim,
	}
}

func (e *HTTPEncoder) Dim() int { return e.dim }

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Encode posts texts to the /api/embed endpoint in a single batch and
// L2-normalizes each returned vector.
func (e *HTTPEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("embed: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embed: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embed: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed: endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed ollamaEmbedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("embed: decoding response: %w", err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed: expected %d vectors, got %d", len(texts), len(parsed.Embeddings))
	}

	out := make([][]float32, len(parsed.Embeddings))
	for i, vec := range parsed.Embeddings {
		v := make([]float32, len(vec))
		for j, x := range vec {
			v[j] = float32(x)
		}
		normalize(v)
		out[i] = v
	}
	return out, nil
}
