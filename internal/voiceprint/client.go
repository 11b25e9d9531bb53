// Package voiceprint computes voice embeddings through an external
// embedding server. The core depends only on the Embedder signature: raw
// audio in, fixed-dimension vector out.
package voiceprint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const (
	defaultEmbeddingURL = "http://localhost:8000"
)

// Embedder turns a WAV-framed voice sample into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, wavData []byte) ([]float32, error)
}

// EmbeddingClient computes voice embeddings using the embedding server.
type EmbeddingClient struct {
	baseURL string
	dim     int
	client  *http.Client
}

// NewEmbeddingClient creates a new embedding client. dim is the expected
// embedding dimension; 0 disables the check.
func NewEmbeddingClient(baseURL string, dim int) *EmbeddingClient {
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	return &EmbeddingClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		client:  &http.Client{},
	}
}

// embeddingResponse represents the response from the embedding server.
type embeddingResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
}

// Embed posts a WAV sample to the embedding server and returns the vector.
func (c *EmbeddingClient) Embed(ctx context.Context, wavData []byte) ([]float32, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "sample.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed/voice", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(embResp.Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	if c.dim > 0 && len(embResp.Embedding) != c.dim {
		return nil, fmt.Errorf("embedding server returned %d dimensions, expected %d", len(embResp.Embedding), c.dim)
	}

	return embResp.Embedding, nil
}
