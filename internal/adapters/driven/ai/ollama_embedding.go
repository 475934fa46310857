package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*OllamaEmbedding)(nil)

const (
	defaultOllamaModel   = "nomic-embed-text"
	defaultOllamaBaseURL = "http://localhost:11434"
)

// OllamaEmbedding calls a local Ollama server's /api/embed endpoint.
type OllamaEmbedding struct {
	model      string
	baseURL    string
	dimensions int
	client     *http.Client
}

// NewOllamaEmbedding creates an Ollama embedding service. Ollama does not
// report a model's size up front, so dimensions must come from config.
func NewOllamaEmbedding(baseURL, model string, dimensions int) (*OllamaEmbedding, error) {
	if model == "" {
		model = defaultOllamaModel
	}
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	if dimensions <= 0 {
		dimensions = 768
	}
	return &OllamaEmbedding{
		model:      model,
		baseURL:    baseURL,
		dimensions: dimensions,
		client:     &http.Client{Timeout: 120 * time.Second},
	}, nil
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

func (o *OllamaEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: o.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, domain.NewExternalError(domain.ClassifyTransportError(err), "ollama.embed", "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewExternalError(domain.ClassifyTransportError(err), "ollama.embed", "failed to read response", err)
	}

	var out ollamaEmbedResponse
	parseErr := json.Unmarshal(respBody, &out)

	if resp.StatusCode != http.StatusOK || out.Error != "" {
		message := out.Error
		if message == "" {
			message = fmt.Sprintf("Ollama returned status %d", resp.StatusCode)
		}
		return nil, domain.NewExternalError(domain.ClassifyHTTPFailure(resp.StatusCode, "", message), "ollama.embed", message, nil)
	}
	if parseErr != nil {
		return nil, domain.NewExternalError(domain.KindBadResponse, "ollama.embed", "failed to parse response", parseErr)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, domain.NewExternalError(domain.KindBadResponse, "ollama.embed",
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(out.Embeddings)), nil)
	}
	return out.Embeddings, nil
}

func (o *OllamaEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := o.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings[0]) == 0 {
		return nil, domain.NewExternalError(domain.KindBadResponse, "ollama.embed", "no embedding returned for query", nil)
	}
	return embeddings[0], nil
}

func (o *OllamaEmbedding) Dimensions() int { return o.dimensions }

func (o *OllamaEmbedding) Model() string { return o.model }

// HealthCheck lists the server's models; it does not load the model.
func (o *OllamaEmbedding) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return domain.NewExternalError(domain.ClassifyTransportError(err), "ollama.health", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.NewExternalError(domain.ClassifyHTTPFailure(resp.StatusCode, "", ""), "ollama.health",
			fmt.Sprintf("Ollama returned status %d", resp.StatusCode), nil)
	}
	return nil
}

func (o *OllamaEmbedding) Close() error {
	o.client.CloseIdleConnections()
	return nil
}
