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

// Ensure OpenAIEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*OpenAIEmbedding)(nil)

// OpenAIEmbedding implements EmbeddingService using OpenAI's embedding API.
// Any OpenAI-compatible endpoint works through baseURL.
type OpenAIEmbedding struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	client     *http.Client
}

// Model dimensions for OpenAI embedding models
var openAIModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

const (
	defaultOpenAIModel   = "text-embedding-3-small"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// NewOpenAIEmbedding creates a new OpenAI embedding service.
// dimensions overrides the model's native size when positive; the
// text-embedding-3 models shorten their output to match.
func NewOpenAIEmbedding(apiKey, model, baseURL string, dimensions int) (*OpenAIEmbedding, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	if dimensions <= 0 {
		var ok bool
		if dimensions, ok = openAIModelDimensions[model]; !ok {
			dimensions = 1536
		}
	}

	return &OpenAIEmbedding{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		dimensions: dimensions,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

type openAIEmbeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
	Dimensions     int      `json:"dimensions,omitempty"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string          `json:"model"`
	Error *openAIAPIError `json:"error,omitempty"`
}

type openAIAPIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Embed generates one embedding per text, in input order
func (e *OpenAIEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := openAIEmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: "float",
	}
	if _, native := openAIModelDimensions[e.model]; native && e.dimensions != openAIModelDimensions[e.model] {
		reqBody.Dimensions = e.dimensions
	}

	resp, err := e.doRequest(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, domain.NewExternalError(domain.KindBadResponse, "openai.embed",
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)), nil)
	}

	// Data may arrive out of order; index is authoritative
	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(embeddings) {
			return nil, domain.NewExternalError(domain.KindBadResponse, "openai.embed",
				fmt.Sprintf("embedding index %d out of range", d.Index), nil)
		}
		embeddings[d.Index] = d.Embedding
	}

	return embeddings, nil
}

// EmbedQuery generates an embedding for a search query
func (e *OpenAIEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, domain.NewExternalError(domain.KindBadResponse, "openai.embed", "no embedding returned for query", nil)
	}
	return embeddings[0], nil
}

// Dimensions returns the embedding dimension size
func (e *OpenAIEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *OpenAIEmbedding) Model() string {
	return e.model
}

// HealthCheck makes a one-word embedding request
func (e *OpenAIEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

// Close releases idle connections
func (e *OpenAIEmbedding) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

func (e *OpenAIEmbedding) doRequest(ctx context.Context, reqBody openAIEmbeddingRequest) (*openAIEmbeddingResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, domain.NewExternalError(domain.ClassifyTransportError(err), "openai.embed", "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewExternalError(domain.ClassifyTransportError(err), "openai.embed", "failed to read response", err)
	}

	var embResp openAIEmbeddingResponse
	parseErr := json.Unmarshal(respBody, &embResp)

	if resp.StatusCode != http.StatusOK || embResp.Error != nil {
		var code, message string
		if embResp.Error != nil {
			code, message = embResp.Error.Code, embResp.Error.Message
			if code == "" {
				code = embResp.Error.Type
			}
		}
		if message == "" {
			message = fmt.Sprintf("OpenAI API returned status %d", resp.StatusCode)
		}
		return nil, domain.NewExternalError(domain.ClassifyHTTPFailure(resp.StatusCode, code, message), "openai.embed", message, nil)
	}

	if parseErr != nil {
		return nil, domain.NewExternalError(domain.KindBadResponse, "openai.embed", "failed to parse response", parseErr)
	}

	return &embResp, nil
}
