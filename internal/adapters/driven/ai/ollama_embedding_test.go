package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
)

func TestNewOllamaEmbedding_Defaults(t *testing.T) {
	svc, err := NewOllamaEmbedding("", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Model() != "nomic-embed-text" {
		t.Errorf("expected default model, got %s", svc.Model())
	}
	if svc.baseURL != "http://localhost:11434" {
		t.Errorf("expected default base URL, got %s", svc.baseURL)
	}
	if svc.Dimensions() != 768 {
		t.Errorf("expected 768 dimensions, got %d", svc.Dimensions())
	}
}

func TestOllamaEmbedding_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("expected /api/embed, got %s", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Model != "bge-m3" {
			t.Errorf("expected model bge-m3, got %s", req.Model)
		}
		out := ollamaEmbedResponse{}
		for range req.Input {
			out.Embeddings = append(out.Embeddings, []float32{0.5, 0.5})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer server.Close()

	svc, _ := NewOllamaEmbedding(server.URL, "bge-m3", 2)
	result, err := svc.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 3 {
		t.Errorf("expected 3 embeddings, got %d", len(result))
	}

	query, err := svc.EmbedQuery(context.Background(), "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(query) != 2 {
		t.Errorf("expected 2 dimensions, got %d", len(query))
	}
}

func TestOllamaEmbedding_Embed_ModelMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"bge-m3\" not found, try pulling it first"}`))
	}))
	defer server.Close()

	svc, _ := NewOllamaEmbedding(server.URL, "bge-m3", 2)
	_, err := svc.Embed(context.Background(), []string{"a"})
	if got := domain.KindOf(err); got != domain.KindNotFound {
		t.Errorf("expected not_found, got %q (%v)", got, err)
	}
}

func TestOllamaEmbedding_Embed_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1,2]]}`))
	}))
	defer server.Close()

	svc, _ := NewOllamaEmbedding(server.URL, "", 2)
	_, err := svc.Embed(context.Background(), []string{"a", "b"})
	if got := domain.KindOf(err); got != domain.KindBadResponse {
		t.Errorf("expected bad_response, got %q (%v)", got, err)
	}
}

func TestOllamaEmbedding_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	svc, _ := NewOllamaEmbedding(server.URL, "", 0)
	if err := svc.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected healthy, got %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}
