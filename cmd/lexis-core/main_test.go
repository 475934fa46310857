package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexis-core/internal/adapters/driven/auth"
	"github.com/custodia-labs/lexis-core/internal/core/domain"
)

const testSecret = "test-secret-at-least-16-bytes"

// execute runs rootCmd with a throwaway env file so a developer's .env
// never leaks into the test.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--config=", "--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func useSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "lexis.db")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("REDIS_URL", "")
	return path
}

// fakeOllama answers every embed request with the same unit vector
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		case "/api/embed":
			var req struct {
				Input []string `json:"input"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			vectors := make([][]float32, len(req.Input))
			for i := range vectors {
				vectors[i] = []float32{1, 0, 0}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": vectors})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lexis-core dev")
	assert.Contains(t, out, "commit:")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	out, err := execute(t, "token", "--subject", "ci", "--role", "reader", "--ttl", "1h")
	require.NoError(t, err)

	adapter, err := auth.NewAdapter(testSecret)
	require.NoError(t, err)
	claims, err := adapter.ParseToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ci", claims.Subject)
	assert.Equal(t, domain.RoleReader, claims.Role)
	assert.False(t, claims.IsExpired())
}

func TestTokenCommand_Errors(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		args   []string
	}{
		{"unknown role", testSecret, []string{"--role", "owner", "--ttl", "1h"}},
		{"non-positive ttl", testSecret, []string{"--role", "admin", "--ttl", "0s"}},
		{"short secret", "short", []string{"--role", "admin", "--ttl", "1h"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			_, err := execute(t, append([]string{"token", "--subject", "ci"}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestInvalidConfigFailsBeforeCommand(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")
	_, err := execute(t, "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database driver")
}

func TestMigrateCommand_SQLite(t *testing.T) {
	path := useSQLite(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema up to date (sqlite)")

	_, err = os.Stat(path)
	assert.NoError(t, err)

	// Idempotent
	_, err = execute(t, "migrate")
	assert.NoError(t, err)
}

func TestIngestTextAndRetrieve_SQLite(t *testing.T) {
	useSQLite(t)
	srv := fakeOllama(t)
	t.Setenv("EMBEDDING_PROVIDER", "ollama")
	t.Setenv("EMBEDDING_BASE_URL", srv.URL)
	t.Setenv("VECTOR_DIMENSIONS", "3")

	out, err := execute(t, "ingest", "text", "--lei", "Lei 8.078/1990", "--contexto", "",
		"Art. 6º São direitos básicos do consumidor a proteção da vida, saúde e segurança.")
	require.NoError(t, err)

	var outcome domain.IngestOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.True(t, outcome.Success)
	assert.NotEmpty(t, outcome.ResourceID)
	assert.Equal(t, 1, outcome.ChunksTotal)
	assert.Equal(t, 1, outcome.EmbeddingsStored)

	out, err = execute(t, "retrieve", "direitos", "do", "consumidor")
	require.NoError(t, err)

	var result retrieveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.NotNil(t, result.Fragments)
	assert.Equal(t, domain.TotalTokens(result.Fragments), result.TotalTokens)
}

func TestIngestText_RejectedExitsWithError(t *testing.T) {
	useSQLite(t)
	srv := fakeOllama(t)
	t.Setenv("EMBEDDING_PROVIDER", "ollama")
	t.Setenv("EMBEDDING_BASE_URL", srv.URL)

	out, err := execute(t, "ingest", "text", "--lei", "", "--contexto", "", "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion failed")

	var outcome domain.IngestOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.False(t, outcome.Success)
}

func TestReadTextInput(t *testing.T) {
	t.Cleanup(func() { ingestFile = "" })

	ingestFile = ""
	got, err := readTextInput(ingestTextCmd, []string{"inline"})
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	path := filepath.Join(t.TempDir(), "art.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))
	ingestFile = path
	got, err = readTextInput(ingestTextCmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "from file", got)

	_, err = readTextInput(ingestTextCmd, []string{"inline"})
	assert.Error(t, err)

	ingestFile = ""
	ingestTextCmd.SetIn(strings.NewReader("from stdin"))
	got, err = readTextInput(ingestTextCmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)
}

func TestReadCuratedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cdc.yaml")
	doc := `lei: Lei 8.078/1990
contexto: Código de Defesa do Consumidor
chunks:
  - "Art. 6º São direitos básicos do consumidor."
  - "Art. 18. Os fornecedores respondem solidariamente."
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	in, err := readCuratedFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Lei 8.078/1990", in.Lei)
	assert.Equal(t, "Código de Defesa do Consumidor", in.Contexto)
	assert.Len(t, in.Chunks, 2)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("chunks: [unterminated"), 0o600))
	_, err = readCuratedFile(bad)
	assert.Error(t, err)
}
