package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
)

// mockTokenAdapter implements driven.TokenAdapter for testing
type mockTokenAdapter struct {
	tokens map[string]*domain.TokenClaims
	errs   map[string]error
}

func newMockTokenAdapter() *mockTokenAdapter {
	return &mockTokenAdapter{
		tokens: map[string]*domain.TokenClaims{
			"admin-token":  {Subject: "ops", Role: domain.RoleAdmin},
			"reader-token": {Subject: "bot", Role: domain.RoleReader},
		},
		errs: map[string]error{
			"expired-token": domain.ErrTokenExpired,
		},
	}
}

func (m *mockTokenAdapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	return "", errors.New("not implemented")
}

func (m *mockTokenAdapter) ParseToken(token string) (*domain.TokenClaims, error) {
	if err, ok := m.errs[token]; ok {
		return nil, err
	}
	if claims, ok := m.tokens[token]; ok {
		return claims, nil
	}
	return nil, domain.ErrTokenInvalid
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			name:     "valid bearer token",
			header:   "Bearer abc123",
			expected: "abc123",
		},
		{
			name:     "bearer with extra spaces",
			header:   "Bearer   token-with-spaces   ",
			expected: "token-with-spaces",
		},
		{
			name:     "lowercase bearer",
			header:   "bearer token123",
			expected: "token123",
		},
		{
			name:     "empty header",
			header:   "",
			expected: "",
		},
		{
			name:     "no bearer prefix",
			header:   "token123",
			expected: "",
		},
		{
			name:     "basic auth",
			header:   "Basic dXNlcjpwYXNz",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := extractBearerToken(req); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantRole   domain.Role
	}{
		{name: "missing token", header: "", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer expired-token", wantStatus: http.StatusUnauthorized},
		{name: "admin token", header: "Bearer admin-token", wantStatus: http.StatusOK, wantRole: domain.RoleAdmin},
		{name: "reader token", header: "Bearer reader-token", wantStatus: http.StatusOK, wantRole: domain.RoleReader},
	}

	m := NewAuthMiddleware(newMockTokenAdapter())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotRole domain.Role
			handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if claims := GetClaims(r.Context()); claims != nil {
					gotRole = claims.Role
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if gotRole != tt.wantRole {
				t.Errorf("expected role %q, got %q", tt.wantRole, gotRole)
			}
		})
	}
}

func TestAuthMiddleware_ExpiredMessage(t *testing.T) {
	m := NewAuthMiddleware(newMockTokenAdapter())
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if body := decodeError(t, rr); body != "token expired" {
		t.Errorf("expected 'token expired', got %q", body)
	}
}

func TestAuthMiddleware_NoAdapter(t *testing.T) {
	m := NewAuthMiddleware(nil)
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestAuthMiddleware_RequireAdmin(t *testing.T) {
	m := NewAuthMiddleware(newMockTokenAdapter())
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		claims     *domain.TokenClaims
		wantStatus int
	}{
		{name: "no claims", claims: nil, wantStatus: http.StatusUnauthorized},
		{name: "reader", claims: &domain.TokenClaims{Role: domain.RoleReader}, wantStatus: http.StatusForbidden},
		{name: "admin", claims: &domain.TokenClaims{Role: domain.RoleAdmin}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				req = req.WithContext(context.WithValue(req.Context(), claimsContextKey, tt.claims))
			}
			rr := httptest.NewRecorder()
			m.RequireAdmin(ok).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestAuthMiddleware_RequireRole_Multiple(t *testing.T) {
	m := NewAuthMiddleware(newMockTokenAdapter())
	handler := m.RequireRole(domain.RoleAdmin, domain.RoleReader)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), claimsContextKey, &domain.TokenClaims{Role: domain.RoleReader}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

func TestGetClaims(t *testing.T) {
	if GetClaims(context.Background()) != nil {
		t.Error("expected nil claims for empty context")
	}

	ctx := context.WithValue(context.Background(), claimsContextKey, "not claims")
	if GetClaims(ctx) != nil {
		t.Error("expected nil claims for wrong type")
	}
}

func TestLoggingMiddleware(t *testing.T) {
	m := NewLoggingMiddleware(nil)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", rr.Code)
	}
}

func TestResponseWriter_CapturesStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}
	rw.WriteHeader(http.StatusNotFound)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("expected captured 404, got %d", rw.statusCode)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	m := NewRecoveryMiddleware(nil)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}
	if body := decodeError(t, rr); body != "internal server error" {
		t.Errorf("unexpected error body %q", body)
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin", func(t *testing.T) {
		handler := NewCORSMiddleware([]string{"https://painel.example"}).Handler(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://painel.example")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://painel.example" {
			t.Errorf("expected origin echoed, got %q", got)
		}
	})

	t.Run("disallowed origin", func(t *testing.T) {
		handler := NewCORSMiddleware([]string{"https://painel.example"}).Handler(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no CORS header, got %q", got)
		}
		if rr.Code != http.StatusOK {
			t.Errorf("expected request to pass through, got %d", rr.Code)
		}
	})

	t.Run("wildcard", func(t *testing.T) {
		handler := NewCORSMiddleware([]string{"*"}).Handler(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://any.example")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://any.example" {
			t.Errorf("expected origin echoed, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		called := false
		handler := NewCORSMiddleware([]string{"*"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/retrieve", nil)
		req.Header.Set("Origin", "https://any.example")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rr.Code)
		}
		if called {
			t.Error("preflight should not reach the handler")
		}
	})
}
