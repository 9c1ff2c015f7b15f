package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func stubServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "boom", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateMaterial(t *testing.T) {
	srv := stubServer(t, `{"sections": []}`, http.StatusOK)
	c := New(srv.URL, "test-key", "test-model")

	got, err := c.GenerateMaterial(context.Background(), "fill the template")
	if err != nil {
		t.Fatalf("GenerateMaterial: %v", err)
	}
	if got != `{"sections": []}` {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestGenerateMaterialAPIError(t *testing.T) {
	srv := stubServer(t, "", http.StatusInternalServerError)
	c := New(srv.URL, "test-key", "test-model")

	_, err := c.GenerateMaterial(context.Background(), "fill the template")
	if err == nil {
		t.Fatal("expected error from failing endpoint")
	}
	if !strings.Contains(err.Error(), "LLM API call") {
		t.Fatalf("error not wrapped: %v", err)
	}
}

func TestGenerateMaterialNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, "test-key", "test-model")

	_, err := c.GenerateMaterial(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Fatalf("expected no-choices error, got %v", err)
	}
}

func TestPing(t *testing.T) {
	srv := stubServer(t, "pong", http.StatusOK)
	c := New(srv.URL, "test-key", "test-model")
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
