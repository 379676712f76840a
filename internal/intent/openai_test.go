package intent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func chatCompletionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode chat payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}))
}

func TestOpenAIResolverResolvesIntent(t *testing.T) {
	server := chatCompletionServer(t, "```json\n{\"intent\":\"metric_query\",\"metric\":\"total_spending\"}\n```")
	defer server.Close()

	resolver, err := NewOpenAIResolver(OpenAIConfig{BaseURL: server.URL, APIKey: "test-key"}, testRepo(t))
	if err != nil {
		t.Fatalf("NewOpenAIResolver() error = %v", err)
	}

	in, err := resolver.Resolve(context.Background(), "what is average total spending?")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if in.Kind != KindMetricQuery || in.Metric != "total_spending" {
		t.Fatalf("intent = %+v", in)
	}
}

func TestOpenAIResolverRejectsMalformedModelOutput(t *testing.T) {
	server := chatCompletionServer(t, `{"intent":"everything","metric":"total_spending"}`)
	defer server.Close()

	resolver, err := NewOpenAIResolver(OpenAIConfig{BaseURL: server.URL, APIKey: "test-key"}, testRepo(t))
	if err != nil {
		t.Fatalf("NewOpenAIResolver() error = %v", err)
	}

	_, err = resolver.Resolve(context.Background(), "do everything")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Resolve() error = %v, want ErrMalformed", err)
	}
}

func TestOpenAIResolverRequiresConfig(t *testing.T) {
	if _, err := NewOpenAIResolver(OpenAIConfig{APIKey: "k"}, testRepo(t)); err == nil {
		t.Fatal("NewOpenAIResolver() should require a base URL")
	}
	if _, err := NewOpenAIResolver(OpenAIConfig{BaseURL: "http://localhost"}, testRepo(t)); err == nil {
		t.Fatal("NewOpenAIResolver() should require an api key")
	}
}
