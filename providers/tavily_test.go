package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/solvire/fartemis/resolution/types"
)

func TestNewTavilyProvider(t *testing.T) {
	provider := NewTavilyProvider("test-key", 5*time.Second, time.Millisecond)

	if provider == nil {
		t.Fatal("NewTavilyProvider returned nil")
	}

	if provider.GetName() != "tavily" {
		t.Errorf("Expected name 'tavily', got '%s'", provider.GetName())
	}

	if !provider.IsAvailable() {
		t.Error("Tavily provider with key should be available")
	}
}

func TestTavilyProvider_UnavailableWithoutKey(t *testing.T) {
	provider := NewTavilyProvider("", 5*time.Second, time.Millisecond)

	if provider.IsAvailable() {
		t.Error("Tavily provider without key should not be available")
	}
}

func TestTavilyProvider_Search(t *testing.T) {
	var gotRequest tavilyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"url":"https://linkedin.com/in/janesmith","title":"Jane Smith","content":"engineer at Acme"}]}`))
	}))
	defer server.Close()

	provider := NewTavilyProvider("test-key", 5*time.Second, time.Millisecond)
	provider.baseURL = server.URL

	results, err := provider.Search(context.Background(), types.SearchCriteria{
		FirstName: "Jane", LastName: "Smith", Company: "Acme",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotRequest.APIKey != "test-key" {
		t.Errorf("unexpected api key: %q", gotRequest.APIKey)
	}
	if gotRequest.Query != "Jane Smith Acme linkedin" {
		t.Errorf("unexpected query: %q", gotRequest.Query)
	}
	if gotRequest.SearchDepth != "basic" {
		t.Errorf("unexpected search depth: %q", gotRequest.SearchDepth)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 raw result, got %d", len(results))
	}
	// Контейнер с ключом results передается нормализатору как есть
	payload, ok := results[0].Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected payload shape: %#v", results[0].Payload)
	}
	if _, ok := payload["results"]; !ok {
		t.Error("payload should keep the results container key")
	}
}

func TestTavilyProvider_SearchErrors(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		wantKind        types.ProviderErrorKind
		wantUnavailable bool
	}{
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			wantKind: types.ErrKindRateLimited,
		},
		{
			name:            "invalid key",
			status:          http.StatusUnauthorized,
			wantKind:        types.ErrKindUnavailable,
			wantUnavailable: true,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			wantKind: types.ErrKindUnavailable,
		},
		{
			name:     "malformed body",
			status:   http.StatusOK,
			body:     "not json",
			wantKind: types.ErrKindUnparseable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider := NewTavilyProvider("test-key", 5*time.Second, time.Millisecond)
			provider.baseURL = server.URL

			_, err := provider.Search(context.Background(), types.SearchCriteria{
				FirstName: "Jane", LastName: "Smith",
			})

			var provErr *types.ProviderError
			if !errors.As(err, &provErr) {
				t.Fatalf("Expected ProviderError, got %T", err)
			}
			if provErr.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", provErr.Kind, tt.wantKind)
			}
			if tt.wantUnavailable && provider.IsAvailable() {
				t.Error("provider should be unavailable after auth failure")
			}
		})
	}
}
