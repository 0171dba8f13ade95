package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvire/fartemis/internal/infrastructure/persistence"
	"github.com/solvire/fartemis/resolution"
	"github.com/solvire/fartemis/resolution/types"
)

// stubProvider провайдер с фиксированным ответом для тестов сервера
type stubProvider struct {
	name    string
	payload interface{}
	down    bool
}

func (p *stubProvider) Search(ctx context.Context, criteria types.SearchCriteria) ([]types.RawResult, error) {
	return []types.RawResult{{SourceID: p.name, Payload: p.payload, FetchedAt: time.Now()}}, nil
}

func (p *stubProvider) GetName() string             { return p.name }
func (p *stubProvider) IsAvailable() bool           { return !p.down }
func (p *stubProvider) GetRateLimit() time.Duration { return time.Millisecond }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	provider := &stubProvider{
		name: "duckduckgo",
		payload: []interface{}{
			map[string]interface{}{
				"url":     "https://linkedin.com/in/janesmith",
				"title":   "Jane Smith - Engineer",
				"snippet": "Jane Smith works at Acme as an engineer",
			},
		},
	}

	reliability := resolution.NewReliabilityTracker()
	engine, err := resolution.NewEngine(resolution.EngineConfig{
		Providers:   map[string]types.SearchProviderInterface{"duckduckgo": provider},
		Reliability: reliability,
	})
	require.NoError(t, err)

	repo, err := persistence.NewLookupRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return NewServer(
		&Config{Port: "8080", Cache: &CacheConfig{Enabled: true, TTL: time.Minute}},
		engine,
		reliability,
		repo,
		nil,
	)
}

func doRequest(srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	srv.buildHTTPHandler().ServeHTTP(recorder, req)
	return recorder
}

func TestHandleLookup(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(LookupRequest{
		FirstName: "Jane", LastName: "Smith", Company: "Acme",
	})
	recorder := doRequest(srv, http.MethodPost, "/api/lookup", body)

	require.Equal(t, http.StatusOK, recorder.Code)

	var result types.ResolutionResult
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	assert.Equal(t, types.StatusResolved, result.Status)
	require.NotNil(t, result.BestCandidate)
	assert.Equal(t, "https://linkedin.com/in/janesmith", result.BestCandidate.Candidate.URL)

	// Результат сохранен в историю
	record, err := srv.repo.GetByRunID(result.RunID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, string(types.StatusResolved), record.Status)
}

func TestHandleLookupAllProvidersDown(t *testing.T) {
	provider := &stubProvider{name: "duckduckgo", down: true}

	reliability := resolution.NewReliabilityTracker()
	engine, err := resolution.NewEngine(resolution.EngineConfig{
		Providers:   map[string]types.SearchProviderInterface{"duckduckgo": provider},
		Reliability: reliability,
	})
	require.NoError(t, err)

	srv := NewServer(
		&Config{Port: "8080", Cache: &CacheConfig{Enabled: false}},
		engine,
		reliability,
		nil,
		nil,
	)

	body, _ := json.Marshal(LookupRequest{FirstName: "Jane", LastName: "Smith"})
	recorder := doRequest(srv, http.MethodPost, "/api/lookup", body)

	// Запуск без единого доступного провайдера не стартует
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Equal(t, "Провайдеры поиска недоступны", payload["message"])
}

func TestHandleLookupServesFromCache(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(LookupRequest{FirstName: "Jane", LastName: "Smith"})

	first := doRequest(srv, http.MethodPost, "/api/lookup", body)
	require.Equal(t, http.StatusOK, first.Code)

	second := doRequest(srv, http.MethodPost, "/api/lookup", body)
	require.Equal(t, http.StatusOK, second.Code)

	// Повторный запрос отдается из кэша: идентификатор запуска не меняется
	var a, b types.ResolutionResult
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a.RunID, b.RunID)

	stats := srv.cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
}

func TestHandleLookupValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "missing last name", body: `{"first_name":"Jane"}`},
		{name: "malformed json", body: `{"first_name":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := doRequest(srv, http.MethodPost, "/api/lookup", []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestHandleListLookups(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(LookupRequest{FirstName: "Jane", LastName: "Smith"})
	require.Equal(t, http.StatusOK, doRequest(srv, http.MethodPost, "/api/lookup", body).Code)

	recorder := doRequest(srv, http.MethodGet, "/api/lookups", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Lookups []persistence.LookupRecord `json:"lookups"`
		Count   int                        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Count)
	require.Len(t, response.Lookups, 1)
	assert.Equal(t, "Jane", response.Lookups[0].FirstName)
}

func TestHandleListLookupsBadLimit(t *testing.T) {
	srv := newTestServer(t)

	recorder := doRequest(srv, http.MethodGet, "/api/lookups?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doRequest(srv, http.MethodGet, "/api/lookups?limit=-5", nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandleGetLookupNotFound(t *testing.T) {
	srv := newTestServer(t)

	recorder := doRequest(srv, http.MethodGet, "/api/lookups/no-such-run", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHandleExportLookups(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(LookupRequest{FirstName: "Jane", LastName: "Smith"})
	require.Equal(t, http.StatusOK, doRequest(srv, http.MethodPost, "/api/lookup", body).Code)

	recorder := doRequest(srv, http.MethodGet, "/api/lookups/export", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Header().Get("Content-Disposition"), "lookups_")
	assert.NotEmpty(t, recorder.Body.Bytes())
}

func TestHandleProviderStats(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(LookupRequest{FirstName: "Jane", LastName: "Smith"})
	require.Equal(t, http.StatusOK, doRequest(srv, http.MethodPost, "/api/lookup", body).Code)

	recorder := doRequest(srv, http.MethodGet, "/api/providers/stats", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Contains(t, response, "providers")
	assert.Contains(t, response, "cache")
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)

	recorder := doRequest(srv, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
}
