package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rowandev/apilot/internal/agent"
	"github.com/rowandev/apilot/internal/cache"
	"github.com/rowandev/apilot/internal/catalog"
	"github.com/rowandev/apilot/internal/lexicon"
	"github.com/rowandev/apilot/internal/provider"
	"github.com/rowandev/apilot/internal/similarity"
	"go.uber.org/zap"
)

// echoProvider answers every chat with a fixed string.
type echoProvider struct{ answer string }

func (e echoProvider) ID() string   { return "echo" }
func (e echoProvider) Name() string { return "Echo" }

func (e echoProvider) Chat(context.Context, *provider.ChatRequest) (*provider.ChatResponse, error) {
	return &provider.ChatResponse{Content: e.answer, FinishReason: "stop"}, nil
}

func (e echoProvider) ChatStream(context.Context, *provider.ChatRequest) (<-chan *provider.StreamChunk, error) {
	ch := make(chan *provider.StreamChunk, 2)
	ch <- &provider.StreamChunk{Content: e.answer}
	ch <- &provider.StreamChunk{Done: true}
	close(ch)
	return ch, nil
}

func (e echoProvider) ListModels(context.Context) ([]provider.Model, error) { return nil, nil }
func (e echoProvider) HealthCheck(context.Context) error                    { return nil }

func newTestHandler(t *testing.T) (*Handler, *cache.ResponseCache) {
	t.Helper()
	logger := zap.NewNop()

	router := provider.NewRouter(logger)
	router.Register(echoProvider{answer: "fresh answer"})

	matcher := similarity.NewMatcher(lexicon.Builtin(), similarity.DefaultOptions(), logger)
	rc := cache.New(cache.NewMemoryStore(), matcher, logger)

	cat := catalog.New()
	inv := catalog.NewInvoker(cat, 0, logger)
	assistant := agent.NewAssistant(router, rc, cat, inv, nil, agent.DefaultOptions(), logger)

	return NewHandler(assistant, rc, matcher, cat, router, logger), rc
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h.Router(), http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAskEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	router := h.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/ask",
		map[string]string{"text": "list users", "owner_id": "u1"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var first agent.AskResult
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("first ask should not be cached")
	}
	if first.Content != "fresh answer" {
		t.Errorf("content = %q", first.Content)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/ask",
		map[string]string{"text": "list users", "owner_id": "u1"}, nil)
	var second agent.AskResult
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("second ask should be cached")
	}
}

func TestAskBypassHeader(t *testing.T) {
	h, _ := newTestHandler(t)
	router := h.Router()

	doJSON(t, router, http.MethodPost, "/api/ask",
		map[string]string{"text": "list users", "owner_id": "u1"}, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/ask",
		map[string]string{"text": "list users", "owner_id": "u1"},
		map[string]string{BypassHeader: "1"})
	var result agent.AskResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Cached {
		t.Error("bypass header must skip the cache")
	}
}

func TestAskValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h.Router(), http.MethodPost, "/api/ask",
		map[string]string{"text": "hi"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSimilarityEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h.Router(), http.MethodPost, "/api/similarity",
		map[string]string{"a": "create user", "b": "add new user"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp similarityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Similar {
		t.Errorf("expected similar, got score %v tier %s", resp.Score, resp.Tier)
	}
	if resp.Tier != string(similarity.TierHigh) {
		t.Errorf("tier = %s, want high", resp.Tier)
	}
}

func TestListCacheEndpoint(t *testing.T) {
	h, rc := newTestHandler(t)
	if _, err := rc.Set(context.Background(), "create user", nil, "u1", "done"); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, h.Router(), http.MethodGet, "/api/cache/u1?q=add+new+user", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var scored []cache.ScoredEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &scored); err != nil {
		t.Fatal(err)
	}
	if len(scored) != 1 {
		t.Fatalf("got %d entries, want 1", len(scored))
	}

	// Other owners see nothing.
	rec = doJSON(t, h.Router(), http.MethodGet, "/api/cache/u2?q=add+new+user", nil, nil)
	scored = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &scored); err != nil {
		t.Fatal(err)
	}
	if len(scored) != 0 {
		t.Errorf("cross-owner listing returned %d entries", len(scored))
	}
}

func TestCatalogEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)
	router := h.Router()

	op := catalog.Operation{
		Name:        "get_user",
		Description: "Fetch a user",
		Method:      "GET",
		Path:        "/users/{id}",
		BaseURL:     "http://example.com",
	}
	rec := doJSON(t, router, http.MethodPost, "/api/catalog", op, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/catalog", nil, nil)
	var ops []catalog.Operation
	if err := json.Unmarshal(rec.Body.Bytes(), &ops); err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 || ops[0].Name != "get_user" {
		t.Errorf("ops = %+v", ops)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/catalog",
		catalog.Operation{Name: "bad"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid op status = %d, want 400", rec.Code)
	}
}

func TestListProvidersEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h.Router(), http.MethodGet, "/api/providers", nil, nil)
	var infos []providerInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].ID != "echo" {
		t.Errorf("providers = %+v", infos)
	}
}
