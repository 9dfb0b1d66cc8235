package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ziadkadry99/chunkdoc/internal/backend"
	"github.com/ziadkadry99/chunkdoc/internal/cache"
	"github.com/ziadkadry99/chunkdoc/internal/chunker"
	"github.com/ziadkadry99/chunkdoc/internal/coordinator"
	"github.com/ziadkadry99/chunkdoc/internal/costlog"
	"github.com/ziadkadry99/chunkdoc/internal/db"
	"github.com/ziadkadry99/chunkdoc/internal/docgen"
	"github.com/ziadkadry99/chunkdoc/internal/generator"
)

type stubGenerator struct {
	calls atomic.Int64
	fail  error
}

func (g *stubGenerator) Generate(_ context.Context, req generator.Request) (*generator.Result, error) {
	g.calls.Add(1)
	if g.fail != nil {
		return nil, g.fail
	}
	return &generator.Result{
		Documentation: "# Title\n\n```python\nx = 1\n```\n\nDocs for " + req.FilePath,
		Usage:         generator.Usage{TotalTokens: 42, TotalCost: decimal.RequireFromString("0.001")},
	}, nil
}

type testEnv struct {
	srv   *Server
	gen   *stubGenerator
	cache *cache.ContentCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cc := cache.New(backend.NewSQLite(database), cache.Options{})
	ch, err := chunker.New(chunker.Options{MaxChunkLines: 20, MinChunkLines: 5, OverlapLines: 2})
	if err != nil {
		t.Fatalf("chunker.New: %v", err)
	}
	gen := &stubGenerator{}
	coord := coordinator.New(cc, gen, coordinator.Options{})
	ledger := costlog.NewStore(database)
	svc := docgen.New(cc, ch, gen, coord, docgen.Options{Model: "gpt-4o", Ledger: ledger})

	return &testEnv{
		srv:   New(Config{Port: 0}, svc, cc, ledger, nil),
		gen:   gen,
		cache: cc,
	}
}

func (e *testEnv) do(method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(w, req)
	return w
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response {
	t.Helper()
	var r response
	if err := json.Unmarshal(w.Body.Bytes(), &r); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return r
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := New(Config{Port: 0, AllowAll: true}, nil, nil, nil, nil)

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestDocumentEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/docs", map[string]string{
		"file_path":    "app.py",
		"file_content": "def main():\n    pass\n",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	r := decode(t, w)
	if !r.Success || r.Message == "" {
		t.Errorf("unexpected envelope: %+v", r)
	}
	var res docgen.Result
	if err := json.Unmarshal(r.Data, &res); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if res.Status != docgen.StatusCompleted || res.Cached || res.Chunked {
		t.Errorf("unexpected result: %+v", res)
	}
	if !strings.Contains(res.Documentation, "Docs for app.py") {
		t.Errorf("unexpected documentation: %q", res.Documentation)
	}
	if res.TotalCost.String() != "0.001" {
		t.Errorf("total_cost = %s, want 0.001", res.TotalCost)
	}

	// Second call is served from the cache.
	w = env.do("POST", "/api/docs", map[string]string{
		"file_path":    "app.py",
		"file_content": "def main():\n    pass\n",
	})
	json.Unmarshal(decode(t, w).Data, &res)
	if !res.Cached || env.gen.calls.Load() != 1 {
		t.Errorf("expected cache hit, cached=%v calls=%d", res.Cached, env.gen.calls.Load())
	}
}

func TestDocumentEndpointHTML(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/docs?format=html", map[string]string{
		"file_path":    "app.py",
		"file_content": "x = 1\n",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var data struct {
		Documentation string `json:"documentation"`
		HTML          string `json:"html"`
	}
	json.Unmarshal(decode(t, w).Data, &data)
	if data.Documentation == "" || !strings.Contains(data.HTML, "<h1") {
		t.Errorf("expected markdown and html, got %+v", data)
	}
}

func TestDocumentEndpointChunked(t *testing.T) {
	env := newTestEnv(t)
	var b strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "v%d = %d\n", i, i)
	}

	w := env.do("POST", "/api/docs", map[string]string{"file_path": "big.py", "file_content": b.String()})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res docgen.Result
	json.Unmarshal(decode(t, w).Data, &res)
	if !res.Chunked || res.Chunking == nil || res.Chunking.TotalChunks != 3 {
		t.Errorf("unexpected chunked result: %+v", res)
	}
}

func TestDocumentEndpointErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing content", map[string]string{"file_path": "a.py"}, http.StatusBadRequest},
		{"unsupported", map[string]string{"file_path": "a.xyz", "file_content": "x"}, http.StatusBadRequest},
		{"not json", "just a string", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("POST", "/api/docs", tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
			r := decode(t, w)
			if r.Success || r.Error == "" {
				t.Errorf("expected error envelope, got %+v", r)
			}
		})
	}

	env.gen.fail = fmt.Errorf("provider down")
	w := env.do("POST", "/api/docs", map[string]string{"file_path": "b.py", "file_content": "y = 2"})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for generation failure, got %d", w.Code)
	}
}

func TestEstimateEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/docs/estimate", map[string]string{"file_path": "a.py", "file_content": "x = 1\n"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var est docgen.Estimate
	json.Unmarshal(decode(t, w).Data, &est)
	if est.TotalChunks != 1 || est.CachedChunks != 0 || est.EstimatedTokens == 0 {
		t.Errorf("unexpected estimate: %+v", est)
	}
	if env.gen.calls.Load() != 0 {
		t.Error("estimate must not call the generator")
	}
}

func TestCacheEndpoints(t *testing.T) {
	env := newTestEnv(t)
	content := "x = 1\n"
	env.do("POST", "/api/docs", map[string]string{"file_path": "a.py", "file_content": content})
	key := cache.FileKey(content)

	w := env.do("GET", "/api/cache/"+strings.ToUpper(key.String()), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET entry: expected 200, got %d", w.Code)
	}
	var entry cache.Entry
	json.Unmarshal(decode(t, w).Data, &entry)
	if entry.FilePath != "a.py" || entry.Key != key {
		t.Errorf("unexpected entry: %+v", entry)
	}

	w = env.do("GET", "/api/cache/stats", nil)
	var stats cache.Stats
	json.Unmarshal(decode(t, w).Data, &stats)
	if stats.ItemCount != 1 || stats.Status != "ACTIVE" {
		t.Errorf("unexpected stats: %+v", stats)
	}

	if w := env.do("GET", "/api/cache/not-a-key", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad key: expected 400, got %d", w.Code)
	}

	if w := env.do("DELETE", "/api/cache/"+key.String(), nil); w.Code != http.StatusOK {
		t.Errorf("DELETE: expected 200, got %d", w.Code)
	}
	if w := env.do("GET", "/api/cache/"+key.String(), nil); w.Code != http.StatusNotFound {
		t.Errorf("after delete: expected 404, got %d", w.Code)
	}
}

func TestCostEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.do("POST", "/api/docs", map[string]string{"file_path": "a.py", "file_content": "x = 1\n"})

	w := env.do("GET", "/api/costs/summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var sum costlog.Summary
	json.Unmarshal(decode(t, w).Data, &sum)
	if sum.Requests != 1 || sum.TotalCost.String() != "0.001" {
		t.Errorf("unexpected summary: %+v", sum)
	}
}
