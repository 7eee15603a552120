package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/lorehub/lore/internal/domain"
	"github.com/lorehub/lore/internal/tool"
	agentuc "github.com/lorehub/lore/internal/usecase/agent"
	documentuc "github.com/lorehub/lore/internal/usecase/document"
	healthuc "github.com/lorehub/lore/internal/usecase/health"
	searchuc "github.com/lorehub/lore/internal/usecase/search"
)

// --- Fakes ---

type fakeRepo struct {
	docs map[string]domain.Document
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: make(map[string]domain.Document)}
}

func (f *fakeRepo) Upsert(_ context.Context, doc *domain.Document) error {
	f.docs[doc.ID()] = *doc
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.docs[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeRepo) Query(_ context.Context, filter domain.Filter) ([]domain.Document, error) {
	var out []domain.Document
	for _, d := range f.docs {
		if filter.Category == "" || d.Category() == filter.Category {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0}, TotalTokens: 4}, nil
}

type fakeCompleter struct {
	reply string
}

func (f *fakeCompleter) Complete(context.Context, domain.CompletionRequest) (domain.CompletionResult, error) {
	return domain.CompletionResult{Text: f.reply, TotalTokens: 9}, nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

// --- Harness ---

type harness struct {
	repo   *fakeRepo
	router http.Handler
}

func newHarness(t *testing.T, embed *fakeEmbedder, pinger *fakePinger, agentReply string) *harness {
	t.Helper()
	repo := newFakeRepo()

	searchSvc := searchuc.New(repo, embed, searchuc.Defaults{Limit: 10}, nil)
	docSvc := documentuc.New(repo, embed)
	healthSvc := healthuc.New(pinger, nil, nil)

	reg, err := tool.NewRegistry(tool.NewCalculator())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	agentSvc := agentuc.New(&fakeCompleter{reply: agentReply}, reg, agentuc.Config{})

	srv := NewServer(searchSvc, agentSvc, docSvc, healthSvc, nil, zap.NewNop())
	return &harness{repo: repo, router: srv.Router()}
}

func (h *harness) seed(id, title, content, category string) {
	doc := domain.ReconstructDocument(id, title, content, category, []float32{1, 0}, nil)
	h.repo.docs[id] = doc
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestSearchEndpoint(t *testing.T) {
	h := newHarness(t, &fakeEmbedder{}, &fakePinger{}, "")
	h.seed("d1", "Go install guide", "how to install Go", "docs")
	h.seed("n1", "release news", "Go release announced", "news")

	rr := h.do(t, "POST", "/api/v1/search", SearchRequest{Query: "install Go", Limit: 5})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total == 0 {
		t.Fatal("expected at least one hit")
	}
	if rr.Header().Get("X-Tokens-Used") == "" {
		t.Error("missing X-Tokens-Used header")
	}
}

func TestSearchCategoryFilter(t *testing.T) {
	h := newHarness(t, &fakeEmbedder{}, &fakePinger{}, "")
	h.seed("d1", "Go guide", "install Go", "docs")
	h.seed("n1", "Go news", "Go released", "news")

	rr := h.do(t, "POST", "/api/v1/search", SearchRequest{Query: "Go", Category: "news"})
	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, item := range resp.Items {
		if item.Category != "news" {
			t.Errorf("item %s category = %q, want news", item.ID, item.Category)
		}
	}
}

func TestSearchMissingQuery(t *testing.T) {
	h := newHarness(t, &fakeEmbedder{}, &fakePinger{}, "")

	rr := h.do(t, "POST", "/api/v1/search", SearchRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != CodeValidationFailed {
		t.Errorf("code = %s, want %s", errResp.Code, CodeValidationFailed)
	}
}

func TestSearchUnknownMode(t *testing.T) {
	h := newHarness(t, &fakeEmbedder{}, &fakePinger{}, "")

	rr := h.do(t, "POST", "/api/v1/search", SearchRequest{Query: "q", Mode: "neural"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestSearchVectorWeightOutOfRange(t *testing.T) {
	h := newHarness(t, &fakeEmbedder{}, &fakePinger{}, "")

	w := 1.5
	rr := h.do(t, "POST", "/api/v1/search", SearchRequest{Query: "q", Mode: "weighted", VectorWeight: &w})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != CodeValidationFailed {
		t.Errorf("code = %s, want %s", errResp.Code, CodeValidationFailed)
	}
}

func TestSearchProviderError(t *testing.T) {
	h := newHarness(t, &fakeEmbedder{err: domain.ErrEmbeddingProviderError}, &fakePinger{}, "")
	h.seed("d1", "t", "c", "docs")

	rr := h.do(t, "POST", "/api/v1/search", SearchRequest{Query: "q"})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != CodeProviderError {
		t.Errorf("code = %s, want %s", errResp.Code, CodeProviderError)
	}
}

func TestRerankEndpoint(t *testing.T) {
	h := newHarness(t, &fakeEmbedder{}, &fakePinger{}, "")
	h.seed("d1", "exact match title", "body", "docs")
	h.seed("d2", "other", "mentions exact match title inline", "docs")

	rr := h.do(t, "POST", "/api/v1/search/rerank", SearchRequest{Query: "exact match title", Limit: 2})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].ID != "d1" {
		t.Errorf("expected title match first, got %+v", resp.Items)
	}
}

func TestAgentRunEndpoint(t *testing.T) {
	h := newHarness(t, &fakeEmbedder{}, &fakePinger{}, "Thought: done.\nFinal Answer: the answer")

	rr := h.do(t, "POST", "/api/v1/agent/run", AgentRunRequest{Query: "q"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp AgentRunResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "the answer" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.RunID == "" || resp.Iterations != 1 {
		t.Errorf("run_id = %q, iterations = %d", resp.RunID, resp.Iterations)
	}
	if rr.Header().Get("X-Tokens-Used") == "" {
		t.Error("missing X-Tokens-Used header")
	}
}

func TestAgentStreamEndpoint(t *testing.T) {
	h := newHarness(t, &fakeEmbedder{}, &fakePinger{}, "Final Answer: streamed")

	rr := h.do(t, "POST", "/api/v1/agent/stream", AgentRunRequest{Query: "q"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "event: step") {
		t.Errorf("stream missing step event:\n%s", body)
	}
	if !strings.Contains(body, "event: result") {
		t.Errorf("stream missing result event:\n%s", body)
	}
	if !strings.Contains(body, "streamed") {
		t.Errorf("stream missing answer:\n%s", body)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	h := newHarness(t, &fakeEmbedder{}, &fakePinger{}, "")

	rr := h.do(t, "PUT", "/api/v1/documents/d1", UpsertDocumentRequest{
		Title: "guide", Content: "how to", Category: "docs",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("upsert status = %d, body %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Tokens-Used") != "4" {
		t.Errorf("X-Tokens-Used = %q, want 4", rr.Header().Get("X-Tokens-Used"))
	}
	if stored := h.repo.docs["d1"]; stored.Embedding() == nil {
		t.Error("stored document has no embedding")
	}

	rr = h.do(t, "GET", "/api/v1/documents/d1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	var doc DocumentResponse
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.Title != "guide" {
		t.Errorf("title = %q", doc.Title)
	}

	rr = h.do(t, "GET", "/api/v1/documents/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}

	rr = h.do(t, "DELETE", "/api/v1/documents/d1", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}

	rr = h.do(t, "GET", "/api/v1/documents/d1", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rr.Code)
	}
}

func TestUpsertValidation(t *testing.T) {
	h := newHarness(t, &fakeEmbedder{}, &fakePinger{}, "")

	rr := h.do(t, "PUT", "/api/v1/documents/d1", UpsertDocumentRequest{Title: "t"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for empty content", rr.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newHarness(t, &fakeEmbedder{}, &fakePinger{}, "")

	rr := h.do(t, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestHealthDegraded(t *testing.T) {
	h := newHarness(t, &fakeEmbedder{}, &fakePinger{err: errors.New("down")}, "")

	rr := h.do(t, "GET", "/health", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, &fakeEmbedder{}, &fakePinger{}, "")

	rr := h.do(t, "GET", "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}
