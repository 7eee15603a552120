// Package chi implements the HTTP transport: JSON handlers for search,
// agent runs (buffered and SSE-streamed), document ingestion, health and
// metrics, mounted on a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	chiv5 "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lorehub/lore/internal/domain"
	"github.com/lorehub/lore/internal/metrics"
	agentuc "github.com/lorehub/lore/internal/usecase/agent"
	documentuc "github.com/lorehub/lore/internal/usecase/document"
	healthuc "github.com/lorehub/lore/internal/usecase/health"
	searchuc "github.com/lorehub/lore/internal/usecase/search"
)

const maxBodySize = 1 << 20 // 1 MiB

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	search        *searchuc.Service
	agent         *agentuc.Service
	documents     *documentuc.Service
	health        *healthuc.Service
	apiKeys       []string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	agent *agentuc.Service,
	documents *documentuc.Service,
	health *healthuc.Service,
	apiKeys []string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:    search,
		agent:     agent,
		documents: documents,
		health:    health,
		apiKeys:   apiKeys,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, CodeDimensionMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeProviderError),
		sentinelHandler(domain.ErrCompletionProviderError, http.StatusBadGateway, CodeProviderError),
	}
	return s
}

// Router builds the chi router with middleware and all routes mounted.
func (s *Server) Router() http.Handler {
	r := chiv5.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chimw.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chiv5.Router) {
		r.Post("/search", s.SearchDocuments)
		r.Post("/search/rerank", s.SearchWithRerank)
		r.Post("/agent/run", s.AgentRun)
		r.Post("/agent/stream", s.AgentStream)
		r.Route("/documents", func(r chiv5.Router) {
			r.Get("/", s.ListDocuments)
			r.Put("/{id}", s.UpsertDocument)
			r.Get("/{id}", s.GetDocument)
			r.Delete("/{id}", s.DeleteDocument)
		})
	})

	return r
}

// SearchDocuments handles POST /api/v1/search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	opts := searchuc.Options{
		Limit:        req.Limit,
		Category:     req.Category,
		MinScore:     req.MinScore,
		VectorWeight: req.VectorWeight,
	}

	var (
		results []searchuc.Result
		err     error
	)
	switch req.Mode {
	case "", "rrf":
		results, err = s.search.Hybrid(ctx, req.Query, opts)
	case "weighted":
		results, err = s.search.Weighted(ctx, req.Query, opts)
	default:
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("unknown mode %q, expected rrf or weighted", req.Mode))
		return
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setUsageHeader(w, usage)
	writeJSON(w, http.StatusOK, searchResponse(results))
}

// SearchWithRerank handles POST /api/v1/search/rerank.
func (s *Server) SearchWithRerank(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.search.WithRerank(ctx, req.Query, searchuc.Options{
		Limit:    req.Limit,
		Category: req.Category,
		MinScore: req.MinScore,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setUsageHeader(w, usage)
	writeJSON(w, http.StatusOK, searchResponse(results))
}

func decodeSearchRequest(w http.ResponseWriter, r *http.Request) (SearchRequest, bool) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return SearchRequest{}, false
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query is required")
		return SearchRequest{}, false
	}
	if req.VectorWeight != nil && (*req.VectorWeight < 0 || *req.VectorWeight > 1) {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "vector_weight must be within [0, 1]")
		return SearchRequest{}, false
	}
	return req, true
}

func searchResponse(results []searchuc.Result) SearchResponse {
	items := make([]SearchResultItem, len(results))
	for i, r := range results {
		items[i] = searchResultToDTO(r)
	}
	return SearchResponse{Items: items, Total: len(items)}
}

// AgentRun handles POST /api/v1/agent/run.
func (s *Server) AgentRun(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAgentRequest(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	result, err := s.agent.Run(ctx, req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setUsageHeader(w, usage)
	writeJSON(w, http.StatusOK, agentResultToDTO(result))
}

// AgentStream handles POST /api/v1/agent/stream with Server-Sent Events:
// one "step" event per completed transcript step, then a terminal
// "result" (or "error") event.
func (s *Server) AgentStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAgentRequest(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		writeError(w, http.StatusInternalServerError, CodeInternalError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx, _ := domain.NewContextWithUsage(r.Context())
	for ev := range s.agent.RunStream(ctx, req.Query) {
		switch {
		case ev.Err != nil:
			writeSSE(w, flusher, "error", ErrorResponse{Code: CodeProviderError, Message: safeDomainMessage(ev.Err)})
		case ev.Step != nil:
			writeSSE(w, flusher, "step", ev.Step)
		case ev.Result != nil:
			writeSSE(w, flusher, "result", agentResultToDTO(*ev.Result))
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

func decodeAgentRequest(w http.ResponseWriter, r *http.Request) (AgentRunRequest, bool) {
	var req AgentRunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return AgentRunRequest{}, false
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query is required")
		return AgentRunRequest{}, false
	}
	return req, true
}

// UpsertDocument handles PUT /api/v1/documents/{id}.
func (s *Server) UpsertDocument(w http.ResponseWriter, r *http.Request) {
	id := chiv5.URLParam(r, "id")

	var req UpsertDocumentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	doc, err := s.documents.Upsert(ctx, id, req.Title, req.Content, req.Category, req.Metadata)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setUsageHeader(w, usage)
	writeJSON(w, http.StatusOK, documentToDTO(doc))
}

// GetDocument handles GET /api/v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), chiv5.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(doc))
}

// DeleteDocument handles DELETE /api/v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), chiv5.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDocuments handles GET /api/v1/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context(), domain.Filter{Category: r.URL.Query().Get("category")})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]DocumentResponse, len(docs))
	for i, d := range docs {
		items[i] = documentToDTO(d)
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Items: items, Total: len(items)})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func setUsageHeader(w http.ResponseWriter, usage *domain.TokenUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Tokens-Used", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrDocumentNotFound,
		domain.ErrInvalidInput,
		domain.ErrDimensionMismatch,
		domain.ErrEmbeddingProviderError,
		domain.ErrCompletionProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
