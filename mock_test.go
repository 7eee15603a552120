package lore

import (
	"context"

	"github.com/lorehub/lore/internal/domain"
	agentuc "github.com/lorehub/lore/internal/usecase/agent"
	healthuc "github.com/lorehub/lore/internal/usecase/health"
	searchuc "github.com/lorehub/lore/internal/usecase/search"
)

// --- Mocks ---

type mockSearch struct {
	lastMethod string
	lastOpts   searchuc.Options
	results    []searchuc.Result
	err        error
}

func (m *mockSearch) Hybrid(_ context.Context, _ string, opts searchuc.Options) ([]searchuc.Result, error) {
	m.lastMethod = "hybrid"
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearch) Weighted(_ context.Context, _ string, opts searchuc.Options) ([]searchuc.Result, error) {
	m.lastMethod = "weighted"
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearch) WithRerank(_ context.Context, _ string, opts searchuc.Options) ([]searchuc.Result, error) {
	m.lastMethod = "rerank"
	m.lastOpts = opts
	return m.results, m.err
}

type mockDocs struct {
	docs map[string]domain.Document
	err  error
}

func newMockDocs() *mockDocs {
	return &mockDocs{docs: make(map[string]domain.Document)}
}

func (m *mockDocs) Upsert(_ context.Context, id, title, content, category string, metadata map[string]string) (domain.Document, error) {
	if m.err != nil {
		return domain.Document{}, m.err
	}
	doc := domain.ReconstructDocument(id, title, content, category, nil, metadata)
	m.docs[id] = doc
	return doc, nil
}

func (m *mockDocs) Get(_ context.Context, id string) (domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (m *mockDocs) Delete(_ context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *mockDocs) List(_ context.Context, filter domain.Filter) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range m.docs {
		if filter.Category == "" || doc.Category() == filter.Category {
			out = append(out, doc)
		}
	}
	return out, nil
}

type mockAgent struct {
	result agentuc.Result
	err    error
}

func (m *mockAgent) Run(_ context.Context, _ string) (agentuc.Result, error) {
	return m.result, m.err
}

func (m *mockAgent) RunStream(_ context.Context, _ string) <-chan agentuc.Event {
	out := make(chan agentuc.Event, len(m.result.Steps)+1)
	go func() {
		defer close(out)
		if m.err != nil {
			out <- agentuc.Event{Err: m.err}
			return
		}
		for i := range m.result.Steps {
			out <- agentuc.Event{Step: &m.result.Steps[i]}
		}
		result := m.result
		out <- agentuc.Event{Result: &result}
	}()
	return out
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// newTestClient wires a Client over mocks, bypassing New.
func newTestClient(search *mockSearch, docs *mockDocs, agent *mockAgent, health *mockHealth) *Client {
	return &Client{
		searchSvc: search,
		docSvc:    docs,
		agentSvc:  agent,
		healthSvc: health,
	}
}
