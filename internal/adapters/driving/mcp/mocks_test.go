package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockCollectionService struct {
	cols []domain.Collection
	err  error
}

func (m *mockCollectionService) Create(_ context.Context, col *domain.Collection) error {
	m.cols = append(m.cols, *col)
	return m.err
}

func (m *mockCollectionService) Get(_ context.Context, name string) (*domain.Collection, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.cols {
		if m.cols[i].Name == name {
			return &m.cols[i], nil
		}
	}
	return nil, domain.ErrUnknownCollection
}

func (m *mockCollectionService) List(_ context.Context) ([]domain.Collection, error) {
	return m.cols, m.err
}

func (m *mockCollectionService) Remove(_ context.Context, _ string) error {
	return m.err
}

type mockDocumentStore struct {
	docs map[string]domain.Document
}

func (m *mockDocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if m.docs == nil {
		m.docs = make(map[string]domain.Document)
	}
	m.docs[doc.ID] = *doc
	return nil
}

func (m *mockDocumentStore) SaveChunks(_ context.Context, _ []domain.Chunk) error { return nil }

func (m *mockDocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *mockDocumentStore) GetDocumentByPath(_ context.Context, _, _ string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocumentStore) GetChunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockDocumentStore) GetChunk(_ context.Context, _ string) (*domain.Chunk, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocumentStore) TombstoneChunk(_ context.Context, _ string) error { return nil }

func (m *mockDocumentStore) DeleteDocument(_ context.Context, id string) error {
	delete(m.docs, id)
	return nil
}

func (m *mockDocumentStore) ListDocuments(_ context.Context, collectionID string) ([]domain.Document, error) {
	var docs []domain.Document
	for _, doc := range m.docs {
		if doc.CollectionID == collectionID {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *mockDocumentStore) LiveIdentities(_ context.Context) (map[string]struct{}, error) {
	return nil, nil
}
