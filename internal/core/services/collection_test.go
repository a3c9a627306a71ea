package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

func TestCollectionService_CreateAndGet(t *testing.T) {
	svc := NewCollectionService(newMockCollectionStore(), newMockDocStore())

	col := &domain.Collection{Name: "notes", Locator: "./docs", Kind: "filesystem", Boost: 1.5}
	require.NoError(t, svc.Create(context.Background(), col))
	assert.NotEmpty(t, col.ID)

	got, err := svc.Get(context.Background(), "notes")
	require.NoError(t, err)
	assert.Equal(t, col.ID, got.ID)
	assert.Equal(t, 1.5, got.Boost)
}

func TestCollectionService_CreateDuplicateName(t *testing.T) {
	svc := NewCollectionService(newMockCollectionStore(), newMockDocStore())

	require.NoError(t, svc.Create(context.Background(), &domain.Collection{Name: "notes", Locator: "./docs", Kind: "filesystem"}))
	err := svc.Create(context.Background(), &domain.Collection{Name: "notes", Locator: "./docs", Kind: "filesystem"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCollectionService_CreateInvalid(t *testing.T) {
	svc := NewCollectionService(newMockCollectionStore(), newMockDocStore())

	err := svc.Create(context.Background(), &domain.Collection{Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCollectionService_GetUnknown(t *testing.T) {
	svc := NewCollectionService(newMockCollectionStore(), newMockDocStore())

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrUnknownCollection)
}

func TestCollectionService_RemoveCascades(t *testing.T) {
	cols := newMockCollectionStore(domain.Collection{ID: "col-1", Name: "notes"})
	docStore := newMockDocStore()
	docStore.add(
		domain.Document{ID: "doc-a", CollectionID: "col-1", Path: "a.md"},
		domain.Chunk{ID: "chunk-a", Position: 0, Content: "body"},
	)
	svc := NewCollectionService(cols, docStore)

	require.NoError(t, svc.Remove(context.Background(), "notes"))

	_, err := svc.Get(context.Background(), "notes")
	assert.ErrorIs(t, err, domain.ErrUnknownCollection)
	_, err = docStore.GetDocument(context.Background(), "doc-a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = docStore.GetChunk(context.Background(), "chunk-a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
