package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-engine/internal/logger"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService manages collection configurations.
type CollectionService struct {
	store    driven.CollectionStore
	docStore driven.DocumentStore
}

// NewCollectionService creates a new collection service.
func NewCollectionService(store driven.CollectionStore, docStore driven.DocumentStore) *CollectionService {
	return &CollectionService{store: store, docStore: docStore}
}

// Create registers a new collection. Names are unique.
func (s *CollectionService) Create(ctx context.Context, col *domain.Collection) error {
	if err := col.Validate(); err != nil {
		return err
	}

	if _, err := s.store.GetByName(ctx, col.Name); err == nil {
		return fmt.Errorf("%w: collection %q", domain.ErrAlreadyExists, col.Name)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check collection %q: %w", col.Name, err)
	}

	if col.ID == "" {
		col.ID = uuid.NewString()
	}

	if err := s.store.Save(ctx, col); err != nil {
		return fmt.Errorf("save collection: %w", err)
	}
	logger.Info("Created collection %q (%s)", col.Name, col.ID)
	return nil
}

// Get retrieves a collection by name.
func (s *CollectionService) Get(ctx context.Context, name string) (*domain.Collection, error) {
	col, err := s.store.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCollection, name)
		}
		return nil, err
	}
	return col, nil
}

// List returns all collections.
func (s *CollectionService) List(ctx context.Context) ([]domain.Collection, error) {
	return s.store.List(ctx)
}

// Remove deletes a collection along with its documents and chunks.
func (s *CollectionService) Remove(ctx context.Context, name string) error {
	col, err := s.Get(ctx, name)
	if err != nil {
		return err
	}

	docs, err := s.docStore.ListDocuments(ctx, col.ID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	for _, doc := range docs {
		if err := s.docStore.DeleteDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("delete document %s: %w", doc.Path, err)
		}
	}

	if err := s.store.Delete(ctx, col.ID); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	logger.Info("Removed collection %q (%d documents)", name, len(docs))
	return nil
}
