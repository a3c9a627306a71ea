package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("requires search service", func(t *testing.T) {
		server, err := NewServer(&Ports{})

		assert.ErrorIs(t, err, ErrMissingSearchService)
		assert.Nil(t, server)
	})

	t.Run("collections and documents are optional", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})

		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("full ports", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Search:      &mockSearchService{},
			Collections: &mockCollectionService{},
			Documents:   &mockDocumentStore{},
		})

		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}
