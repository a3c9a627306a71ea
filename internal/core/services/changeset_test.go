package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

func mkChunk(pos int, identity string) domain.Chunk {
	return domain.Chunk{Position: pos, Identity: identity}
}

// TestDetectChanges_AllUnchanged tests identical generations
func TestDetectChanges_AllUnchanged(t *testing.T) {
	prior := []domain.Chunk{mkChunk(0, "a"), mkChunk(1, "b"), mkChunk(2, "c")}
	next := []domain.Chunk{mkChunk(0, "a"), mkChunk(1, "b"), mkChunk(2, "c")}

	cs := DetectChanges(prior, next)

	assert.Len(t, cs.Unchanged, 3)
	assert.Empty(t, cs.Moved)
	assert.Empty(t, cs.Changed)
	assert.Empty(t, cs.New)
	assert.Empty(t, cs.Removed)
	assert.Empty(t, cs.NeedsEmbedding())
}

// TestDetectChanges_LocalizedEdit tests that one edited chunk re-embeds alone
func TestDetectChanges_LocalizedEdit(t *testing.T) {
	prior := []domain.Chunk{mkChunk(0, "a"), mkChunk(1, "b"), mkChunk(2, "c")}
	next := []domain.Chunk{mkChunk(0, "a"), mkChunk(1, "b-edited"), mkChunk(2, "c")}

	cs := DetectChanges(prior, next)

	assert.Len(t, cs.Unchanged, 2)
	require.Len(t, cs.Changed, 1)
	assert.Equal(t, "b-edited", cs.Changed[0].Identity)
	require.Len(t, cs.Removed, 1)
	assert.Equal(t, "b", cs.Removed[0].Identity)
	assert.Len(t, cs.NeedsEmbedding(), 1)
}

// TestDetectChanges_Moved tests reordered chunks reuse embeddings
func TestDetectChanges_Moved(t *testing.T) {
	prior := []domain.Chunk{mkChunk(0, "a"), mkChunk(1, "b")}
	next := []domain.Chunk{mkChunk(0, "b"), mkChunk(1, "a")}

	cs := DetectChanges(prior, next)

	assert.Len(t, cs.Moved, 2)
	assert.Empty(t, cs.Changed)
	assert.Empty(t, cs.New)
	assert.Empty(t, cs.Removed)
	assert.Empty(t, cs.NeedsEmbedding())
}

// TestDetectChanges_InsertionShiftsPositions tests an insert marks only itself new
func TestDetectChanges_InsertionShiftsPositions(t *testing.T) {
	prior := []domain.Chunk{mkChunk(0, "a"), mkChunk(1, "b")}
	next := []domain.Chunk{mkChunk(0, "a"), mkChunk(1, "inserted"), mkChunk(2, "b")}

	cs := DetectChanges(prior, next)

	assert.Len(t, cs.Unchanged, 1)
	assert.Len(t, cs.Moved, 1, "b shifted position but kept identity")
	// "inserted" lands on prior position 1 (held by "b") so it reads as changed
	assert.Len(t, cs.Changed, 1)
	assert.Empty(t, cs.Removed)
	assert.Len(t, cs.NeedsEmbedding(), 1)
}

// TestDetectChanges_Removal tests trailing deletion tombstones
func TestDetectChanges_Removal(t *testing.T) {
	prior := []domain.Chunk{mkChunk(0, "a"), mkChunk(1, "b"), mkChunk(2, "c")}
	next := []domain.Chunk{mkChunk(0, "a")}

	cs := DetectChanges(prior, next)

	assert.Len(t, cs.Unchanged, 1)
	require.Len(t, cs.Removed, 2)
}

// TestDetectChanges_DuplicateIdentities tests multiset pairing of identical chunks
func TestDetectChanges_DuplicateIdentities(t *testing.T) {
	prior := []domain.Chunk{mkChunk(0, "dup"), mkChunk(1, "dup")}
	next := []domain.Chunk{mkChunk(0, "dup"), mkChunk(1, "dup"), mkChunk(2, "dup")}

	cs := DetectChanges(prior, next)

	assert.Len(t, cs.Unchanged, 2)
	assert.Len(t, cs.New, 1, "third copy has no prior to pair with")
	assert.Empty(t, cs.Removed)
}

// TestDetectChanges_EmptyPrior tests first-generation indexing
func TestDetectChanges_EmptyPrior(t *testing.T) {
	next := []domain.Chunk{mkChunk(0, "a"), mkChunk(1, "b")}

	cs := DetectChanges(nil, next)

	assert.Len(t, cs.New, 2)
	assert.Len(t, cs.NeedsEmbedding(), 2)
}
