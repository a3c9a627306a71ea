package sqlite

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
)

// vectorIndex implements driven.VectorIndex with brute-force cosine
// similarity over blobs in the chunk_vectors table. Linear scan is fine
// at local-first scale; the interface leaves room for an ANN-backed
// implementation later.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Add inserts or replaces the vector for the given chunk ID.
func (v *vectorIndex) Add(ctx context.Context, chunkID string, embedding []float32) error {
	_, err := v.store.db.ExecContext(ctx, `
		INSERT INTO chunk_vectors (chunk_id, embedding)
		VALUES (?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET embedding = excluded.embedding
	`, chunkID, float32SliceToBytes(embedding))
	if err != nil {
		return fmt.Errorf("storing vector: %w", err)
	}
	return nil
}

// Delete removes a vector from the index.
func (v *vectorIndex) Delete(ctx context.Context, chunkID string) error {
	_, err := v.store.db.ExecContext(ctx,
		"DELETE FROM chunk_vectors WHERE chunk_id = ?", chunkID)
	if err != nil {
		return fmt.Errorf("deleting vector: %w", err)
	}
	return nil
}

// Search finds the k nearest neighbours by cosine similarity. Vectors
// with a different dimensionality than the query are skipped. Ties break
// on chunk ID for stable output.
func (v *vectorIndex) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = 20
	}

	rows, err := v.store.db.QueryContext(ctx, "SELECT chunk_id, embedding FROM chunk_vectors")
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var chunkID string
		var blob []byte
		if err := rows.Scan(&chunkID, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}

		embedding := bytesToFloat32Slice(blob)
		if len(embedding) != len(query) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    chunkID,
			Similarity: cosineSimilarity(query, embedding),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close is a no-op; the underlying store owns the connection.
func (v *vectorIndex) Close() error {
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors
// of equal length. Zero vectors yield zero similarity.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
