package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
)

// sweepBatchSize bounds the number of identities deleted per statement.
const sweepBatchSize = 500

// embeddingCache implements driven.EmbeddingCache. Entries are keyed by
// (identity, fingerprint); a cache handle only ever serves entries written
// under its own model fingerprint.
type embeddingCache struct {
	store       *Store
	fingerprint string
}

var _ driven.EmbeddingCache = (*embeddingCache)(nil)

// Get returns the cached vector for a content identity under the active
// model fingerprint. An entry written only under another fingerprint is
// refused with ErrModelMismatch: its vector lives in a different semantic
// space and must not be served.
func (c *embeddingCache) Get(ctx context.Context, identity string) ([]float32, error) {
	var blob []byte
	var fingerprint string
	err := c.store.db.QueryRowContext(ctx, `
		SELECT vector, fingerprint FROM embeddings
		WHERE identity = ?
		ORDER BY (fingerprint = ?) DESC
		LIMIT 1
	`, identity, c.fingerprint).Scan(&blob, &fingerprint)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	if fingerprint != c.fingerprint {
		return nil, fmt.Errorf("%w: entry written under %q, active %q",
			domain.ErrModelMismatch, fingerprint, c.fingerprint)
	}
	return bytesToFloat32Slice(blob), nil
}

// Put stores a vector for a content identity. The single-statement upsert
// keeps the write atomic: the entry is fully written or absent.
func (c *embeddingCache) Put(ctx context.Context, identity string, vector []float32) error {
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO embeddings (identity, fingerprint, vector)
		VALUES (?, ?, ?)
		ON CONFLICT(identity, fingerprint) DO UPDATE SET vector = excluded.vector
	`, identity, c.fingerprint, float32SliceToBytes(vector))
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Fingerprint returns the active embedding-model fingerprint.
func (c *embeddingCache) Fingerprint() string {
	return c.fingerprint
}

// Sweep removes entries whose identity is not in the live set, across all
// fingerprints. Returns the number of entries removed.
func (c *embeddingCache) Sweep(ctx context.Context, live map[string]struct{}) (int, error) {
	rows, err := c.store.db.QueryContext(ctx, "SELECT DISTINCT identity FROM embeddings")
	if err != nil {
		return 0, fmt.Errorf("querying cache identities: %w", err)
	}

	var stale []string
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning cache identity: %w", err)
		}
		if _, ok := live[identity]; !ok {
			stale = append(stale, identity)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterating cache identities: %w", err)
	}
	rows.Close()

	removed := 0
	for start := 0; start < len(stale); start += sweepBatchSize {
		end := start + sweepBatchSize
		if end > len(stale) {
			end = len(stale)
		}
		batch := stale[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		res, err := c.store.db.ExecContext(ctx,
			"DELETE FROM embeddings WHERE identity IN ("+placeholders+")", args...)
		if err != nil {
			return removed, fmt.Errorf("sweeping cache: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += int(n)
		}
	}

	return removed, nil
}

// Clear removes every entry, all fingerprints included. The only eager
// eviction path.
func (c *embeddingCache) Clear(ctx context.Context) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM embeddings"); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}
