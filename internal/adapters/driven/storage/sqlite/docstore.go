package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document, keyed by (collection, path)
// so re-runs keep stable identifiers for unchanged content.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, collection_id, path, title, content_type, content,
			generation, importance, class, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection_id, path) DO UPDATE SET
			title = excluded.title,
			content_type = excluded.content_type,
			content = excluded.content,
			generation = excluded.generation,
			importance = excluded.importance,
			class = excluded.class,
			updated_at = excluded.updated_at
	`, doc.ID, doc.CollectionID, doc.Path, doc.Title, doc.ContentType, doc.Content,
		doc.Generation, doc.Importance, string(doc.Class), doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveChunks stores chunks for a document. The upsert is keyed by
// (document, position): an existing chunk at the same position keeps its
// identifier and is revived if tombstoned.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, position, start_byte, end_byte,
			start_line, end_line, kind, content, context, identity, embedding, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(document_id, position) DO UPDATE SET
			start_byte = excluded.start_byte,
			end_byte = excluded.end_byte,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			kind = excluded.kind,
			content = excluded.content,
			context = excluded.context,
			identity = excluded.identity,
			embedding = excluded.embedding,
			deleted = 0
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Position,
			chunk.StartByte, chunk.EndByte, chunk.StartLine, chunk.EndLine,
			string(chunk.Kind), chunk.Content, chunk.Context, chunk.Identity,
			float32SliceToBytes(chunk.Embedding)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, collection_id, path, title, content_type, content,
			generation, importance, class, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// GetDocumentByPath retrieves a document by collection and path.
func (s *documentStore) GetDocumentByPath(ctx context.Context, collectionID, path string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, collection_id, path, title, content_type, content,
			generation, importance, class, created_at, updated_at
		FROM documents WHERE collection_id = ? AND path = ?
	`, collectionID, path)

	return scanDocument(row)
}

// GetChunks retrieves the live chunks for a document, ordered by position.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, position, start_byte, end_byte,
			start_line, end_line, kind, content, context, identity, embedding
		FROM chunks WHERE document_id = ? AND deleted = 0
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// GetChunk retrieves a live chunk by ID. Tombstoned chunks read as absent.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, position, start_byte, end_byte,
			start_line, end_line, kind, content, context, identity, embedding
		FROM chunks WHERE id = ? AND deleted = 0
	`, id)

	var chunk domain.Chunk
	var embeddingBlob []byte
	var kind string
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position,
		&chunk.StartByte, &chunk.EndByte, &chunk.StartLine, &chunk.EndLine,
		&kind, &chunk.Content, &chunk.Context, &chunk.Identity, &embeddingBlob); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.Kind = domain.ChunkKind(kind)
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	return &chunk, nil
}

// TombstoneChunk marks a chunk deleted without physical compaction.
func (s *documentStore) TombstoneChunk(ctx context.Context, chunkID string) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE chunks SET deleted = 1 WHERE id = ?", chunkID)
	if err != nil {
		return fmt.Errorf("tombstoning chunk: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document; chunks cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns documents for a collection.
func (s *documentStore) ListDocuments(ctx context.Context, collectionID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, collection_id, path, title, content_type, content,
			generation, importance, class, created_at, updated_at
		FROM documents WHERE collection_id = ?
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// LiveIdentities returns the identities referenced by any live chunk.
func (s *documentStore) LiveIdentities(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT DISTINCT identity FROM chunks WHERE deleted = 0 AND identity != ''")
	if err != nil {
		return nil, fmt.Errorf("querying identities: %w", err)
	}
	defer rows.Close()

	live := make(map[string]struct{})
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, fmt.Errorf("scanning identity: %w", err)
		}
		live[identity] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating identities: %w", err)
	}

	return live, nil
}

// ==================== Collection Store ====================

// collectionStore implements driven.CollectionStore.
type collectionStore struct {
	store *Store
}

var _ driven.CollectionStore = (*collectionStore)(nil)

// Save stores or updates a collection.
func (s *collectionStore) Save(ctx context.Context, col *domain.Collection) error {
	includeJSON, err := json.Marshal(col.Include)
	if err != nil {
		return fmt.Errorf("marshalling include masks: %w", err)
	}
	excludeJSON, err := json.Marshal(col.Exclude)
	if err != nil {
		return fmt.Errorf("marshalling exclude masks: %w", err)
	}

	now := time.Now().UTC()
	if col.CreatedAt.IsZero() {
		col.CreatedAt = now
	}
	col.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO collections (id, name, locator, kind, include, exclude, boost, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			locator = excluded.locator,
			kind = excluded.kind,
			include = excluded.include,
			exclude = excluded.exclude,
			boost = excluded.boost,
			updated_at = excluded.updated_at
	`, col.ID, col.Name, col.Locator, col.Kind, string(includeJSON), string(excludeJSON),
		col.Boost, col.CreatedAt, col.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving collection: %w", err)
	}
	return nil
}

// Get retrieves a collection by ID.
func (s *collectionStore) Get(ctx context.Context, id string) (*domain.Collection, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, locator, kind, include, exclude, boost, created_at, updated_at
		FROM collections WHERE id = ?
	`, id)

	return scanCollection(row)
}

// GetByName retrieves a collection by its unique name.
func (s *collectionStore) GetByName(ctx context.Context, name string) (*domain.Collection, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, locator, kind, include, exclude, boost, created_at, updated_at
		FROM collections WHERE name = ?
	`, name)

	return scanCollection(row)
}

// List returns all collections.
func (s *collectionStore) List(ctx context.Context) ([]domain.Collection, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, locator, kind, include, exclude, boost, created_at, updated_at
		FROM collections ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var cols []domain.Collection //nolint:prealloc // size unknown from query
	for rows.Next() {
		var col domain.Collection
		var includeJSON, excludeJSON string
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&col.ID, &col.Name, &col.Locator, &col.Kind,
			&includeJSON, &excludeJSON, &col.Boost, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		if err := json.Unmarshal([]byte(includeJSON), &col.Include); err != nil {
			return nil, fmt.Errorf("unmarshaling include masks: %w", err)
		}
		if err := json.Unmarshal([]byte(excludeJSON), &col.Exclude); err != nil {
			return nil, fmt.Errorf("unmarshaling exclude masks: %w", err)
		}
		if createdAt.Valid {
			col.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			col.UpdatedAt = updatedAt.Time
		}
		cols = append(cols, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collections: %w", err)
	}

	return cols, nil
}

// Delete removes a collection; documents and chunks cascade.
func (s *collectionStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// ==================== Scan Helpers ====================

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var class string
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(&doc.ID, &doc.CollectionID, &doc.Path, &doc.Title,
		&doc.ContentType, &doc.Content, &doc.Generation, &doc.Importance,
		&class, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Class = domain.PathClass(class)
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}

	return &doc, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var class string
	var createdAt, updatedAt sql.NullTime

	if err := rows.Scan(&doc.ID, &doc.CollectionID, &doc.Path, &doc.Title,
		&doc.ContentType, &doc.Content, &doc.Generation, &doc.Importance,
		&class, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Class = domain.PathClass(class)
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}

	return &doc, nil
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte
	var kind string

	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position,
		&chunk.StartByte, &chunk.EndByte, &chunk.StartLine, &chunk.EndLine,
		&kind, &chunk.Content, &chunk.Context, &chunk.Identity, &embeddingBlob); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Kind = domain.ChunkKind(kind)
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	return &chunk, nil
}

// scanCollection scans a single collection row.
func scanCollection(row *sql.Row) (*domain.Collection, error) {
	var col domain.Collection
	var includeJSON, excludeJSON string
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(&col.ID, &col.Name, &col.Locator, &col.Kind,
		&includeJSON, &excludeJSON, &col.Boost, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning collection: %w", err)
	}

	if err := json.Unmarshal([]byte(includeJSON), &col.Include); err != nil {
		return nil, fmt.Errorf("unmarshaling include masks: %w", err)
	}
	if err := json.Unmarshal([]byte(excludeJSON), &col.Exclude); err != nil {
		return nil, fmt.Errorf("unmarshaling exclude masks: %w", err)
	}
	if createdAt.Valid {
		col.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		col.UpdatedAt = updatedAt.Time
	}

	return &col, nil
}
