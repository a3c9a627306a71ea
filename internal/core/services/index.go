package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-engine/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// DefaultEmbedConcurrency bounds parallel embedding calls per document.
const DefaultEmbedConcurrency = 4

// IndexService drives the indexing pipeline: it consumes a content
// source's stream, chunks each document, detects what actually changed
// against the previous generation, and embeds only the chunks whose
// content identity is genuinely new.
type IndexService struct {
	docStore    driven.DocumentStore
	collections driven.CollectionStore
	searchIndex driven.SearchEngine
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
	cache       driven.EmbeddingCache
	chunkers    driven.ChunkerRegistry

	contextBound     int
	embedConcurrency int
}

// IndexOption configures an IndexService.
type IndexOption func(*IndexService)

// WithContextBound overrides the byte bound applied to chunk context when
// computing content identities.
func WithContextBound(n int) IndexOption {
	return func(s *IndexService) {
		if n > 0 {
			s.contextBound = n
		}
	}
}

// WithEmbedConcurrency overrides the embedding parallelism per document.
func WithEmbedConcurrency(n int) IndexOption {
	return func(s *IndexService) {
		if n > 0 {
			s.embedConcurrency = n
		}
	}
}

// NewIndexService creates a new index service. The embedder and cache are
// optional; without an embedder chunks are indexed lexically only.
func NewIndexService(
	docStore driven.DocumentStore,
	collections driven.CollectionStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
	cache driven.EmbeddingCache,
	chunkers driven.ChunkerRegistry,
	opts ...IndexOption,
) *IndexService {
	s := &IndexService{
		docStore:         docStore,
		collections:      collections,
		searchIndex:      searchIndex,
		vectorIndex:      vectorIndex,
		embedder:         embedder,
		cache:            cache,
		chunkers:         chunkers,
		contextBound:     domain.DefaultContextBound,
		embedConcurrency: DefaultEmbedConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IndexCollection runs one full indexing pass over the source into the
// named collection. Per-chunk failures degrade to report warnings; only
// store-level failures fail a document, and a failed document never
// advances its generation.
func (s *IndexService) IndexCollection(
	ctx context.Context, name string, source driven.ContentSource,
) (*driving.IndexReport, error) {
	logger.Section("Indexing Collection")
	logger.Info("Collection: %s (source: %s)", name, source.Kind())

	col, err := s.collections.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCollection, name)
		}
		return nil, fmt.Errorf("resolve collection %q: %w", name, err)
	}

	report := &driving.IndexReport{Collection: name}
	seen := make(map[string]bool)

	items, errc := source.Fetch(ctx)
	for items != nil || errc != nil {
		select {
		case item, ok := <-items:
			if !ok {
				items = nil
				continue
			}
			seen[item.Path] = true
			if err := s.indexDocument(ctx, col, item, report); err != nil {
				logger.Warn("Document failed: %s: %v", item.Path, err)
				report.DocumentsFailed++
				report.Warnings = append(report.Warnings, domain.IndexWarning{
					DocumentPath:  item.Path,
					ChunkPosition: -1,
					Message:       err.Error(),
				})
			}

		case srcErr, ok := <-errc:
			if !ok {
				errc = nil
				continue
			}
			report.Warnings = append(report.Warnings, domain.IndexWarning{
				ChunkPosition: -1,
				Message:       fmt.Sprintf("source: %v", srcErr),
			})

		case <-ctx.Done():
			return report, ctx.Err()
		}
	}

	s.removeVanished(ctx, col.ID, seen, report)

	logger.Info("Pass complete: %d documents (%d failed), %d chunks, %d embedded, %d reused, %d removed",
		report.Documents, report.DocumentsFailed, report.Chunks,
		report.Embedded, report.Reused, report.Removed)
	return report, nil
}

// indexDocument runs the pipeline for a single content item.
func (s *IndexService) indexDocument(
	ctx context.Context, col *domain.Collection, item domain.ContentItem, report *driving.IndexReport,
) error {
	existing, err := s.docStore.GetDocumentByPath(ctx, col.ID, item.Path)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("lookup document: %w", err)
	}

	content := string(item.Content)
	doc := &domain.Document{
		ID:           uuid.NewString(),
		CollectionID: col.ID,
		Path:         item.Path,
		Title:        deriveTitle(item, content),
		ContentType:  item.ContentType,
		Content:      content,
		Importance:   deriveImportance(item, content),
		Class:        domain.ClassifyPath(item.Path),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if existing != nil {
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
		doc.Generation = existing.Generation + 1
	}

	chunker := s.chunkers.ForContentType(item.ContentType)
	chunks, err := chunker.Chunk(ctx, doc)
	if err != nil {
		return fmt.Errorf("chunk (%s): %w", chunker.Name(), err)
	}

	for i := range chunks {
		chunks[i].Identity = domain.ComputeIdentity(
			chunks[i].Kind, chunks[i].Content, chunks[i].Context, s.contextBound)
	}

	var prior []domain.Chunk
	if existing != nil {
		prior, err = s.docStore.GetChunks(ctx, existing.ID)
		if err != nil {
			return fmt.Errorf("load prior chunks: %w", err)
		}
	}

	cs := DetectChanges(prior, chunks)
	logger.Debug("%s: %d unchanged, %d moved, %d changed, %d new, %d removed",
		item.Path, len(cs.Unchanged), len(cs.Moved), len(cs.Changed), len(cs.New), len(cs.Removed))

	priorAt := make(map[int]domain.Chunk, len(prior))
	priorVec := make(map[string][]float32, len(prior))
	for _, p := range prior {
		priorAt[p.Position] = p
		if len(p.Embedding) > 0 {
			priorVec[p.Identity] = p.Embedding
		}
	}

	// Stable chunk IDs: a chunk at an existing position keeps its
	// identifier so the lexical and vector indexes stay aligned.
	needs := make(map[int]bool, len(cs.Changed)+len(cs.New))
	for _, ch := range cs.Changed {
		needs[ch.Position] = true
	}
	for _, ch := range cs.New {
		needs[ch.Position] = true
	}
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		if p, ok := priorAt[chunks[i].Position]; ok {
			chunks[i].ID = p.ID
		} else {
			chunks[i].ID = uuid.NewString()
		}
		if !needs[chunks[i].Position] {
			if vec, ok := priorVec[chunks[i].Identity]; ok {
				chunks[i].Embedding = vec
				report.Reused++
			}
		}
	}

	if s.embedder != nil {
		s.embedChanged(ctx, doc, chunks, needs, priorAt, report)
	}

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}

	s.updateIndexes(ctx, doc, chunks, report)
	s.tombstoneRemoved(ctx, doc, chunks, prior, report)

	report.Documents++
	report.Chunks += len(chunks)
	return nil
}

// embedChanged resolves vectors for the changed and new chunks, cache
// first, with bounded parallel embedding calls. An embedding failure
// keeps the prior generation's vector for that position when one exists,
// trading staleness for coverage, and records a warning either way.
func (s *IndexService) embedChanged(
	ctx context.Context,
	doc *domain.Document,
	chunks []domain.Chunk,
	needs map[int]bool,
	priorAt map[int]domain.Chunk,
	report *driving.IndexReport,
) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.embedConcurrency)
	var mu sync.Mutex

	for i := range chunks {
		if !needs[chunks[i].Position] {
			continue
		}
		i := i
		g.Go(func() error {
			vec, cached, err := s.resolveEmbedding(gctx, chunks[i])

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if p, ok := priorAt[chunks[i].Position]; ok && len(p.Embedding) > 0 {
					chunks[i].Embedding = p.Embedding
				}
				report.Warnings = append(report.Warnings, domain.IndexWarning{
					DocumentPath:  doc.Path,
					ChunkPosition: chunks[i].Position,
					Message:       fmt.Sprintf("embed: %v", err),
				})
				return nil
			}
			chunks[i].Embedding = vec
			if cached {
				report.Reused++
			} else {
				report.Embedded++
			}
			return nil
		})
	}

	// Workers never return errors; warnings carry the failures.
	_ = g.Wait()
}

// resolveEmbedding returns the vector for a chunk, preferring the
// persistent cache. Cache read failures degrade to a fresh embedding;
// cache write failures lose only future reuse.
func (s *IndexService) resolveEmbedding(ctx context.Context, chunk domain.Chunk) ([]float32, bool, error) {
	if s.cache != nil {
		if vec, err := s.cache.Get(ctx, chunk.Identity); err == nil {
			return vec, true, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Cache read failed for %s: %v", chunk.Identity, err)
		}
	}

	vec, err := s.embedder.Embed(ctx, embeddingText(chunk))
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, chunk.Identity, vec); err != nil {
			logger.Debug("Cache write failed for %s: %v", chunk.Identity, err)
		}
	}

	return vec, false, nil
}

// embeddingText is the text handed to the embedding model: the bounded
// context prepended to the chunk content, matching the identity scope so
// cached vectors stay valid for the key they were stored under.
func embeddingText(chunk domain.Chunk) string {
	if chunk.Context == "" {
		return chunk.Content
	}
	return chunk.Context + "\n\n" + chunk.Content
}

// updateIndexes pushes the document's live chunks into the lexical and
// vector indexes. Per-chunk index failures are warnings.
func (s *IndexService) updateIndexes(
	ctx context.Context, doc *domain.Document, chunks []domain.Chunk, report *driving.IndexReport,
) {
	for _, ch := range chunks {
		if s.searchIndex != nil {
			if err := s.searchIndex.Index(ctx, ch); err != nil {
				report.Warnings = append(report.Warnings, domain.IndexWarning{
					DocumentPath:  doc.Path,
					ChunkPosition: ch.Position,
					Message:       fmt.Sprintf("lexical index: %v", err),
				})
			}
		}
		if s.vectorIndex == nil {
			continue
		}
		if len(ch.Embedding) > 0 {
			if err := s.vectorIndex.Add(ctx, ch.ID, ch.Embedding); err != nil {
				report.Warnings = append(report.Warnings, domain.IndexWarning{
					DocumentPath:  doc.Path,
					ChunkPosition: ch.Position,
					Message:       fmt.Sprintf("vector index: %v", err),
				})
			}
		} else {
			// No vector for this generation: a stale one must not
			// keep answering similarity queries.
			_ = s.vectorIndex.Delete(ctx, ch.ID)
		}
	}
}

// tombstoneRemoved tombstones every prior chunk whose position fell
// beyond the new tiling, including chunks whose identity survived at a
// new position. Prior chunks at surviving positions were overwritten by
// the upsert and need no tombstone.
func (s *IndexService) tombstoneRemoved(
	ctx context.Context, doc *domain.Document, next []domain.Chunk, prior []domain.Chunk, report *driving.IndexReport,
) {
	for _, ch := range prior {
		if ch.Position < len(next) {
			continue
		}
		if err := s.docStore.TombstoneChunk(ctx, ch.ID); err != nil {
			report.Warnings = append(report.Warnings, domain.IndexWarning{
				DocumentPath:  doc.Path,
				ChunkPosition: ch.Position,
				Message:       fmt.Sprintf("tombstone: %v", err),
			})
			continue
		}
		if s.searchIndex != nil {
			_ = s.searchIndex.Delete(ctx, ch.ID)
		}
		if s.vectorIndex != nil {
			_ = s.vectorIndex.Delete(ctx, ch.ID)
		}
		report.Removed++
	}
}

// removeVanished deletes documents the source no longer yields.
func (s *IndexService) removeVanished(
	ctx context.Context, collectionID string, seen map[string]bool, report *driving.IndexReport,
) {
	docs, err := s.docStore.ListDocuments(ctx, collectionID)
	if err != nil {
		report.Warnings = append(report.Warnings, domain.IndexWarning{
			ChunkPosition: -1,
			Message:       fmt.Sprintf("list documents: %v", err),
		})
		return
	}

	for _, doc := range docs {
		if seen[doc.Path] {
			continue
		}
		chunks, err := s.docStore.GetChunks(ctx, doc.ID)
		if err == nil {
			for _, ch := range chunks {
				if s.searchIndex != nil {
					_ = s.searchIndex.Delete(ctx, ch.ID)
				}
				if s.vectorIndex != nil {
					_ = s.vectorIndex.Delete(ctx, ch.ID)
				}
				report.Removed++
			}
		}
		if err := s.docStore.DeleteDocument(ctx, doc.ID); err != nil {
			report.Warnings = append(report.Warnings, domain.IndexWarning{
				DocumentPath:  doc.Path,
				ChunkPosition: -1,
				Message:       fmt.Sprintf("delete document: %v", err),
			})
			continue
		}
		logger.Debug("Removed vanished document: %s", doc.Path)
	}
}

// SweepEmbeddingCache removes cached vectors whose content identity no
// longer appears in any live chunk.
func (s *IndexService) SweepEmbeddingCache(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	live, err := s.docStore.LiveIdentities(ctx)
	if err != nil {
		return 0, fmt.Errorf("collect live identities: %w", err)
	}
	removed, err := s.cache.Sweep(ctx, live)
	if err != nil {
		return 0, fmt.Errorf("sweep cache: %w", err)
	}
	logger.Info("Cache sweep removed %d entries", removed)
	return removed, nil
}

// deriveTitle prefers the source-provided title, then the first markdown
// heading, then the base filename.
func deriveTitle(item domain.ContentItem, content string) string {
	if item.Title != "" {
		return item.Title
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
		if line != "" {
			break
		}
	}
	return filepath.Base(item.Path)
}

// deriveImportance uses the source-provided weight when set, otherwise
// estimates one from reference density: documents that link out a lot
// tend to be hubs worth surfacing.
func deriveImportance(item domain.ContentItem, content string) float64 {
	if item.Importance > 0 {
		return item.Importance
	}
	if len(content) == 0 {
		return 0
	}

	refs := strings.Count(content, "](") +
		strings.Count(content, "http://") +
		strings.Count(content, "https://")
	if refs == 0 {
		return 0
	}

	perKB := float64(refs) / (float64(len(content)) / 1024.0)
	importance := 1.0 + perKB/2.0
	if importance > domain.MaxImportance {
		importance = domain.MaxImportance
	}
	return importance
}
