package services

import "github.com/custodia-labs/sercha-engine/internal/core/domain"

// ChangeSet classifies a document's new chunks against the previous
// generation. Matching is by content identity equality only; ordinal
// position is metadata and never participates in the identity. This
// classification is what yields the high cache-hit property for
// localized edits.
type ChangeSet struct {
	// Unchanged are new chunks whose identity matches a prior chunk at
	// the same position. Their embedding is reused as-is.
	Unchanged []domain.Chunk

	// Moved are new chunks whose identity matches a prior chunk at a
	// different position. The embedding is reused, position updated.
	Moved []domain.Chunk

	// Changed are new chunks occupying a prior position with a
	// different identity. They must be embedded (cache permitting).
	Changed []domain.Chunk

	// New are new chunks with no prior match at all.
	New []domain.Chunk

	// Removed are prior chunks whose identity has no match in the new
	// set. They are tombstoned in the store.
	Removed []domain.Chunk
}

// NeedsEmbedding returns the chunks requiring a (possibly cached) vector.
func (cs *ChangeSet) NeedsEmbedding() []domain.Chunk {
	out := make([]domain.Chunk, 0, len(cs.Changed)+len(cs.New))
	out = append(out, cs.Changed...)
	out = append(out, cs.New...)
	return out
}

// DetectChanges classifies next against prior. Identity matching uses a
// multiset so duplicated chunks (identical content at several positions)
// are paired off one-to-one.
func DetectChanges(prior, next []domain.Chunk) ChangeSet {
	var cs ChangeSet

	// Identity -> prior chunks carrying it, in position order.
	byIdentity := make(map[string][]domain.Chunk, len(prior))
	atPosition := make(map[int]domain.Chunk, len(prior))
	for _, ch := range prior {
		byIdentity[ch.Identity] = append(byIdentity[ch.Identity], ch)
		atPosition[ch.Position] = ch
	}

	matched := make(map[string]int, len(prior))
	for _, ch := range next {
		pool := byIdentity[ch.Identity]
		switch {
		case len(pool) == 0 || matched[ch.Identity] >= len(pool):
			// No prior chunk with this identity left to pair with.
			if p, ok := atPosition[ch.Position]; ok && p.Identity != ch.Identity {
				cs.Changed = append(cs.Changed, ch)
			} else {
				cs.New = append(cs.New, ch)
			}

		default:
			prev := pool[matched[ch.Identity]]
			matched[ch.Identity]++
			if prev.Position == ch.Position {
				cs.Unchanged = append(cs.Unchanged, ch)
			} else if p, ok := atPosition[ch.Position]; ok && p.Identity == ch.Identity {
				cs.Unchanged = append(cs.Unchanged, ch)
			} else {
				cs.Moved = append(cs.Moved, ch)
			}
		}
	}

	// Prior chunks not consumed by any match are removed.
	consumed := make(map[string]int, len(matched))
	for id, n := range matched {
		consumed[id] = n
	}
	seen := make(map[string]int)
	for _, ch := range prior {
		seen[ch.Identity]++
		if seen[ch.Identity] > consumed[ch.Identity] {
			cs.Removed = append(cs.Removed, ch)
		}
	}

	return cs
}
