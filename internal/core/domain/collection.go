package domain

import "time"

// Collection represents a named logical grouping of documents from one source.
// Collections are created explicitly, mutated only by re-scan, and removed
// explicitly (removal cascades to documents and chunks).
type Collection struct {
	// ID is the unique identifier for the collection.
	ID string

	// Name is the unique human-readable name.
	Name string

	// Locator is the source location (directory path, URL, DSN).
	Locator string

	// Kind identifies the source kind (e.g., "filesystem", "web").
	Kind string

	// Include contains glob masks selecting content to index.
	// Empty means everything.
	Include []string

	// Exclude contains glob masks removing content from indexing.
	Exclude []string

	// Boost is a scoring multiplier applied uniformly to the
	// collection's documents. Defaults to 1.0.
	Boost float64

	// CreatedAt is when the collection was created.
	CreatedAt time.Time

	// UpdatedAt is when the collection was last re-scanned.
	UpdatedAt time.Time
}

// EffectiveBoost returns the collection boost, defaulting to 1.0 when unset.
func (c *Collection) EffectiveBoost() float64 {
	if c.Boost <= 0 {
		return 1.0
	}
	return c.Boost
}

// Validate checks the collection is well formed.
func (c *Collection) Validate() error {
	if c.Name == "" {
		return ErrInvalidInput
	}
	if c.Locator == "" {
		return ErrInvalidInput
	}
	return nil
}
