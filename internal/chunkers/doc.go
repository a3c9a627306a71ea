// Package chunkers provides implementations of the Chunker interface for
// various content types, plus the registry that dispatches on content type.
//
// Grammar-aware chunkers (golang, markdown) derive chunk boundaries from a
// structural parse; everything else falls back to the fixed-size window
// chunker. Every chunker guarantees lossless coverage: chunk spans tile the
// input with no gaps and no out-of-bounds spans.
//
// Chunkers are registered with the Registry at startup.
package chunkers
