package port

import "tariffrag/internal/domain"

// ContextStore is the pipeline's read-only view of the ingested corpus.
// Implementations are safe for concurrent readers; the corpus is built at
// ingestion time and treated as immutable during serving.
type ContextStore interface {
	// Retrieve returns at most topK chunks for the query, strictly
	// descending by similarity score. topK must be positive; it is
	// clamped to the store's configured maximum.
	Retrieve(query string, topK int) ([]domain.ScoredChunk, error)

	// LookupTable fetches the full content of a referenced table from the
	// corpus, independent of chunk boundaries. Returns
	// domain.ErrTableNotFound when no record matches the reference.
	LookupTable(ref domain.TableRef) (domain.TableContent, error)
}
