package store

import (
	"fmt"

	"go.uber.org/zap"
	"tariffrag/internal/domain"
	"tariffrag/internal/port"
)

// SearchContextStore implements port.ContextStore over the corpus and
// vector stores: embed the query, run similarity search, fetch chunk
// bodies. Table lookups go straight to the corpus tables bucket.
type SearchContextStore struct {
	corpus   *CorpusStore
	vectors  port.VectorStore
	embedder port.Embedder
	maxTopK  int
	minScore float64
	logger   *zap.Logger
}

func NewSearchContextStore(
	corpus *CorpusStore,
	vectors port.VectorStore,
	embedder port.Embedder,
	maxTopK int,
	minScore float64,
	logger *zap.Logger,
) *SearchContextStore {
	return &SearchContextStore{
		corpus:   corpus,
		vectors:  vectors,
		embedder: embedder,
		maxTopK:  maxTopK,
		minScore: minScore,
		logger:   logger,
	}
}

func (s *SearchContextStore) Retrieve(query string, topK int) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d", topK)
	}
	if s.maxTopK > 0 && topK > s.maxTopK {
		s.logger.Debug("clamping top_k to configured maximum",
			zap.Int("requested", topK), zap.Int("max", s.maxTopK))
		topK = s.maxTopK
	}

	embeddings, err := s.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	results, err := s.vectors.Search(embeddings[0], topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	chunks := make([]domain.ScoredChunk, 0, len(results))
	for _, result := range results {
		if s.minScore > 0 && result.Score < s.minScore {
			continue
		}
		chunk, err := s.corpus.GetChunk(result.ID)
		if err != nil {
			s.logger.Warn("indexed vector has no chunk record",
				zap.String("chunk_id", result.ID), zap.Error(err))
			continue
		}
		chunks = append(chunks, domain.ScoredChunk{
			Chunk: chunk,
			Score: result.Score,
		})
	}

	return chunks, nil
}

func (s *SearchContextStore) LookupTable(ref domain.TableRef) (domain.TableContent, error) {
	rec, err := s.corpus.GetTable(ref)
	if err != nil {
		return domain.TableContent{}, err
	}
	return domain.TableContent{
		Ref:      rec.Ref,
		FullText: rec.FullText,
	}, nil
}
