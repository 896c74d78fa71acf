package memstore

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"tariffrag/internal/domain"
)

// MemoryContextStore is an in-memory port.ContextStore. Retrieval scores
// by term overlap between the query and chunk text, which is deterministic
// and needs no embedding service. Used by tests and as a corpus fixture.
type MemoryContextStore struct {
	mu     sync.RWMutex
	chunks []domain.Chunk
	tables map[domain.TableRef]domain.TableRecord
	maxK   int
}

func NewMemoryContextStore(maxTopK int) *MemoryContextStore {
	if maxTopK <= 0 {
		maxTopK = 10
	}
	return &MemoryContextStore{
		tables: make(map[domain.TableRef]domain.TableRecord),
		maxK:   maxTopK,
	}
}

func (s *MemoryContextStore) AddChunk(chunk domain.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunk)
}

func (s *MemoryContextStore) AddTable(rec domain.TableRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[rec.Ref] = rec
}

func (s *MemoryContextStore) Retrieve(query string, topK int) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d", topK)
	}
	if topK > s.maxK {
		topK = s.maxK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(query))
	scored := make([]domain.ScoredChunk, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		score := overlapScore(terms, strings.ToLower(chunk.Text))
		if score == 0 {
			continue
		}
		scored = append(scored, domain.ScoredChunk{Chunk: chunk, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func (s *MemoryContextStore) LookupTable(ref domain.TableRef) (domain.TableContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tables[ref]
	if !ok {
		return domain.TableContent{}, fmt.Errorf("%w: %s", domain.ErrTableNotFound, ref)
	}
	return domain.TableContent{Ref: rec.Ref, FullText: rec.FullText}, nil
}

// overlapScore is the fraction of query terms present in the text.
func overlapScore(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	hits := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
