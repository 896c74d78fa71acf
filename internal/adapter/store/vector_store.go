package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"
	"tariffrag/internal/port"
)

var bucketVectors = []byte("vectors")

// BoltVectorStore implements port.VectorStore on bbolt with brute-force
// cosine search over an in-memory cache. Fine for a single-port corpus;
// swap in an ANN index if corpora grow past tens of thousands of chunks.
type BoltVectorStore struct {
	db        *bbolt.DB
	dimension int

	mu      sync.RWMutex
	vectors map[string]vectorEntry
	order   []string // insertion order, for stable tie-breaking
	seqs    map[string]int
	nextSeq int
}

type vectorEntry struct {
	vector   []float32
	metadata map[string]string
}

type storedVector struct {
	Seq      int               `json:"s"`
	Vector   []float32         `json:"v"`
	Metadata map[string]string `json:"m,omitempty"`
}

func NewBoltVectorStore(db *bbolt.DB, dimension int) (*BoltVectorStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketVectors)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vectors bucket: %w", err)
	}

	s := &BoltVectorStore{
		db:        db,
		dimension: dimension,
		vectors:   make(map[string]vectorEntry),
		seqs:      make(map[string]int),
	}

	if err := s.loadVectors(); err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}

	return s, nil
}

// loadVectors loads all vectors into memory, restoring insertion order
// from the persisted sequence numbers.
func (s *BoltVectorStore) loadVectors() error {
	type seqID struct {
		seq int
		id  string
	}
	var ids []seqID

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // Skip corrupted entries
			}
			id := string(k)
			s.vectors[id] = vectorEntry{
				vector:   stored.Vector,
				metadata: stored.Metadata,
			}
			ids = append(ids, seqID{seq: stored.Seq, id: id})
			return nil
		})
	})
	if err != nil {
		return err
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].seq < ids[j].seq })
	s.order = make([]string, len(ids))
	for i, si := range ids {
		s.order[i] = si.id
		s.seqs[si.id] = si.seq
		if si.seq >= s.nextSeq {
			s.nextSeq = si.seq + 1
		}
	}
	return nil
}

func (s *BoltVectorStore) Upsert(items []port.VectorItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return fmt.Errorf("vectors bucket not found")
		}

		for _, item := range items {
			if len(item.Vector) != s.dimension {
				return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.dimension, len(item.Vector))
			}

			seq, exists := s.seqs[item.ID]
			if !exists {
				seq = s.nextSeq
				s.nextSeq++
				s.seqs[item.ID] = seq
				s.order = append(s.order, item.ID)
			}

			stored := storedVector{
				Seq:      seq,
				Vector:   item.Vector,
				Metadata: item.Metadata,
			}
			data, err := json.Marshal(stored)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(item.ID), data); err != nil {
				return err
			}

			s.vectors[item.ID] = vectorEntry{
				vector:   item.Vector,
				metadata: item.Metadata,
			}
		}
		return nil
	})
}

// Search returns the k nearest vectors by cosine similarity, mapped from
// [-1,1] to [0,1]. Results are strictly descending by score; equal scores
// keep insertion order.
func (s *BoltVectorStore) Search(query []float32, k int) ([]port.VectorResult, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(query))
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]port.VectorResult, 0, len(s.order))
	for _, id := range s.order {
		entry, ok := s.vectors[id]
		if !ok {
			continue
		}
		cos := cosineSimilarity(query, entry.vector)
		results = append(results, port.VectorResult{
			ID:       id,
			Score:    (cos + 1) / 2,
			Metadata: entry.metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *BoltVectorStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

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
