package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tariffrag/internal/domain"
)

type countingStore struct {
	retrieveCalls int
	lookupCalls   int
	chunks        []domain.ScoredChunk
}

func (s *countingStore) Retrieve(query string, topK int) ([]domain.ScoredChunk, error) {
	s.retrieveCalls++
	return s.chunks, nil
}

func (s *countingStore) LookupTable(ref domain.TableRef) (domain.TableContent, error) {
	s.lookupCalls++
	return domain.TableContent{Ref: ref, FullText: "rates"}, nil
}

func TestCachedContextStore_HitsSkipInner(t *testing.T) {
	inner := &countingStore{chunks: []domain.ScoredChunk{
		{Chunk: domain.Chunk{ID: "c1"}, Score: 0.9},
	}}
	c := NewCachedContextStore(inner, 10, time.Minute)

	first, err := c.Retrieve("anchorage dues", 3)
	require.NoError(t, err)
	second, err := c.Retrieve("anchorage dues", 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.retrieveCalls)
	assert.Equal(t, 1, c.Len())
}

func TestCachedContextStore_DistinctKeysPerTopK(t *testing.T) {
	inner := &countingStore{}
	c := NewCachedContextStore(inner, 10, time.Minute)

	_, err := c.Retrieve("berth fee", 3)
	require.NoError(t, err)
	_, err = c.Retrieve("berth fee", 5)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.retrieveCalls)
}

func TestCachedContextStore_LookupTablePassesThrough(t *testing.T) {
	inner := &countingStore{}
	c := NewCachedContextStore(inner, 10, time.Minute)

	for i := 0; i < 3; i++ {
		content, err := c.LookupTable("Table 2")
		require.NoError(t, err)
		assert.Equal(t, "rates", content.FullText)
	}
	assert.Equal(t, 3, inner.lookupCalls)
}
