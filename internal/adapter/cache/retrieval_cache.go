package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"tariffrag/internal/domain"
	"tariffrag/internal/port"
)

// CachedContextStore decorates a ContextStore with an expiring LRU over
// Retrieve. Safe because retrieval over an immutable corpus is
// deterministic; TTL bounds staleness after a re-ingest. Table lookups
// pass through: they are single bolt reads and not worth caching.
type CachedContextStore struct {
	inner port.ContextStore
	lru   *expirable.LRU[string, []domain.ScoredChunk]
}

func NewCachedContextStore(inner port.ContextStore, size int, ttl time.Duration) *CachedContextStore {
	if size <= 0 {
		size = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedContextStore{
		inner: inner,
		lru:   expirable.NewLRU[string, []domain.ScoredChunk](size, nil, ttl),
	}
}

func cacheKey(query string, topK int) string {
	data := []byte(query)
	data = append(data, byte(topK>>8), byte(topK))
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func (c *CachedContextStore) Retrieve(query string, topK int) ([]domain.ScoredChunk, error) {
	key := cacheKey(query, topK)
	if results, hit := c.lru.Get(key); hit {
		return results, nil
	}

	results, err := c.inner.Retrieve(query, topK)
	if err != nil {
		return nil, err
	}

	c.lru.Add(key, results)
	return results, nil
}

func (c *CachedContextStore) LookupTable(ref domain.TableRef) (domain.TableContent, error) {
	return c.inner.LookupTable(ref)
}

func (c *CachedContextStore) Len() int {
	return c.lru.Len()
}
