package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/shivavenkatesh/wordline/internal/chunking"
	"github.com/shivavenkatesh/wordline/pkg/types"
)

// ResultCache memoizes segmentation results by content and options.
// Cached results are shared and must not be modified by callers.
type ResultCache struct {
	cache *LRU[string, *types.SegmentResult]
}

// NewResultCache creates a result cache with the given capacity
func NewResultCache(capacity int) *ResultCache {
	return &ResultCache{cache: NewLRU[string, *types.SegmentResult](capacity)}
}

// Get returns the cached result for text segmented with opts
func (c *ResultCache) Get(text string, opts chunking.Options) (*types.SegmentResult, bool) {
	return c.cache.Get(resultKey(text, opts))
}

// Put stores a result for text segmented with opts
func (c *ResultCache) Put(text string, opts chunking.Options, result *types.SegmentResult) {
	c.cache.Put(resultKey(text, opts), result)
}

// Len returns the number of cached results
func (c *ResultCache) Len() int {
	return c.cache.Len()
}

// Stats returns hit/miss counts and the hit rate percentage
func (c *ResultCache) Stats() (hits, misses int64, hitRate float64) {
	hits, misses = c.cache.Stats()
	return hits, misses, c.cache.HitRate()
}

// ContentHash returns a short stable hash of text
func ContentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:16])
}

func resultKey(text string, opts chunking.Options) string {
	opts = opts.Normalize()
	return fmt.Sprintf("%s:%d:%d:%d:%d:%t", ContentHash(text),
		opts.TargetChunkChars, opts.MinTurnsPerChunk,
		opts.FallbackChunkChars, opts.FallbackOverlapChars, opts.AllowNameOnlyHeader)
}
