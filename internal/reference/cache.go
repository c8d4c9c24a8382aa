package reference

import (
	"context"
	"github.com/patrickmn/go-cache"
	"time"
)

// CachedExtractor remembers successful extractions for ttl so that repeated analyses don't parse the same large
// documents over and over. Failures are never cached.
type CachedExtractor struct {
	next  TextExtractor
	cache *cache.Cache
}

func NewCachedExtractor(next TextExtractor, ttl time.Duration) *CachedExtractor {
	return &CachedExtractor{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *CachedExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	if text, ok := c.cache.Get(path); ok {
		return text.(string), nil //nolint:forcetypeassert // only strings are stored.
	}
	text, err := c.next.ExtractText(ctx, path)
	if err != nil {
		return "", err //nolint:wrapcheck // decorator is transparent.
	}
	c.cache.Set(path, text, cache.DefaultExpiration)
	return text, nil
}
