package application

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultPrincipalCacheSize = 1024
	defaultPrincipalCacheTTL  = 30 * time.Second
)

// principalCache remembers recently validated session tokens so that
// authenticated requests skip the session and user lookups. Entries expire
// after a short TTL, which bounds how long a deactivated account keeps
// access through a cached token.
type principalCache struct {
	entries *expirable.LRU[string, cachedPrincipal]
}

type cachedPrincipal struct {
	principal        Principal
	sessionExpiresAt time.Time
}

func newPrincipalCache(size int, ttl time.Duration) *principalCache {
	if size <= 0 {
		size = defaultPrincipalCacheSize
	}
	if ttl <= 0 {
		ttl = defaultPrincipalCacheTTL
	}
	return &principalCache{entries: expirable.NewLRU[string, cachedPrincipal](size, nil, ttl)}
}

func (c *principalCache) Get(token string) (cachedPrincipal, bool) {
	if c == nil {
		return cachedPrincipal{}, false
	}
	return c.entries.Get(token)
}

func (c *principalCache) Store(token string, entry cachedPrincipal) {
	if c == nil {
		return
	}
	c.entries.Add(token, entry)
}

func (c *principalCache) Invalidate(token string) {
	if c == nil {
		return
	}
	c.entries.Remove(token)
}

// InvalidateUser drops every cached token of one user.
func (c *principalCache) InvalidateUser(userID string) {
	if c == nil {
		return
	}
	for _, token := range c.entries.Keys() {
		if entry, ok := c.entries.Peek(token); ok && entry.principal.UserID == userID {
			c.entries.Remove(token)
		}
	}
}

func (c *principalCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
