package application

import (
	"strconv"
	"testing"
	"time"
)

func TestPrincipalCache(t *testing.T) {
	t.Parallel()

	t.Run("nil cache is a no-op", func(t *testing.T) {
		t.Parallel()

		var cache *principalCache
		cache.Store("token", cachedPrincipal{})
		cache.Invalidate("token")
		cache.InvalidateUser("user")
		if _, ok := cache.Get("token"); ok || cache.Len() != 0 {
			t.Fatalf("expected nil cache to hold nothing")
		}
	})

	t.Run("invalidates every token of a user", func(t *testing.T) {
		t.Parallel()

		cache := newPrincipalCache(8, time.Minute)
		expires := time.Now().Add(time.Hour)
		cache.Store("a", cachedPrincipal{principal: Principal{UserID: "jan"}, sessionExpiresAt: expires})
		cache.Store("b", cachedPrincipal{principal: Principal{UserID: "jan"}, sessionExpiresAt: expires})
		cache.Store("c", cachedPrincipal{principal: Principal{UserID: "anna"}, sessionExpiresAt: expires})

		cache.InvalidateUser("jan")
		if cache.Len() != 1 {
			t.Fatalf("expected one entry left, got %d", cache.Len())
		}
		if entry, ok := cache.Get("c"); !ok || entry.principal.UserID != "anna" {
			t.Fatalf("expected anna to stay cached")
		}
	})

	t.Run("evicts least recently used entries", func(t *testing.T) {
		t.Parallel()

		cache := newPrincipalCache(2, time.Minute)
		cache.Store("a", cachedPrincipal{})
		cache.Store("b", cachedPrincipal{})
		cache.Get("a")
		cache.Store("c", cachedPrincipal{})

		if _, ok := cache.Get("b"); ok {
			t.Fatalf("expected b to be evicted")
		}
		if _, ok := cache.Get("a"); !ok {
			t.Fatalf("expected a to survive")
		}
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		cache := newPrincipalCache(0, 0)
		for i := 0; i < defaultPrincipalCacheSize+1; i++ {
			cache.Store("token-"+strconv.Itoa(i), cachedPrincipal{})
		}
		if cache.Len() != defaultPrincipalCacheSize {
			t.Fatalf("expected cache to be bounded at %d, got %d", defaultPrincipalCacheSize, cache.Len())
		}
	})
}
