package cache

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/nix-humanity/ask-nix/internal/domain"
)

// A value written to the cache is returned unchanged while its TTL has not
// elapsed, and never returned once it has.
func TestCacheTTLProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := NewFileCache(t.TempDir(), domain.CacheSettings{TTL: time.Hour})
		base := time.Now()
		current := base
		c.now = func() time.Time { return current }

		key := rapid.StringMatching(`[a-z_|=]{1,40}`).Draw(rt, "key")
		value := rapid.StringMatching(`[a-zA-Z0-9.\n -]{0,200}`).Draw(rt, "value")
		ttlSec := rapid.IntRange(1, 3600).Draw(rt, "ttl_seconds")
		ttl := time.Duration(ttlSec) * time.Second

		if err := c.Set(domain.CacheEntry{Key: key, Value: value, TTL: ttl}); err != nil {
			rt.Fatalf("Set: %v", err)
		}

		// Within the TTL the exact value comes back.
		elapsed := time.Duration(rapid.IntRange(0, ttlSec).Draw(rt, "elapsed_live")) * time.Second
		current = base.Add(elapsed)
		got, ok, err := c.Get(key)
		if err != nil {
			rt.Fatalf("Get: %v", err)
		}
		if !ok {
			rt.Fatalf("entry missing %s before its %s TTL", elapsed, ttl)
		}
		if got.Value != value {
			rt.Fatalf("value changed in cache: wrote %q, read %q", value, got.Value)
		}

		// Past the TTL the entry is never served.
		past := rapid.IntRange(ttlSec+1, 2*ttlSec+10).Draw(rt, "elapsed_expired")
		current = base.Add(time.Duration(past) * time.Second)
		if _, ok, _ := c.Get(key); ok {
			rt.Fatalf("expired entry served %ds after write with %s TTL", past, ttl)
		}
	})
}

// Eviction never lets the entry count exceed the configured maximum.
func TestCacheEvictionBoundProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		max := rapid.IntRange(1, 10).Draw(rt, "max_entries")
		c := NewFileCache(t.TempDir(), domain.CacheSettings{MaxEntries: max})

		n := rapid.IntRange(1, 25).Draw(rt, "num_sets")
		for i := 0; i < n; i++ {
			key := rapid.StringMatching(`[a-z]{1,12}`).Draw(rt, "key")
			if err := c.Set(domain.CacheEntry{Key: key, Value: key}); err != nil {
				rt.Fatalf("Set: %v", err)
			}
		}

		entries, err := c.Entries()
		if err != nil {
			rt.Fatalf("Entries: %v", err)
		}
		if len(entries) > max {
			rt.Fatalf("cache holds %d entries, limit is %d", len(entries), max)
		}
	})
}
