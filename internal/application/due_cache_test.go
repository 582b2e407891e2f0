package application

import (
	"testing"
	"time"

	"github.com/example/workshop-scheduler/internal/testfixtures"
)

func TestDueCache(t *testing.T) {
	t.Parallel()

	t.Run("stores and returns values within the ttl", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		cache := newDueCache(time.Minute, 4, clock.NowFunc())

		cache.Store(dueCacheKey(1, 0), 6.5)
		if hours, ok := cache.Get(dueCacheKey(1, 0)); !ok || hours != 6.5 {
			t.Fatalf("expected cached 6.5, got %v (%v)", hours, ok)
		}
	})

	t.Run("expires entries after the ttl", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		cache := newDueCache(time.Minute, 4, clock.NowFunc())

		cache.Store(dueCacheKey(1, 0), 6.5)
		clock.Advance(2 * time.Minute)
		if _, ok := cache.Get(dueCacheKey(1, 0)); ok {
			t.Fatal("expected the entry to expire")
		}
	})

	t.Run("a new generation misses", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		cache := newDueCache(time.Minute, 4, clock.NowFunc())

		cache.Store(dueCacheKey(1, 0), 6.5)
		if _, ok := cache.Get(dueCacheKey(1, 1)); ok {
			t.Fatal("expected a committed write to miss the cache")
		}
	})

	t.Run("evicts when full", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		cache := newDueCache(time.Minute, 2, clock.NowFunc())

		cache.Store(dueCacheKey(1, 0), 1)
		cache.Store(dueCacheKey(2, 0), 2)
		cache.Store(dueCacheKey(3, 0), 3)

		hits := 0
		for _, id := range []int64{1, 2, 3} {
			if _, ok := cache.Get(dueCacheKey(id, 0)); ok {
				hits++
			}
		}
		if hits != 2 {
			t.Fatalf("expected exactly 2 surviving entries, got %d", hits)
		}
	})

	t.Run("nil cache is inert", func(t *testing.T) {
		t.Parallel()

		var cache *dueCache
		cache.Store("key", 1)
		if _, ok := cache.Get("key"); ok {
			t.Fatal("expected nil cache to miss")
		}
	})
}
