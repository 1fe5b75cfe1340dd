package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/gnu3ra/bobot/pkg/cache"
)

// SetupTestCache backs a Cache with an in-process miniredis, so cache
// tests need no running server. Both are torn down with the test.
func SetupTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewCacheFromClient(client)
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("Failed to close cache: %v", err)
		}
	})
	return c, mr
}
