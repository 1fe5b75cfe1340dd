package cache_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/gnu3ra/bobot/internal/testutil"
	"github.com/gnu3ra/bobot/pkg/cache"
)

func TestQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("HitNeverTouchesStore", func(t *testing.T) {
		loaded := false
		populated := false
		v := "cached"
		got, err := cache.Query(ctx, "k",
			func(ctx context.Context, key string) (*string, error) { return &v, nil },
			func(ctx context.Context, key string) (*string, error) { loaded = true; return nil, nil },
			func(ctx context.Context, key string, v *string) (*string, error) { populated = true; return v, nil },
		)
		assert.NoError(t, err)
		assert.Equal(t, "cached", *got)
		assert.False(t, loaded)
		assert.False(t, populated)
	})

	t.Run("MissWithAbsenceCachesNothing", func(t *testing.T) {
		populated := false
		got, err := cache.Query(ctx, "k",
			func(ctx context.Context, key string) (*string, error) { return nil, nil },
			func(ctx context.Context, key string) (*string, error) { return nil, nil },
			func(ctx context.Context, key string, v *string) (*string, error) { populated = true; return v, nil },
		)
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.False(t, populated)
	})

	t.Run("MissWithValuePopulatesOnce", func(t *testing.T) {
		populations := 0
		v := "stored"
		got, err := cache.Query(ctx, "k",
			func(ctx context.Context, key string) (*string, error) { return nil, nil },
			func(ctx context.Context, key string) (*string, error) { return &v, nil },
			func(ctx context.Context, key string, v *string) (*string, error) {
				populations++
				transformed := *v + ":populated"
				return &transformed, nil
			},
		)
		assert.NoError(t, err)
		assert.Equal(t, "stored:populated", *got)
		assert.Equal(t, 1, populations)
	})

	t.Run("ReadErrorSurfaces", func(t *testing.T) {
		boom := errors.New("pool exhausted")
		_, err := cache.Query(ctx, "k",
			func(ctx context.Context, key string) (*string, error) { return nil, boom },
			func(ctx context.Context, key string) (*string, error) { return nil, nil },
			func(ctx context.Context, key string, v *string) (*string, error) { return v, nil },
		)
		assert.ErrorIs(t, err, boom)
	})
}

func TestCachedQuery(t *testing.T) {
	c, _ := testutil.SetupTestCache(t)
	ctx := context.Background()

	t.Run("MissLoadsAndPopulates", func(t *testing.T) {
		loads := 0
		load := func(ctx context.Context, key string) (*tag, error) {
			loads++
			return &tag{StickerID: "s1", OwnerID: 3, Tag: "dog"}, nil
		}

		first, err := cache.CachedQuery(ctx, c, "search:dog", load)
		assert.NoError(t, err)
		assert.Equal(t, "dog", first.Tag)
		assert.Equal(t, 1, loads)

		// Second query is served from the cache
		second, err := cache.CachedQuery(ctx, c, "search:dog", load)
		assert.NoError(t, err)
		assert.Equal(t, *first, *second)
		assert.Equal(t, 1, loads)
	})

	t.Run("NegativeResultNotCached", func(t *testing.T) {
		loads := 0
		load := func(ctx context.Context, key string) (*tag, error) {
			loads++
			return nil, nil
		}

		got, err := cache.CachedQuery(ctx, c, "search:none", load)
		assert.NoError(t, err)
		assert.Nil(t, got)

		_, err = cache.CachedQuery(ctx, c, "search:none", load)
		assert.NoError(t, err)
		assert.Equal(t, 2, loads)

		_, err = c.GetBytes(ctx, "search:none")
		assert.ErrorIs(t, err, cache.ErrNotFound)
	})
}

func TestSpawn(t *testing.T) {
	t.Run("JoinReturnsResult", func(t *testing.T) {
		h := cache.Spawn(func() (*int, error) {
			v := 42
			return &v, nil
		})
		got, err := h.Join()
		assert.NoError(t, err)
		assert.Equal(t, 42, *got)
	})

	t.Run("ApplicationError", func(t *testing.T) {
		boom := errors.New("query failed")
		h := cache.Spawn(func() (*int, error) { return nil, boom })
		_, err := h.Join()
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, cache.ErrTaskFailed)
	})

	t.Run("PanicIsTaskFailure", func(t *testing.T) {
		h := cache.Spawn(func() (*int, error) { panic("oops") })
		_, err := h.Join()
		assert.ErrorIs(t, err, cache.ErrTaskFailed)
	})
}
