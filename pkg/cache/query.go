package cache

import "context"

type ReadFunc[T any] func(ctx context.Context, key string) (*T, error)

type LoadFunc[T any] func(ctx context.Context, key string) (*T, error)

type PopulateFunc[T any] func(ctx context.Context, key string, v *T) (*T, error)

// Query is the cache-aside read primitive. The three strategies are
// plain function values so call sites close over whatever cache and
// store handles they hold:
//
//   - read checks the cache; a non-nil result is returned as-is and
//     the store is never consulted.
//   - load consults the durable store on a cache miss; nil means the
//     value does not exist anywhere, and nothing is cached (negative
//     results are never stored).
//   - populate writes a cache representation of the loaded value and
//     returns what the caller should see, which lets it re-key or
//     reshape the value on the way into the cache.
//
// The store stays the system of record: a crash after load but before
// populate costs one future cache miss, nothing else.
func Query[T any](ctx context.Context, key string, read ReadFunc[T], load LoadFunc[T], populate PopulateFunc[T]) (*T, error) {
	cached, err := read(ctx, key)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}
	loaded, err := load(ctx, key)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		return nil, nil
	}
	return populate(ctx, key, loaded)
}

// CachedQuery fixes a Cache handle and uses the default read/populate
// pair: decode the scalar at key on read, encode the loaded value back
// to the same key on populate. Only the durable lookup is left to the
// caller.
func CachedQuery[T any](ctx context.Context, c *Cache, key string, load LoadFunc[T]) (*T, error) {
	read := func(ctx context.Context, key string) (*T, error) {
		return GetValue[T](ctx, c, key)
	}
	populate := func(ctx context.Context, key string, v *T) (*T, error) {
		if err := c.SetValue(ctx, key, v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return Query(ctx, key, read, load, populate)
}
