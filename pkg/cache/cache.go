package cache

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by scalar reads when the key is absent.
var ErrNotFound = errors.New("cache: key not found")

// Cache wraps a pooled redis client. It exposes scalar primitives,
// pipelined execution and list staging; it performs no retries and
// applies no TTL policy of its own. Eviction and freshness are the
// redis server's problem, retry policy is the caller's.
type Cache struct {
	client *redis.Client
}

// NewCache connects to redis at addr and verifies the connection.
func NewCache(ctx context.Context, addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "connect to redis")
	}
	return &Cache{client: client}, nil
}

// NewCacheFromClient wraps an existing client. Used by tests to point
// the cache at miniredis.
func NewCacheFromClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Close releases the pooled connections.
func (c *Cache) Close() error {
	return c.client.Close()
}

// GetBytes fetches the raw value at key. Absence is ErrNotFound.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %q", key)
	}
	return data, nil
}

// Set stores raw bytes at key with no expiry.
func (c *Cache) Set(ctx context.Context, key string, data []byte) error {
	if err := c.client.Set(ctx, key, data, 0).Err(); err != nil {
		return errors.Wrapf(err, "set %q", key)
	}
	return nil
}

// SetValue encodes v and stores it at key.
func (c *Cache) SetValue(ctx context.Context, key string, v interface{}) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data)
}

// Del removes the given keys. Deleting an absent key is not an error.
func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "del")
	}
	return nil
}

// Pipe queues the commands assembled by fn and dispatches them in one
// round trip.
func (c *Cache) Pipe(ctx context.Context, fn func(pipe redis.Pipeliner)) error {
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		fn(pipe)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "pipeline")
	}
	return nil
}

// TryPipe is Pipe for builders that may themselves fail (e.g. an item
// fails to encode). If fn returns an error, no command is dispatched.
func (c *Cache) TryPipe(ctx context.Context, fn func(pipe redis.Pipeliner) error) error {
	_, err := c.client.Pipelined(ctx, fn)
	if err != nil {
		return errors.Wrap(err, "pipeline")
	}
	return nil
}

// TryPipeAtomic is TryPipe inside MULTI/EXEC: the queued commands
// apply as one indivisible unit relative to other clients.
func (c *Cache) TryPipeAtomic(ctx context.Context, fn func(pipe redis.Pipeliner) error) error {
	_, err := c.client.TxPipelined(ctx, fn)
	if err != nil {
		return errors.Wrap(err, "tx pipeline")
	}
	return nil
}

// GetValue fetches and decodes the value at key. A missing key yields
// (nil, nil) so callers can distinguish absence from failure without
// sentinel checks.
func GetValue[T any](ctx context.Context, c *Cache, key string) (*T, error) {
	data, err := c.GetBytes(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := Decode(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateList atomically replaces the list at key with the encoded
// items, preserving their order. Any prior list at key is dropped
// first; an encode failure aborts before anything is sent.
func CreateList[T any](ctx context.Context, c *Cache, key string, items []T) error {
	return c.TryPipeAtomic(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		for _, item := range items {
			data, err := Encode(item)
			if err != nil {
				return err
			}
			pipe.RPush(ctx, key, data)
		}
		return nil
	})
}

// AppendList pushes one encoded item onto the staging list at key.
func AppendList[T any](ctx context.Context, c *Cache, key string, item T) error {
	data, err := Encode(item)
	if err != nil {
		return err
	}
	return c.TryPipeAtomic(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		return nil
	})
}

// DrainList atomically reads the whole list at key and clears it in a
// single round trip. Every element is decoded; one bad element fails
// the whole drain with no partial results. Draining an absent list
// yields an empty slice.
func DrainList[T any](ctx context.Context, c *Cache, key string) ([]T, error) {
	var rangeCmd *redis.StringSliceCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		rangeCmd = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "drain list %q", key)
	}
	raw := rangeCmd.Val()
	items := make([]T, 0, len(raw))
	for _, data := range raw {
		var v T
		if err := Decode([]byte(data), &v); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}
