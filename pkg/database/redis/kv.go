package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redbco/unidb/pkg/adapter"
	"github.com/redbco/unidb/pkg/dbcapabilities"
)

// Key-value helpers outside the table-shaped contract, for callers that use
// Redis as Redis. All of them require a connected client.

// Get returns the string value at key. A missing key returns ok=false, not
// an error.
func (c *Client) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	if err := c.guard("get"); err != nil {
		return "", false, err
	}

	value, err = c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, adapter.NewQueryError(dbcapabilities.Redis, "get", "", err)
	}
	return value, true, nil
}

// Set stores value at key. A zero ttl means no expiry.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.guard("set"); err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return adapter.NewQueryError(dbcapabilities.Redis, "set", "", err)
	}
	return nil
}

// Del removes keys and returns how many existed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	if err := c.guard("del"); err != nil {
		return 0, err
	}
	n, err := c.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, adapter.NewQueryError(dbcapabilities.Redis, "del", "", err)
	}
	return n, nil
}

// KeyExists reports whether key is present.
func (c *Client) KeyExists(ctx context.Context, key string) (bool, error) {
	if err := c.guard("exists"); err != nil {
		return false, err
	}
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, adapter.NewQueryError(dbcapabilities.Redis, "exists", "", err)
	}
	return n > 0, nil
}

// Expire sets a ttl on key. The bool reports whether the key existed.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := c.guard("expire"); err != nil {
		return false, err
	}
	ok, err := c.rdb.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, adapter.NewQueryError(dbcapabilities.Redis, "expire", "", err)
	}
	return ok, nil
}

// HashGet returns the decoded record stored at key, ok=false when absent.
func (c *Client) HashGet(ctx context.Context, key string) (adapter.Record, bool, error) {
	if err := c.guard("hash_get"); err != nil {
		return nil, false, err
	}
	fields, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, false, adapter.NewQueryError(dbcapabilities.Redis, "hash_get", "", err)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}
	return decodeRecord(fields), true, nil
}

// HashSet stores record as a hash at key using the same field encoding as
// Insert.
func (c *Client) HashSet(ctx context.Context, key string, record adapter.Record) error {
	if err := c.guard("hash_set"); err != nil {
		return err
	}
	fields, err := encodeRecord(record)
	if err != nil {
		return adapter.NewQueryError(dbcapabilities.Redis, "hash_set", "", err)
	}
	if err := c.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return adapter.NewQueryError(dbcapabilities.Redis, "hash_set", "", err)
	}
	return nil
}
