package hashcache

import (
	"context"

	"github.com/go-redis/redis/v7"
	"github.com/pkg/errors"

	"github.com/chronodrachma/verushash/pkg/core/types"
)

// RedisCache implements Cache on a Redis server. Keys are prefixed with the
// chain name so several chains can share one server.
type RedisCache struct {
	client    *redis.Client
	chainName string
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache connects to the server in opts and checks it answers PING.
func NewRedisCache(opts *redis.Options, chainName string) (*RedisCache, error) {
	if len(opts.Addr) == 0 {
		return nil, errors.New("redis address is empty")
	}
	client := redis.NewClient(opts)
	if _, err := client.Ping().Result(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "unable to ping redis server at %s", opts.Addr)
	}
	return &RedisCache{client: client, chainName: chainName}, nil
}

func (c *RedisCache) redisKey(key Key) string {
	return c.chainName + "-digest-" + key.String()
}

func (c *RedisCache) Get(ctx context.Context, key Key) (types.Hash, bool, error) {
	val, err := c.client.WithContext(ctx).Get(c.redisKey(key)).Result()
	if err == redis.Nil {
		return types.Hash{}, false, nil
	}
	if err != nil {
		return types.Hash{}, false, err
	}
	digest, err := types.HashFromHex(val)
	if err != nil {
		return types.Hash{}, false, errors.Wrapf(err, "corrupt cached digest under %s", key)
	}
	return digest, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key Key, digest types.Hash) error {
	return c.client.WithContext(ctx).Set(c.redisKey(key), digest.Hex(), 0).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
