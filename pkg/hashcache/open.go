package hashcache

import (
	"github.com/go-redis/redis/v7"

	"github.com/chronodrachma/verushash/pkg/config"
)

// Open returns the cache selected by cfg, or nil if caching is disabled.
// Redis takes precedence over Badger when both are configured.
func Open(cfg config.Config) (Cache, error) {
	switch {
	case cfg.RedisAddr != "":
		c, err := NewRedisCache(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.ChainName)
		if err != nil {
			return nil, err
		}
		return c, nil
	case cfg.CacheDir != "" || cfg.CacheMemory:
		c, err := NewBadgerCache(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, nil
}
