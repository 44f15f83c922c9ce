// Package hashcache memoizes VerusHash digests in Badger or Redis and
// counts cache outcomes with Prometheus.
package hashcache

import (
	"context"
	"encoding/hex"

	"github.com/sirupsen/logrus"

	"github.com/chronodrachma/verushash/pkg/core/consensus"
	"github.com/chronodrachma/verushash/pkg/core/types"
)

// Cache stores wire-order digests by Key.
type Cache interface {
	// Get returns the digest stored under key. ok is false on a miss.
	Get(ctx context.Context, key Key) (digest types.Hash, ok bool, err error)
	Put(ctx context.Context, key Key, digest types.Hash) error
	Close() error
}

// Key identifies a digest: the engine name, the variant and the
// SHA-256 of the header bytes.
type Key struct {
	Namespace string
	Variant   consensus.Variant
	Header    types.Hash
}

// KeyFor builds the Key of header hashed with variant.
func KeyFor(namespace string, variant consensus.Variant, header []byte) Key {
	return Key{
		Namespace: namespace,
		Variant:   variant,
		Header:    types.ComputeSHA256(header),
	}
}

// String returns the stable text form used as the storage key.
func (k Key) String() string {
	return k.Namespace + ":" + k.Variant.String() + ":" + hex.EncodeToString(k.Header[:])
}

// CachedHasher consults a Cache before computing with a VerusHasher.
// Cache failures are logged and fall through to computation.
type CachedHasher struct {
	hasher    *consensus.VerusHasher
	cache     Cache
	namespace string
	log       *logrus.Entry
}

var (
	_ consensus.Hasher   = (*CachedHasher)(nil)
	_ types.HeightHasher = (*CachedHasher)(nil)
)

// NewCachedHasher wraps hasher with cache. Entries are namespaced by the
// hasher's engine name, so engines sharing one store never read each
// other's digests.
func NewCachedHasher(hasher *consensus.VerusHasher, cache Cache, log *logrus.Entry) *CachedHasher {
	return &CachedHasher{
		hasher:    hasher,
		cache:     cache,
		namespace: hasher.EngineName(),
		log:       log,
	}
}

// Compute returns the cached digest of header for variant, computing and
// storing it on a miss.
func (c *CachedHasher) Compute(ctx context.Context, variant consensus.Variant, header []byte) (types.Hash, error) {
	key := KeyFor(c.namespace, variant, header)
	digest, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		c.log.WithError(err).WithField("key", key.String()).Warn("digest cache read failed")
	} else if ok {
		cacheHits.WithLabelValues(variant.String()).Inc()
		return digest, nil
	}
	cacheMisses.WithLabelValues(variant.String()).Inc()

	digest, err = c.hasher.Compute(variant, header)
	if err != nil {
		return types.Hash{}, err
	}
	if err := c.cache.Put(ctx, key, digest); err != nil {
		cacheErrors.WithLabelValues("put").Inc()
		c.log.WithError(err).WithField("key", key.String()).Warn("digest cache write failed")
	}
	return digest, nil
}

// ComputeReverse is Compute with the hasher's reverse formatting applied.
func (c *CachedHasher) ComputeReverse(ctx context.Context, variant consensus.Variant, header []byte) (types.Hash, error) {
	digest, err := c.Compute(ctx, variant, header)
	if err != nil {
		return types.Hash{}, err
	}
	return c.hasher.Reverse(digest), nil
}

// AnyHash hashes header with byte-offset variant selection.
func (c *CachedHasher) AnyHash(header []byte) (types.Hash, error) {
	v, err := c.hasher.Select(header)
	if err != nil {
		return types.Hash{}, err
	}
	return c.Compute(context.Background(), v, header)
}

// AnyHashAtHeight hashes header with height-aware variant selection.
func (c *CachedHasher) AnyHashAtHeight(header []byte, height int64) (types.Hash, error) {
	v, err := c.hasher.SelectAtHeight(header, height)
	if err != nil {
		return types.Hash{}, err
	}
	return c.Compute(context.Background(), v, header)
}

// AnyHashReverseAtHeight is AnyHashAtHeight with the digest byte-reversed.
func (c *CachedHasher) AnyHashReverseAtHeight(header []byte, height int64) (types.Hash, error) {
	v, err := c.hasher.SelectAtHeight(header, height)
	if err != nil {
		return types.Hash{}, err
	}
	return c.ComputeReverse(context.Background(), v, header)
}

// Hash implements consensus.Hasher.
func (c *CachedHasher) Hash(headerBytes []byte) (types.Hash, error) {
	return c.AnyHash(headerBytes)
}

// Close closes the cache and the wrapped hasher.
func (c *CachedHasher) Close() {
	if err := c.cache.Close(); err != nil {
		c.log.WithError(err).Warn("closing digest cache")
	}
	c.hasher.Close()
}
