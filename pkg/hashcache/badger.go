package hashcache

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/chronodrachma/verushash/pkg/core/types"
)

// BadgerCache implements Cache using BadgerDB.
type BadgerCache struct {
	db *badger.DB
}

var _ Cache = (*BadgerCache)(nil)

// NewBadgerCache creates or opens a BadgerDB cache at the given path.
// If path is empty, it opens an in-memory store.
func NewBadgerCache(path string) (*BadgerCache, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	// Reduce logging noise
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open badger cache at %q", path)
	}
	return &BadgerCache{db: db}, nil
}

// Keys:
// Digest: "digest:<namespace>:<variant>:<sha256(header)>" -> 32-byte digest

func badgerKey(key Key) []byte {
	return []byte("digest:" + key.String())
}

func (c *BadgerCache) Get(_ context.Context, key Key) (types.Hash, bool, error) {
	var digest types.Hash
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			d, err := types.HashFromBytes(val)
			if err != nil {
				return err
			}
			digest = d
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return types.Hash{}, false, nil
	}
	if err != nil {
		return types.Hash{}, false, err
	}
	return digest, true, nil
}

func (c *BadgerCache) Put(_ context.Context, key Key, digest types.Hash) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(key), digest[:])
	})
}

func (c *BadgerCache) Close() error {
	return c.db.Close()
}
