package engine

import (
	"fmt"
	"log/slog"

	bolt "go.etcd.io/bbolt"
)

var artifactsBucket = []byte("artifacts")

// Cache is the local content-addressed store (C7): keys are hex SHA-256
// digests, values are an artifact's decompressed bytes. Backed by
// go.etcd.io/bbolt, grounded on
// _examples/pikaia79-baud/engine/kernel/store/kvstore/boltdb/store.go's use
// of the same embedded single-writer/multi-reader KV store for an on-disk
// search index. A bloomFilter front-ends Has so a cold miss for a hash
// that's definitely absent never opens a bbolt transaction.
type Cache struct {
	db     *bolt.DB
	bloom  *bloomFilter
	logger *slog.Logger
}

// OpenCache opens (creating if necessary) the bbolt file at path and
// rebuilds the bloom filter from a full bucket scan.
func OpenCache(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}
	c := &Cache{db: db, bloom: newBloomFilter(), logger: slog.Default().With("component", "cache")}

	err = db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(artifactsBucket)
		if err != nil {
			return err
		}
		return bucket.ForEach(func(k, v []byte) error {
			c.bloom.add(string(k))
			return nil
		})
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: scanning %s: %w", path, err)
	}
	return c, nil
}

// Has reports whether hash is present. The bloom filter short-circuits a
// guaranteed-absent key without opening a read transaction; any other key
// is confirmed with a real Get.
func (c *Cache) Has(hash string) bool {
	if !c.bloom.maybeContains(hash) {
		return false
	}
	_, ok := c.Get(hash)
	return ok
}

// Get returns the cached bytes for hash, if present.
func (c *Cache) Get(hash string) ([]byte, bool) {
	if !c.bloom.maybeContains(hash) {
		return nil, false
	}
	var data []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(artifactsBucket).Get([]byte(hash))
		if v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, false
	}
	return data, true
}

// Put writes data under hash. A write failure is logged and ignored
// (spec.md §4.7: "a missed write is logged but not surfaced"); callers
// that want fire-and-forget semantics should invoke Put in its own
// goroutine, which is what engine.Loader does on every cache miss.
func (c *Cache) Put(hash string, data []byte) {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(artifactsBucket).Put([]byte(hash), data)
	})
	if err != nil {
		c.logger.Error("cache write failed", "hash", hash, "error", err)
		return
	}
	c.bloom.add(hash)
}

// Prune deletes every cached key not present in valid. Best-effort: a
// failure here does not affect correctness, only cache hit rate going
// forward (spec.md §4.7).
func (c *Cache) Prune(valid map[string]struct{}) {
	var toDelete [][]byte
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(artifactsBucket).ForEach(func(k, v []byte) error {
			if _, ok := valid[string(k)]; !ok {
				toDelete = append(toDelete, append([]byte(nil), k...))
			}
			return nil
		})
	})
	if err != nil {
		c.logger.Error("cache prune scan failed", "error", err)
		return
	}
	if len(toDelete) == 0 {
		return
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(artifactsBucket)
		for _, k := range toDelete {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.logger.Error("cache prune delete failed", "error", err)
		return
	}
	// The bloom filter only ever grows between rebuilds (Open is the only
	// rebuild point) — a stale positive after pruning just costs one extra
	// Get, never a false negative.
	c.logger.Info("cache pruned", "removed", len(toDelete))
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}
